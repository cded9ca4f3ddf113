package main

import (
	"fmt"

	"github.com/waizdev/playgate/pkg/store"

	"github.com/spf13/cobra"
)

var playlistDescription string

func init() {
	rootCmd.AddCommand(playlistCmd)

	playlistCmd.AddCommand(playlistCreateCmd)
	playlistCmd.AddCommand(playlistListCmd)
	playlistCmd.AddCommand(playlistShowCmd)
	playlistCmd.AddCommand(playlistAddCmd)
	playlistCmd.AddCommand(playlistRemoveCmd)
	playlistCmd.AddCommand(playlistReorderCmd)
	playlistCmd.AddCommand(playlistDeleteCmd)

	playlistCreateCmd.Flags().StringVarP(&playlistDescription, "description", "d", "", "Playlist description")
}

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "Manage playlists",
}

var playlistCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := lib.CreatePlaylist(args[0], playlistDescription)
		if err != nil {
			return err
		}
		fmt.Printf("Created playlist '%s' (%s)\n", p.Name, p.ID)
		return nil
	},
}

var playlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all playlists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		playlists, err := st.GetAllPlaylists()
		if err != nil {
			return err
		}
		if len(playlists) == 0 {
			fmt.Println("No playlists")
			return nil
		}
		for _, p := range playlists {
			fmt.Printf("%-28s  %-24s  %d videos\n", p.ID, truncate(p.Name, 24), len(p.VideoIDs))
		}
		return nil
	},
}

var playlistShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a playlist's videos in playback order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := st.GetPlaylist(args[0])
		if err != nil {
			return err
		}
		fmt.Println(playlistHeader(p))

		videos, err := lib.PlaylistVideos(p.ID)
		if err != nil {
			return err
		}
		for i, v := range videos {
			fmt.Printf("%3d. %s\n", i+1, videoSummary(v))
		}
		if len(videos) == 0 {
			fmt.Println("  (empty)")
		}
		return nil
	},
}

var playlistAddCmd = &cobra.Command{
	Use:   "add [playlist-id] [video-id]",
	Short: "Append a video to a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := lib.AddToPlaylist(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Added %s to %s\n", args[1], args[0])
		return nil
	},
}

var playlistRemoveCmd = &cobra.Command{
	Use:   "remove [playlist-id] [video-id]",
	Short: "Remove a video from a playlist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := lib.RemoveFromPlaylist(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Removed %s from %s\n", args[1], args[0])
		return nil
	},
}

var playlistReorderCmd = &cobra.Command{
	Use:   "reorder [playlist-id] [video-ids...]",
	Short: "Replace a playlist's playback order wholesale",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := lib.Reorder(args[0], args[1:]); err != nil {
			return err
		}
		fmt.Printf("Reordered %s (%d videos)\n", args[0], len(args)-1)
		return nil
	},
}

// playlistHeader renders the show command's title line.
func playlistHeader(p *store.Playlist) string {
	if p.Description == "" {
		return p.Name
	}
	return p.Name + " - " + p.Description
}

var playlistDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a playlist (videos are untouched)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := st.DeletePlaylist(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted playlist %s\n", args[0])
		return nil
	},
}
