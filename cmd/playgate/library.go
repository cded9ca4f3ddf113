package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/waizdev/playgate/internal/cli"
	"github.com/waizdev/playgate/pkg/store"

	"github.com/spf13/cobra"
)

var (
	importLink     bool
	listVault      bool
	listFilter     string
	favoriteRemove bool
)

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(favoriteCmd)

	favoriteCmd.Flags().BoolVar(&favoriteRemove, "remove", false,
		"Remove the favorite flag instead of setting it")

	importCmd.Flags().BoolVar(&importLink, "link", false,
		"Keep a handle to the original file for re-reading from disk")
	listCmd.Flags().BoolVar(&listVault, "vault", false,
		"List vaulted videos instead of the library (requires unlock)")
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "",
		"Filter by name (substring, or glob with *?[)")
}

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import video files into the library",
	Long: `Import one or more video files. Each file's duration is probed and a
thumbnail frame is captured; undecodable files are skipped and reported
without aborting the rest of the batch.

Re-importing an unmodified file replaces its record instead of duplicating it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imported, failed, err := lib.ImportBatch(args, importLink)
		for _, v := range imported {
			fmt.Printf("Imported %s (%s, %.1fs)\n", v.Name, v.ID, v.Duration)
		}
		for path, ferr := range failed {
			fmt.Printf("Skipped %s: %v\n", path, ferr)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%d imported, %d skipped\n", len(imported), len(failed))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List videos in the library (or the vault with --vault)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listVault {
			if err := ensureUnlocked(); err != nil {
				return err
			}
		}
		videos, err := st.GetAllVideos(listVault)
		if err != nil {
			return err
		}
		videos, err = cli.FilterVideos(listFilter, videos)
		if err != nil {
			return err
		}

		shown := 0
		for _, v := range videos {
			if listVault != v.Vaulted {
				continue
			}
			fmt.Printf("%-44s  %-24s  %8s  %s\n",
				v.ID, truncate(v.Name, 24), formatDuration(v.Duration),
				v.CreatedAt.Local().Format("2006-01-02 15:04"))
			shown++
		}
		if shown == 0 {
			switch {
			case listFilter != "":
				fmt.Println("No videos match")
			case listVault:
				fmt.Println("Vault is empty")
			default:
				fmt.Println("Library is empty; use 'playgate import' to add videos")
			}
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info [id]",
	Short: "Show full metadata for one video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, handlePath, err := st.GetVideo(args[0])
		if err != nil {
			return err
		}
		if v.Vaulted {
			if err := ensureUnlocked(); err != nil {
				return err
			}
		}

		fmt.Printf("ID:        %s\n", v.ID)
		fmt.Printf("Name:      %s\n", v.Name)
		fmt.Printf("Type:      %s\n", v.MimeType)
		fmt.Printf("Duration:  %s\n", formatDuration(v.Duration))
		fmt.Printf("Size:      %d bytes\n", v.Size)
		fmt.Printf("Added:     %s\n", v.CreatedAt.Local().Format(time.RFC1123))
		if !v.LastPlayed.IsZero() {
			fmt.Printf("Played:    %s (%.0f%%", v.LastPlayed.Local().Format(time.RFC1123), v.Progress)
			if v.Completed {
				fmt.Print(", completed")
			}
			fmt.Println(")")
		}
		fmt.Printf("Favorite:  %v\n", v.Favorited)
		fmt.Printf("Vaulted:   %v\n", v.Vaulted)
		fmt.Printf("Thumbnail: %d bytes\n", len(v.Thumbnail))
		fmt.Printf("Binary:    %d bytes\n", len(v.Data))
		if handlePath != "" {
			fmt.Printf("File:      %s\n", handlePath)
		}
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename [id] [new-name]",
	Short: "Rename a video",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := lib.Rename(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Renamed %s to '%s'\n", args[0], args[1])
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a video, removing it from every playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := lib.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite [id]",
	Short: "Mark a video as a favorite (or unmark with --remove)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := lib.ToggleFavorite(args[0], !favoriteRemove); err != nil {
			return err
		}
		if favoriteRemove {
			fmt.Printf("Removed favorite from %s\n", args[0])
		} else {
			fmt.Printf("Marked %s as favorite\n", args[0])
		}
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress [id] [seconds]",
	Short: "Record a playback position for a video",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", args[1], err)
		}
		v, _, err := st.GetVideo(args[0])
		if err != nil {
			return err
		}
		percent := 0.0
		if v.Duration > 0 {
			percent = position / v.Duration * 100
		}
		if err := lib.RecordProgress(v.ID, position, percent); err != nil {
			return err
		}
		fmt.Printf("Recorded %.0fs (%.0f%%) for %s\n", position, percent, v.Name)
		return nil
	},
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// truncate shortens a display name to max runes. Slicing runes, not bytes,
// keeps multi-byte names intact.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}

// videoSummary is shared by list and playlist show.
func videoSummary(v *store.Video) string {
	return fmt.Sprintf("%-44s  %-24s  %8s", v.ID, truncate(v.Name, 24), formatDuration(v.Duration))
}
