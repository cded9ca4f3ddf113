package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/waizdev/playgate/pkg/backup"

	"github.com/spf13/cobra"
)

var exportOutput string

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(resetCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default from config)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all metadata and playlists to a JSON document",
	Long: `Writes every video's metadata (thumbnails included, raw binaries
excluded) and every playlist to a portable JSON file. Restoring it yields a
metadata-only library; video files must be re-imported or re-linked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := backup.Export(st)
		if err != nil {
			return err
		}

		output := exportOutput
		if output == "" {
			output = cfg.ExportPath
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()

		if err := backup.EncodeDocument(f, doc); err != nil {
			return err
		}
		fmt.Printf("Exported %d videos and %d playlists to %s\n",
			len(doc.Videos), len(doc.Playlists), output)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [file]",
	Short: "Restore the library from an export document",
	Long: `Replaces all videos and playlists with the document's contents. The
document is validated in full first; a corrupt file leaves existing data
untouched. File handles are preserved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open export file: %w", err)
		}
		defer f.Close()

		doc, err := backup.DecodeDocument(f)
		if err != nil {
			return err
		}
		if !confirm(fmt.Sprintf(
			"This replaces the current library with %d videos and %d playlists. Continue?",
			len(doc.Videos), len(doc.Playlists))) {
			fmt.Println("Aborted")
			return nil
		}

		if err := backup.Import(st, doc); err != nil {
			return err
		}
		fmt.Println("Restore complete; re-import or re-link files for playback")
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Factory reset: delete all videos, playlists, and file handles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm("This permanently deletes every video and playlist. Continue?") {
			fmt.Println("Aborted")
			return nil
		}
		if err := st.Clear(); err != nil {
			return err
		}
		fmt.Println("All data deleted")
		return nil
	},
}

// confirm asks a yes/no question on stdin; only an explicit "yes" proceeds.
func confirm(question string) bool {
	fmt.Printf("%s [yes/no]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(strings.ToLower(answer)) == "yes"
}
