package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the music folder and print the library index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgManager, err := loadConfig()
		if err != nil {
			return err
		}
		libraryService, closeCache := newLibrary(cfgManager, nil)
		defer closeCache()

		if err := libraryService.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		out := cmd.OutOrStdout()
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			for _, album := range libraryService.Albums() {
				fmt.Fprintf(out, "%s\n", album)
				for _, title := range libraryService.AlbumTitles(album) {
					fmt.Fprintf(out, "  %s\n", title)
				}
			}
		}
		stats := libraryService.Stats()
		fmt.Fprintf(out, "%d tracks, %d artists, %d albums in %s\n", stats.Tracks, stats.Artists, stats.Albums, libraryService.Root())
		return nil
	},
}

func init() {
	scanCmd.Flags().BoolP("verbose", "v", false, "list every album and its tracks")
	rootCmd.AddCommand(scanCmd)
}
