package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream/config"
	"github.com/sagarc03/zipstream/filesystem"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the archives the server would offer",
	Long: `List every directory below the photo directory that can be
requested as an archive, without starting the server.

Examples:
  zipstream list
  zipstream list --photos-dir /srv/photos --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	root, err := os.OpenRoot(cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("open photo directory: %w", err)
	}
	defer func() { _ = root.Close() }()

	entries, err := filesystem.NewStore(root).List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list archives: %w", err)
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No archives found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFILES\tSIZE\tMODIFIED")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", e.ID, e.FileCount, e.SizeBytes, e.ModifiedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
