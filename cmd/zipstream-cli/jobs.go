package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream/clientcli"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show finished archive jobs",
	Long: `Show the server's job history, newest first. The server must run
with history enabled.

Examples:
  zipstream-cli jobs
  zipstream-cli jobs --archive wedding1 --limit 20
  zipstream-cli jobs --cursor <next cursor from the previous page>`,
	Args: cobra.NoArgs,
	RunE: runJobs,
}

var jobsOpts clientcli.JobsOptions

func init() {
	jobsCmd.Flags().StringVarP(&jobsOpts.ArchiveID, "archive", "a", "", "only show jobs for this archive")
	jobsCmd.Flags().IntVarP(&jobsOpts.Limit, "limit", "n", 0, "maximum jobs per page (server default: 50)")
	jobsCmd.Flags().StringVar(&jobsOpts.Cursor, "cursor", "", "continue from a previous page")
}

func runJobs(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Jobs(cmd.Context(), jobsOpts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatJobs(os.Stdout, result)
}
