package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <archive-id> [local-path]",
	Short: "Download an archive from the server",
	Long: `Download the zip archive of one photo directory.

Without a local path the archive is saved under the name the server
suggests, usually <archive-id>.zip. The file only appears once the
whole archive has been received.

Examples:
  zipstream-cli download wedding1
  zipstream-cli download wedding1 ./backup/wedding1.zip
  zipstream-cli download --stdout wedding1 | unzip -l /dev/stdin
  zipstream-cli download -o - wedding1 > wedding1.zip`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path, - for stdout")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.DownloadOptions{
		ArchiveID: args[0],
		LocalPath: localPath,
	}

	result, reader, err := client.Download(cmd.Context(), opts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	// Stream to stdout
	if reader != nil {
		defer func() { _ = reader.Close() }()
		written, copyErr := io.Copy(os.Stdout, reader)
		if copyErr != nil {
			return handleError(os.Stderr, fmt.Errorf("%w after %d bytes: %w", clientcli.ErrIncompleteArchive, written, copyErr))
		}
		result.Size = written
		// Metadata goes to stderr so it does not corrupt the archive
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}

// handleError prints err with a hint for common server answers and returns it.
func handleError(w io.Writer, err error) error {
	_ = getFormatter().FormatError(w, err)
	if jsonOutput || quiet {
		return err
	}

	switch {
	case errors.Is(err, clientcli.ErrNotFound):
		_, _ = fmt.Fprintln(w, "Hint: run 'zipstream-cli list' to see the available archives.")
	case errors.Is(err, clientcli.ErrBusy):
		_, _ = fmt.Fprintln(w, "Hint: the server is building too many archives, try again shortly.")
	}
	return err
}
