package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "zipstream",
	Short:   "Stream photo directories as zip archives over HTTP",
	Long: `zipstream serves each directory below the photo directory as a zip
archive that is compressed on the fly and streamed to the client
while it is being produced.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, may be repeated (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("photos-dir", "", "directory holding the archive directories (default: ./test_photos, env: ZIPSTREAM_ARCHIVE_PATH, PHOTOS_DIRECTORY)")
	rootCmd.PersistentFlags().Bool("logging", true, "enable logging (env: ZIPSTREAM_LOG_ENABLED, LOGGING_ENABLED)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json (default: text)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
