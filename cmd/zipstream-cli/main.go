package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "zipstream-cli",
	Version: version,
	Short:   "Client for zipstream archive servers",
	Long: `zipstream-cli downloads photo archives from a zipstream server.

The server is chosen from, in increasing precedence: the default profile in
~/.zipstream/config.yaml, ZIPSTREAM_ENDPOINT, --profile, and --server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.zipstream/config.yaml, env: ZIPSTREAM_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: ZIPSTREAM_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "server", "s", "", "server URL (default: http://localhost:8080, env: ZIPSTREAM_ENDPOINT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath returns the profile file path from flag, env or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from profile file, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	profileName := profile
	if profileName == "" {
		profileName = clientcli.ProfileFromEnv()
	}

	// 1. Profile from config file
	if configPath := getConfigPath(); configPath != "" {
		fileCfg, err := clientcli.LoadConfigFile(configPath)
		switch {
		case err == nil:
			p, profileErr := fileCfg.GetProfile(profileName)
			if profileErr == nil {
				configs = append(configs, clientcli.ConfigFromProfile(p))
			} else if profileName != "" {
				return nil, profileErr
			}
		case cfgFile != "" || profileName != "":
			// Only error if the user asked for the file or a profile in it
			return nil, err
		}
	}

	// 2. Environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Flags
	configs = append(configs, &clientcli.Config{Endpoint: endpoint})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}
