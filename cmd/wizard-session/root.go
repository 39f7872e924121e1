package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/profilewizard/config"
	"github.com/kbukum/profilewizard/version"
)

const serviceName = "wizard-session"

var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Resumable profile wizard session",
	Long:          `Runs the profile wizard against the profile API, resuming the saved draft and autosaving every change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default: ./config.yml)")
	rootCmd.PersistentFlags().String("env-file", "", "Path to a .env file")
	rootCmd.PersistentFlags().String("env-prefix", config.DefaultEnvPrefix, "Prefix of configuration environment variables")
}

// loadConfig reads the configuration selected by the persistent flags.
// Defaults are applied and the result is validated.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config")
	envFile, _ := flags.GetString("env-file")
	envPrefix, _ := flags.GetString("env-prefix")

	var cfg config.AppConfig
	opts := []config.LoaderOption{config.WithEnvPrefix(envPrefix)}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
