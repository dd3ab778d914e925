package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	rootDir      string
	verbose      bool
	quiet        bool
	logLevel     string
	logFile      string
)

// build metadata, set by Execute
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

func Execute(ctx context.Context, version, commit, date string) error {
	appVersion, appCommit, appDate = version, commit, date
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ota",
		Short: "Transactional over-the-air updates for small devices",
		Long: `ota keeps the files of a device in sync with the latest release published on
an HTTP host.

A release is only installed when every one of its files could be downloaded;
otherwise the device keeps running the previous version untouched.`,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Device root directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (rotated), or 'console'")

	// Add subcommands
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newManifestCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"trace", "debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}
