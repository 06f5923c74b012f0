// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "go-ad-console",
	Short: "GoADConsole is a web-based administration console for Active Directory",
	Long: `GoADConsole is a web-based administration console for Active Directory.
It browses the directory tree, collects users into a selection and runs bulk
actions on them through the AD management API.`,
	Args: cobra.OnlyValidArgs,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Path to the configuration directory")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Optional dotenv file loaded before the configuration")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
