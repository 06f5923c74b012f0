package app

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/GoADConsole/GoADConsole/internal/config"
	"github.com/GoADConsole/GoADConsole/internal/daemon"
	"github.com/GoADConsole/GoADConsole/internal/logger"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	startCmd.Flags().BoolVar(
		&browseStatic,
		"browse",
		false,
		"Enable static file browsing (for development purposes only)",
	)

	rootCmd.AddCommand(startCmd)
}

var (
	configPath string // Path to the configuration directory
	envFile    string // Path to the dotenv file

	cfg          config.Config
	devMode      bool
	browseStatic bool

	startCmd = &cobra.Command{
		Use:     "start",
		Short:   "Start the GoADConsole web service",
		PreRunE: loadConfig,
		RunE: func(_ *cobra.Command, _ []string) error {
			if devMode {
				cfg.DevMode = true
			}

			if browseStatic {
				cfg.Webserver.BrowseStatic = true
			}

			if err := logger.Init(cfg.Log); err != nil {
				return err
			}

			d, err := daemon.New(&cfg)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}
)

// loadConfig reads the dotenv file, if any, and then the configuration directory.
// Environment variables set by the dotenv file override single config keys.
func loadConfig(_ *cobra.Command, _ []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	var err error

	cfg, err = config.ReadConfig(configPath)

	return err
}
