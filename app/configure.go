package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoADConsole/GoADConsole/internal/backend"
	"github.com/GoADConsole/GoADConsole/internal/db"
	"github.com/GoADConsole/GoADConsole/internal/logger"
)

const configureTimeout = 30 * time.Second

func init() { //nolint: gochecknoinits
	configureCmd.Flags().StringVar(&apiHost, "host", "", "Host of the AD management API")
	configureCmd.Flags().StringVar(&apiPort, "port", "", "Port of the AD management API")

	_ = configureCmd.MarkFlagRequired("host")
	_ = configureCmd.MarkFlagRequired("port")

	rootCmd.AddCommand(configureCmd)
}

var (
	apiHost string
	apiPort string

	configureCmd = &cobra.Command{
		Use:     "configure",
		Short:   "Store the AD management API endpoint after probing it",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(cfg.Log); err != nil {
				return err
			}

			gdb, err := db.Open(&cfg)
			if err != nil {
				return err
			}

			engine := backend.New(gdb, cfg.Backend)
			if err = engine.Open(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), configureTimeout)
			defer cancel()

			ok, err := engine.Configure(ctx, apiHost, apiPort)
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("%w: %s:%s, keeping %q", errUnreachable, apiHost, apiPort, engine.BaseURL())
			}

			cmd.Printf("AD management API configured: %s\n", engine.BaseURL())

			return nil
		},
	}
)
