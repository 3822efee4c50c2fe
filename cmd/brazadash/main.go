package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"brazadash/internal/config"
	"brazadash/internal/env"
	"brazadash/internal/logging"
)

var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "brazadash",
		Short:         "BrazaDash payments, orders and bookings backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSlice("env-file", []string{".env", ".env.local"}, "dotenv files, later ones win")

	root.AddCommand(serveCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(reportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads dotenv files, configuration and the logger shared by every
// subcommand.
func bootstrap(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	files, _ := cmd.Flags().GetStringSlice("env-file")
	if err := env.Load(files...); err != nil {
		return config.Config{}, nil, fmt.Errorf("load env files: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return cfg, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

func ensureDir(p string) error {
	if p == "" {
		return nil
	}
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return os.MkdirAll(p, 0o755)
	}
	return nil
}
