package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/config"
	"github.com/teslimakintunde/shortlets-backend-api/internal/database"
	"github.com/teslimakintunde/shortlets-backend-api/internal/logger"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Operator tooling for the shortlets payment ledger",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and opens the database the way the API does.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, zlog, db, nil
}
