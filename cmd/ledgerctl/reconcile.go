package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/payment"
	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/crypt"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/lock"
	"github.com/teslimakintunde/shortlets-backend-api/internal/server"
)

func reconcileCmd() *cobra.Command {
	var lockTTL time.Duration

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one stale payment sweep and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zlog, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = zlog.Sync() }()

			cipher, err := crypt.New(cfg.EncryptionKey)
			if err != nil {
				return err
			}

			var locker payment.Locker
			if cfg.RedisURL != "" {
				l, client, err := lock.NewFromURL(cfg.RedisURL)
				if err != nil {
					return err
				}
				defer client.Close()
				locker = l
			}

			app := server.New(server.Deps{
				Config:  cfg,
				DB:      db,
				Gateway: gateway.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
				Cipher:  cipher,
				Log:     zlog,
			}, locker)

			report, ran, err := app.Scheduler.RunOnce(cmd.Context(), lockTTL)
			if err != nil {
				return err
			}
			if !ran {
				zlog.Info("another instance holds the reconcile lock")
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().DurationVar(&lockTTL, "lock-ttl", 5*time.Minute, "how long the sweep may hold the cross-instance lock")

	return cmd
}
