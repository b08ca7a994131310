package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/listing"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/user"
	"github.com/teslimakintunde/shortlets-backend-api/internal/migration"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/jwt"
)

type demoPost struct {
	title string
	// price in major units of the default currency
	price string
	kind  listing.Type
}

var demoPosts = []demoPost{
	{title: "Lekki Phase 1 two-bed shortlet", price: "45000", kind: listing.TypeRent},
	{title: "Victoria Island studio", price: "32500.50", kind: listing.TypeRent},
	{title: "Ajah three-bed bungalow", price: "38000000", kind: listing.TypeBuy},
}

func seedCmd() *cobra.Command {
	var tokenTTL time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo users and listings and print bearer tokens for them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := migration.Run(db); err != nil {
				return err
			}

			users := []*user.User{
				{Email: "admin@shortlets.test", Username: "admin", Role: user.RoleAdmin},
				{Email: "support@shortlets.test", Username: "support", Role: user.RoleSupport},
				{Email: "host@shortlets.test", Username: "host", Role: user.RoleUser},
				{Email: "guest@shortlets.test", Username: "guest", Role: user.RoleUser},
			}
			for _, u := range users {
				if err := upsertUser(db, u); err != nil {
					return err
				}
			}

			host := users[2]
			for _, p := range demoPosts {
				minor, err := toMinor(p.price)
				if err != nil {
					return err
				}
				post := listing.Post{OwnerID: host.ID, Title: p.title, Price: minor, Type: p.kind, IsActive: true}
				if err := db.Where(listing.Post{OwnerID: host.ID, Title: p.title}).FirstOrCreate(&post).Error; err != nil {
					return fmt.Errorf("seed post %q: %w", p.title, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "post %-4d %-5s %s\n", post.ID, post.Type, post.Title)
			}

			tokens := jwt.New(cfg.JWTSecret, tokenTTL)
			for _, u := range users {
				tok, err := tokens.Issue(jwt.Principal{UserID: u.ID, Role: string(u.Role)})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %-4d %-8s %s\n", u.ID, u.Role, tok)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the printed tokens")
	return cmd
}

func upsertUser(db *gorm.DB, u *user.User) error {
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "role", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return fmt.Errorf("seed user %s: %w", u.Email, err)
	}
	// the upsert does not return the id of an existing row on every dialect
	return db.Where("email = ?", u.Email).First(u).Error
}

func toMinor(major string) (int64, error) {
	d, err := decimal.NewFromString(major)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", major, err)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
