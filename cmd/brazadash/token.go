package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"brazadash/internal/domain"
	"brazadash/internal/usecase"
)

func tokenCmd() *cobra.Command {
	var (
		user string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			r := domain.Role(role)
			switch r {
			case domain.RoleCustomer, domain.RoleVendor, domain.RoleProvider, domain.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			secret := cfg.JWTSecret
			if secret == "" {
				secret = "dev-secret"
			}
			auth := &usecase.AuthService{JWTSecret: secret, TTL: ttl}
			tok, err := auth.Issue(domain.Principal{UserID: user, Role: r})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id")
	cmd.Flags().StringVarP(&role, "role", "r", string(domain.RoleCustomer), "customer, vendor, provider or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
