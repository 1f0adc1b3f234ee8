package main

import (
	"errors"
	"fmt"
	"time"

	"clip_service/pkg/config"
	"clip_service/pkg/token"

	"github.com/spf13/cobra"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var (
		operator string
		role     string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator token for the admin endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			if cfg.AdminSecret == "" {
				return errors.New("admin_secret is not configured")
			}

			tok, err := token.GenerateJWT([]byte(cfg.AdminSecret), operator, token.RoleType(role), config.EnvConfig.Ctl, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "clipctl", "Operator name stored in the token")
	cmd.Flags().StringVar(&role, "role", string(token.RoleAdmin), "Role: admin or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", token.DefaultExpiration, "Token lifetime")
	return cmd
}
