package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/fanout/auth"
)

type tokenOptions struct {
	staffID  string
	clinicID string
	roles    []string
	ttl      time.Duration
}

// newTokenCmd issues development tokens signed with the configured secret.
func newTokenCmd(root *rootOptions) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a staff bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			signer := auth.NewSigner(cfg.JWTConfig(), []byte(cfg.Auth.Secret))
			tok, err := signer.Sign(&auth.Identity{
				StaffID:  opts.staffID,
				ClinicID: opts.clinicID,
				Roles:    opts.roles,
			}, opts.ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.staffID, "staff", "dev-staff", "staff ID (sub claim)")
	cmd.Flags().StringVar(&opts.clinicID, "clinic", "dev-clinic", "clinic ID")
	cmd.Flags().StringSliceVar(&opts.roles, "role", []string{"doctor"}, "staff roles")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
