package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-reviewer/internal/config"
	"github.com/jonathan/resume-reviewer/internal/server"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		subject string
		hashKey string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token or hash a static API key",
		Long: `With --subject, signs a bearer token for the API using JWT_SECRET.
With --hash-key, prints the bcrypt hash to add to api_key_hashes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if hashKey != "" {
				hash, err := config.HashAPIKey(hashKey)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, hash)
				return err
			}

			if subject == "" {
				return errors.New("--subject or --hash-key is required")
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			jwtCfg, err := cfg.JWT()
			if err != nil {
				return err
			}
			if jwtCfg == nil {
				return errors.New("JWT_SECRET is required to issue tokens")
			}
			token, err := server.NewJWTService(jwtCfg).GenerateToken(subject)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject the token is issued to")
	cmd.Flags().StringVar(&hashKey, "hash-key", "", "API key to hash")
	return cmd
}
