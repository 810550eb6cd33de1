package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// refreshCmd forces a refresh regardless of the remaining lifetime. Normal
// consumers should use 'withings token', which refreshes only when due.
func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force-refresh the access token now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			service, _, closeStore, err := buildService(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			cred, err := service.Refresh(context.Background())
			if err != nil {
				return userError(err)
			}

			cmd.Println("Token refreshed. New expiry:",
				time.Unix(cred.ExpiresAt, 0).Format(time.RFC3339))
			return nil
		},
	}
}
