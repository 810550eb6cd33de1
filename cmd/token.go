package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// tokenCmd prints a valid bearer token, refreshing first when the stored one
// is within the early-refresh margin. The bare-token output makes it usable
// directly from scripts:
//
//	curl -H "Authorization: Bearer $(withings token)" ...
func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token, refreshing if needed",
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

			token, err := service.ValidToken(context.Background())
			if err != nil {
				return userError(err)
			}

			cmd.Println(token)
			return nil
		},
	}
}
