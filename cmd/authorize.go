package cmd

import (
	"context"

	"github.com/andrewbearsley/withings-skill/auth"
	"github.com/andrewbearsley/withings-skill/withings"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// authorizeCmd runs the one-time interactive flow: it shows the consent URL,
// waits for the user to paste the redirect URL back, exchanges the code, and
// persists the credential. Any previously linked account is replaced.
func authorizeCmd() *cobra.Command {
	var redirectURI string

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Link a Withings account (first-time setup or re-authorization)",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			if redirectURI != "" {
				overrides["redirect_uri"] = redirectURI
			}

			cfg, err := loadConfig(cmd, overrides)
			if err != nil {
				return err
			}
			if cfg.ClientSecret == "" {
				cfg.ClientSecret = promptForPassword("Withings client secret: ")
			}

			service, _, closeStore, err := buildService(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			// The nonce is generated before the URL is shown so the pasted
			// redirect can be checked against it.
			state, err := auth.NewStateToken()
			if err != nil {
				return userError(err)
			}

			client := withings.NewClient(cfg.ClientConfig())
			cmd.Println("Open this URL in your browser and grant access:")
			cmd.Println()
			cmd.Println("  " + client.AuthorizeURL(state))
			cmd.Println()

			redirectURL := promptForInput("Paste the full redirect URL here: ")

			log.Info().Msg("Exchanging authorization code")
			cred, err := service.Authorize(context.Background(), state, redirectURL)
			if err != nil {
				return userError(err)
			}

			cmd.Println("Authorization was successful. Linked user:", cred.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Override the configured redirect URI")

	return cmd
}
