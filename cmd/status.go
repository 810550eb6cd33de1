package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/andrewbearsley/withings-skill/auth"
	"github.com/andrewbearsley/withings-skill/credstore"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// statusCmd shows the stored credential's diagnostics without touching the
// network: who is linked, which backend holds the credential, and whether the
// access token is still valid, due for refresh, or expired.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the lifecycle state of the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			store, closeStore, err := cfg.Store.NewStore()
			if err != nil {
				return userError(err)
			}
			defer func() { _ = closeStore() }()

			cred, err := store.Load(context.Background())
			if errors.Is(err, credstore.ErrNotFound) {
				cmd.Println("Not authorized. Run 'withings authorize' to link an account.")
				return nil
			}
			if err != nil {
				return userError(err)
			}

			renderStatusTable(cred, string(cfg.Store.Backend), time.Now())
			return nil
		},
	}
}

func renderStatusTable(cred *credstore.Credential, backend string, now time.Time) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})

	// Table appearance settings
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	table.Append([]string{"User ID", cred.UserID})
	table.Append([]string{"Store backend", backend})
	table.Append([]string{"Access token", truncateToken(cred.AccessToken)})
	table.Append([]string{"Expires at", time.Unix(cred.ExpiresAt, 0).Format(time.RFC3339)})
	table.Append([]string{"State", lifecycleState(cred, now)})

	table.Render()
}

// lifecycleState classifies the credential the same way the token command
// decides whether to refresh.
func lifecycleState(cred *credstore.Credential, now time.Time) string {
	remaining := cred.ExpiresIn(now)
	switch {
	case remaining <= 0:
		return "expired (refresh due)"
	case remaining <= auth.Skew:
		return fmt.Sprintf("expiring (refresh due, %s left)", remaining.Round(time.Second))
	default:
		return fmt.Sprintf("valid (%s left)", remaining.Round(time.Second))
	}
}

// truncateToken keeps enough of the token to recognize it in provider logs
// without printing a usable credential.
func truncateToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
