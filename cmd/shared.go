package cmd

import (
	"errors"

	"github.com/andrewbearsley/withings-skill/auth"
	"github.com/andrewbearsley/withings-skill/config"
	"github.com/andrewbearsley/withings-skill/credstore"
	"github.com/andrewbearsley/withings-skill/pkg/clierr"
	"github.com/andrewbearsley/withings-skill/withings"
	"github.com/spf13/cobra"
)

// loadConfig reads the configuration for a command, honoring the persistent
// --config flag plus any per-command flag overrides.
func loadConfig(cmd *cobra.Command, overrides map[string]any) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, overrides)
	if err != nil {
		return nil, clierr.New(clierr.Validation, err.Error(), err)
	}
	return cfg, nil
}

// buildService wires the credential store and provider client into an auth
// service. The returned close function must be called when done.
func buildService(cfg *config.Config) (*auth.Service, credstore.Store, func() error, error) {
	store, closeFn, err := cfg.Store.NewStore()
	if err != nil {
		return nil, nil, nil, clierr.New(clierr.Internal, "Failed to open the credential store: "+err.Error(), err)
	}
	client := withings.NewClient(cfg.ClientConfig())
	return auth.NewService(store, client), store, closeFn, nil
}

// userError maps a core error to a structured CLI error whose message names
// the corrective action. A stale rotated refresh token reads differently from
// a transient network failure because the fixes differ.
func userError(err error) *clierr.Error {
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var providerErr *auth.ProviderError
	var transportErr *auth.TransportError
	var persistErr *auth.PersistError

	switch {
	case errors.Is(err, auth.ErrNotAuthorized), errors.Is(err, credstore.ErrNotFound):
		return clierr.New(clierr.NotAuthorized,
			"No account is linked yet. Run 'withings authorize' first.", err)
	case errors.Is(err, credstore.ErrCorrupt):
		return clierr.New(clierr.NotAuthorized,
			"The stored credential is unusable. Run 'withings authorize' to re-link the account.", err)
	case errors.Is(err, auth.ErrStateMismatch):
		return clierr.New(clierr.Validation,
			"The pasted URL does not belong to this authorization attempt. Restart 'withings authorize' and paste the new redirect URL.", err)
	case errors.Is(err, auth.ErrMissingCode):
		return clierr.New(clierr.Validation,
			"The pasted URL carries no authorization code. Grant access in the browser, then paste the full redirect URL.", err)
	case errors.As(err, &providerErr):
		return clierr.New(clierr.Provider, providerErr.Error(), err)
	case errors.As(err, &transportErr):
		return clierr.New(clierr.Transport,
			"Could not reach the Withings token endpoint. This is likely transient; retry later.", err)
	case errors.As(err, &persistErr):
		return clierr.New(clierr.Internal, persistErr.Error(), err)
	default:
		return clierr.New(clierr.Internal, err.Error(), err)
	}
}
