package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR targets an already-running relay (host:port). When empty the
	// suite starts an in-process server backed by a throwaway store.
	RelayAddr string `envconfig:"RELAY_ADDR"`
	// E2E_PROJECT_ID names an existing room on the targeted relay. Ignored in
	// the in-process mode, which seeds its own room.
	ProjectID string `envconfig:"E2E_PROJECT_ID"`
	// E2E_JWT_SECRET must match the secret of the targeted relay. The default
	// is only meaningful for the in-process server.
	JWTSecret string `envconfig:"E2E_JWT_SECRET" default:"e2e_secret_key_for_local_runs_only"`
	// E2E_DEBUG_JSON allows dumping full websocket envelopes as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
