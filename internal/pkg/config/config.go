package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// APIBaseURL is the gateway root all REST calls are issued against. The
	// stream host is derived from it unless StreamHost overrides it, so one
	// setting covers emulator, device, and LAN configurations.
	APIBaseURL  string        `env:"API_BASE_URL, default=http://127.0.0.1:8000/shop"`
	StreamHost  string        `env:"STREAM_HOST"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT, default=15s"`

	// TokenStorePath is where session tokens persist across restarts.
	// Defaults to <user config dir>/storefront/tokens.json.
	TokenStorePath string `env:"TOKEN_STORE_PATH"`

	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.TokenStorePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve token store path: %w", err)
		}
		cfg.TokenStorePath = filepath.Join(dir, "storefront", "tokens.json")
	}
	return &cfg, nil
}
