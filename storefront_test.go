package storefront

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
	"github.com/storefront-labs/storefront-client/internal/pkg/config"
)

func TestNew_WiresComponents(t *testing.T) {
	cfg := &config.Config{
		APIBaseURL:     "http://127.0.0.1:8000/shop",
		HTTPTimeout:    time.Second,
		TokenStorePath: filepath.Join(t.TempDir(), "tokens.json"),
		Env:            "test",
		LogLevel:       "error",
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer c.Close()

	if c.Session == nil || c.Cart == nil || c.Checkout == nil || c.Orders == nil {
		t.Fatal("expected all components wired")
	}
	if got := c.Session.Session().Status; got != domain.SessionBooting {
		t.Errorf("expected booting before restore, got %s", got)
	}
	if c.Cart.ItemCount() != 0 {
		t.Errorf("expected an empty cart")
	}
}

func TestNew_RejectsUnparsableBaseURL(t *testing.T) {
	cfg := &config.Config{
		APIBaseURL:     "not-a-url",
		TokenStorePath: filepath.Join(t.TempDir(), "tokens.json"),
	}
	if _, err := New(cfg); err == nil {
		t.Error("expected error for a base url without a host")
	}
}
