// Package storefront assembles the client core: session manager, cart store,
// checkout, and the order sync engine, wired over the HTTP gateway, the
// websocket stream, and the persisted token store. The rendering layer on top
// holds a *Client and subscribes to change notifications; it never touches
// the adapters directly.
package storefront

import (
	"github.com/storefront-labs/storefront-client/internal/core/service"
	"github.com/storefront-labs/storefront-client/internal/infrastructure/gateway"
	"github.com/storefront-labs/storefront-client/internal/infrastructure/secrets"
	"github.com/storefront-labs/storefront-client/internal/infrastructure/stream"
	"github.com/storefront-labs/storefront-client/internal/pkg/config"
	"github.com/storefront-labs/storefront-client/pkg/logger"
)

// Client is the assembled storefront core.
type Client struct {
	Session  *service.SessionManager
	Cart     *service.CartStore
	Checkout *service.Checkout
	Orders   *service.OrderSync
}

// New builds a Client from configuration. Call logger.Init before New, or
// accept the default initialisation performed here.
func New(cfg *config.Config) (*Client, error) {
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	tokens, err := secrets.NewFileStore(cfg.TokenStorePath)
	if err != nil {
		return nil, err
	}

	gw := gateway.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, log.With().Str("component", "gateway").Logger())

	dialer, err := stream.NewDialer(cfg.APIBaseURL, cfg.StreamHost, log.With().Str("component", "stream").Logger())
	if err != nil {
		return nil, err
	}

	session := service.NewSessionManager(gw, tokens, log.With().Str("component", "session").Logger())
	cart := service.NewCartStore()
	checkout := service.NewCheckout(cart, gw, session, log.With().Str("component", "checkout").Logger())
	orders := service.NewOrderSync(gw, dialer, session, log.With().Str("component", "orders").Logger())

	return &Client{
		Session:  session,
		Cart:     cart,
		Checkout: checkout,
		Orders:   orders,
	}, nil
}

// Close releases live resources: the order stream is torn down and pending
// fetches are barred from committing.
func (c *Client) Close() {
	c.Orders.Deactivate()
}
