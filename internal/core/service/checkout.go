package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
	"github.com/storefront-labs/storefront-client/internal/core/ports"
)

var ErrEmptyCart = errors.New("cart is empty")

// Checkout turns the current cart into a placed order. It reads the session
// token, projects the cart into the gateway payload, and resets the cart only
// after the gateway confirms; a failed submit leaves the cart untouched.
type Checkout struct {
	cart    *CartStore
	gateway ports.Gateway
	session identityReader
	log     zerolog.Logger
}

func NewCheckout(cart *CartStore, gateway ports.Gateway, session identityReader, log zerolog.Logger) *Checkout {
	return &Checkout{cart: cart, gateway: gateway, session: session, log: log}
}

// PlaceOrder submits the cart. Each attempt carries a fresh idempotency key
// so a transport-level retry of the same submit cannot create a second order.
func (co *Checkout) PlaceOrder(ctx context.Context, description string) error {
	sess := co.session.Session()
	if !sess.Authenticated() {
		return domain.ErrNotAuthenticated
	}

	payload := co.cart.BuildCheckoutPayload(description)
	if len(payload.Items) == 0 {
		return ErrEmptyCart
	}

	key := uuid.NewString()
	if err := co.gateway.PlaceOrder(ctx, sess.AccessToken, payload, key); err != nil {
		co.log.Warn().Err(err).Msg("order placement failed")
		return fmt.Errorf("place order: %w", err)
	}

	co.cart.Reset()
	co.log.Info().
		Float64("total", payload.TotalPrice).
		Int("items", len(payload.Items)).
		Msg("order placed")
	return nil
}
