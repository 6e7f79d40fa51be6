package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
)

func newCheckout(gw *stubGateway, cart *CartStore, id *fakeIdentity) *Checkout {
	return NewCheckout(cart, gw, id, zerolog.Nop())
}

func TestCheckout_PlaceOrder(t *testing.T) {
	gw := &stubGateway{}
	cart := NewCartStore()
	cart.AddItem(line(7, 2, 5, 10.00))

	co := newCheckout(gw, cart, authedIdentity(7))
	if err := co.PlaceOrder(context.Background(), "Mobile order"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gw.placed) != 1 {
		t.Fatalf("expected one order placed, got %d", len(gw.placed))
	}
	got := gw.placed[0]
	if got.TotalPrice != 20.00 || got.Status != "Pending" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].ProductID != 7 || got.Items[0].Quantity != 2 {
		t.Errorf("unexpected items: %v", got.Items)
	}
	if gw.placedKeys[0] == "" {
		t.Error("expected an idempotency key on the submit")
	}
	if cart.ItemCount() != 0 {
		t.Errorf("expected cart reset after confirmed checkout, got %d items", cart.ItemCount())
	}
}

func TestCheckout_Failure_KeepsCart(t *testing.T) {
	gw := &stubGateway{placeErr: errors.New("gateway timeout")}
	cart := NewCartStore()
	cart.AddItem(line(7, 2, 5, 10.00))

	co := newCheckout(gw, cart, authedIdentity(7))
	if err := co.PlaceOrder(context.Background(), "Mobile order"); err == nil {
		t.Fatal("expected an error")
	}
	if cart.ItemCount() != 2 {
		t.Errorf("failed checkout must not clear the cart, got %d items", cart.ItemCount())
	}
}

func TestCheckout_RequiresAuthentication(t *testing.T) {
	gw := &stubGateway{}
	cart := NewCartStore()
	cart.AddItem(line(7, 2, 5, 10.00))

	co := newCheckout(gw, cart, &fakeIdentity{sess: domain.Session{Status: domain.SessionAnonymous}})
	if err := co.PlaceOrder(context.Background(), "Mobile order"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	if len(gw.placed) != 0 {
		t.Error("no order may reach the gateway without a session")
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	gw := &stubGateway{}
	co := newCheckout(gw, NewCartStore(), authedIdentity(7))

	if err := co.PlaceOrder(context.Background(), "Mobile order"); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_FreshIdempotencyKeyPerAttempt(t *testing.T) {
	gw := &stubGateway{}
	cart := NewCartStore()
	co := newCheckout(gw, cart, authedIdentity(7))

	cart.AddItem(line(7, 2, 5, 10.00))
	if err := co.PlaceOrder(context.Background(), "first"); err != nil {
		t.Fatalf("first order: %v", err)
	}
	cart.AddItem(line(8, 1, 5, 5.00))
	if err := co.PlaceOrder(context.Background(), "second"); err != nil {
		t.Fatalf("second order: %v", err)
	}

	if gw.placedKeys[0] == gw.placedKeys[1] {
		t.Error("expected distinct idempotency keys per submit")
	}
}
