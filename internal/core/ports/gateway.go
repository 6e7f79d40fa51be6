package ports

import (
	"context"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
)

// AuthResult is the gateway's response to a login or register call.
type AuthResult struct {
	Token   string
	Refresh string
	Message string
	User    domain.UserProfile
}

// CheckoutItem is one {product_id, quantity} pair in the checkout payload.
type CheckoutItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// CheckoutPayload is the client→gateway order placement body. Field names
// follow the gateway wire contract.
type CheckoutPayload struct {
	Description string         `json:"description"`
	Status      string         `json:"status"`
	TotalPrice  float64        `json:"totalPrice"`
	Items       []CheckoutItem `json:"items"`
}

// Gateway performs the storefront HTTP calls. Authenticated calls take the
// bearer token explicitly; the gateway holds no identity state of its own.
// Calls are idempotent from the client's perspective; retry policy, if any,
// belongs behind this interface.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, accessToken string) (*domain.UserProfile, error)
	ListOrders(ctx context.Context, accessToken string) ([]domain.Order, error)
	GetOrder(ctx context.Context, accessToken string, userID int, slug string) (*domain.Order, error)
	// PlaceOrder submits the checkout payload. idempotencyKey, when non-empty,
	// is sent as the Idempotency-Key header so a retried submit cannot create
	// a second order.
	PlaceOrder(ctx context.Context, accessToken string, payload CheckoutPayload, idempotencyKey string) error
}
