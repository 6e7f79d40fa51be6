package ports

import (
	"context"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
)

// StreamConn is one live order-event connection scoped to a single user.
type StreamConn interface {
	// Next blocks until the next well-formed event arrives. Malformed frames
	// are dropped inside the adapter, never surfaced here. Next returns an
	// error once the connection is closed, locally or by the peer.
	Next() (domain.OrderEvent, error)
	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// StreamDialer opens the push stream for a user's order status updates.
type StreamDialer interface {
	Dial(ctx context.Context, userID int) (StreamConn, error)
}
