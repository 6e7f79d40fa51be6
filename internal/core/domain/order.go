package domain

import (
	"errors"
	"time"
)

// OrderStatus represents the lifecycle state of an order as reported by the
// server. The client never invents transitions; it only applies what arrives.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusInTransit OrderStatus = "InTransit"
	StatusCompleted OrderStatus = "Completed"
)

var ErrOrderNotFound = errors.New("order not found")
var ErrMalformedEvent = errors.New("malformed order event")

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusInTransit, StatusCompleted:
		return true
	}
	return false
}

// OrderLineSnapshot is an immutable record of one product line as it was
// placed. Price and quantity are frozen at order time.
type OrderLineSnapshot struct {
	ProductID int     `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageRef  string  `json:"hero_image,omitempty"`
}

// Order is the aggregate held by the sync engine, keyed by ID. Only Status is
// mutable after creation; everything else is replaced wholesale on refetch.
type Order struct {
	ID          int                 `json:"id"`
	Slug        string              `json:"slug"`
	Description string              `json:"description"`
	Status      OrderStatus         `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	Items       []OrderLineSnapshot `json:"items,omitempty"`
}

// OrderEvent is a status delta pushed over the stream.
type OrderEvent struct {
	OrderID int
	Status  OrderStatus
}
