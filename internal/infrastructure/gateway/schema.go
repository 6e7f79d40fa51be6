package gateway

import (
	"time"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
	"github.com/storefront-labs/storefront-client/internal/core/ports"
)

// --- Wire types ---

// detailPayload is the gateway's error envelope on all non-2xx responses.
type detailPayload struct {
	Detail string `json:"detail"`
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authPayload struct {
	Token   string      `json:"token"`
	Refresh string      `json:"refresh"`
	Message string      `json:"message"`
	User    userPayload `json:"user"`
}

type userPayload struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type productPayload struct {
	ID        int     `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	HeroImage string  `json:"heroImage"`
}

type orderItemPayload struct {
	ID       int            `json:"id"`
	Quantity int            `json:"quantity"`
	Product  productPayload `json:"product"`
}

type orderPayload struct {
	ID          int                `json:"id"`
	Slug        string             `json:"slug"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []orderItemPayload `json:"items"`
}

// --- Wire → domain ---

func toUserProfile(u userPayload) *domain.UserProfile {
	return &domain.UserProfile{ID: u.ID, Email: u.Email, Username: u.Username}
}

func toAuthResult(p authPayload) *ports.AuthResult {
	return &ports.AuthResult{
		Token:   p.Token,
		Refresh: p.Refresh,
		Message: p.Message,
		User:    *toUserProfile(p.User),
	}
}

func toOrder(p orderPayload) domain.Order {
	o := domain.Order{
		ID:          p.ID,
		Slug:        p.Slug,
		Description: p.Description,
		Status:      domain.OrderStatus(p.Status),
		CreatedAt:   p.CreatedAt,
	}
	if len(p.Items) > 0 {
		o.Items = make([]domain.OrderLineSnapshot, 0, len(p.Items))
		for _, it := range p.Items {
			o.Items = append(o.Items, domain.OrderLineSnapshot{
				ProductID: it.Product.ID,
				Title:     it.Product.Title,
				UnitPrice: it.Product.Price,
				Quantity:  it.Quantity,
				ImageRef:  it.Product.HeroImage,
			})
		}
	}
	return o
}

func toOrders(ps []orderPayload) []domain.Order {
	out := make([]domain.Order, 0, len(ps))
	for _, p := range ps {
		out = append(out, toOrder(p))
	}
	return out
}
