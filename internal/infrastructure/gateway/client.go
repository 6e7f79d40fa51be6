// Package gateway is the HTTP adapter for the storefront API. It maps the
// wire contract (JSON bodies, a {detail} error envelope) onto domain types
// and sentinel errors; it holds no identity state of its own.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
	"github.com/storefront-labs/storefront-client/internal/core/ports"
)

const defaultTimeout = 15 * time.Second

// apiError carries a non-2xx response: the HTTP status and the server's
// detail message, which may be empty.
type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string {
	if e.detail == "" {
		return fmt.Sprintf("gateway returned status %d", e.status)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.status, e.detail)
}

// Client implements ports.Gateway over plain HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// BaseURL returns the configured gateway root, used to derive the stream host.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	var res authPayload
	err := c.do(ctx, http.MethodPost, "/login-user/", "", nil, credentialsPayload{Email: email, Password: password}, &res)
	if err != nil {
		return nil, authError("login", err)
	}
	return toAuthResult(res), nil
}

func (c *Client) Register(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	var res authPayload
	err := c.do(ctx, http.MethodPost, "/register-user/", "", nil, credentialsPayload{Email: email, Password: password}, &res)
	if err != nil {
		return nil, authError("register", err)
	}
	return toAuthResult(res), nil
}

func (c *Client) Profile(ctx context.Context, accessToken string) (*domain.UserProfile, error) {
	var res userPayload
	err := c.do(ctx, http.MethodGet, "/profile/", accessToken, nil, nil, &res)
	if err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			// Any rejection of the stored token invalidates the session.
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionInvalid, ae.detail)
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	return toUserProfile(res), nil
}

func (c *Client) ListOrders(ctx context.Context, accessToken string) ([]domain.Order, error) {
	var res []orderPayload
	if err := c.do(ctx, http.MethodGet, "/orders/", accessToken, nil, nil, &res); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return toOrders(res), nil
}

func (c *Client) GetOrder(ctx context.Context, accessToken string, userID int, slug string) (*domain.Order, error) {
	var res orderPayload
	path := "/orders/" + strconv.Itoa(userID) + "/" + slug
	err := c.do(ctx, http.MethodGet, path, accessToken, nil, nil, &res)
	if err != nil {
		var ae *apiError
		if errors.As(err, &ae) && ae.status == http.StatusNotFound {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	order := toOrder(res)
	return &order, nil
}

func (c *Client) PlaceOrder(ctx context.Context, accessToken string, payload ports.CheckoutPayload, idempotencyKey string) error {
	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set("Idempotency-Key", idempotencyKey)
	}
	if err := c.do(ctx, http.MethodPost, "/place-order/", accessToken, headers, payload, nil); err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	return nil
}

// authError maps a login/register rejection to ErrAuthFailed carrying the
// server-provided message, or passes transport errors through wrapped.
func authError(op string, err error) error {
	var ae *apiError
	if errors.As(err, &ae) {
		if ae.detail == "" {
			return domain.ErrAuthFailed
		}
		return fmt.Errorf("%w: %s", domain.ErrAuthFailed, ae.detail)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// do issues one JSON request. token, headers, body, and out are all optional.
// Non-2xx responses decode the {detail} envelope and come back as *apiError.
func (c *Client) do(ctx context.Context, method, path, token string, headers http.Header, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var d detailPayload
		_ = json.NewDecoder(resp.Body).Decode(&d)
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Str("detail", d.Detail).Msg("gateway rejected request")
		return &apiError{status: resp.StatusCode, detail: d.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
