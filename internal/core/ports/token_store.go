package ports

import "context"

// Token storage keys. Values are raw token strings, no encoding.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// TokenStore is the persisted key-value store for session tokens. It must
// survive process restarts. A missing key is not an error: Get returns
// ("", nil). Implementations are the platform secure store or a file-backed
// stand-in; callers treat failures as best-effort (logged, never blocking a
// session state transition).
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
