package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
	"github.com/storefront-labs/storefront-client/internal/core/ports"
	"github.com/storefront-labs/storefront-client/internal/telemetry"
)

// credentials is validated locally before any network call is made.
type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// SessionManager owns the identity lifecycle: token acquisition, persistence,
// restoration, and invalidation. It is the single writer of session state;
// every other component only reads the token it produces.
type SessionManager struct {
	gateway  ports.Gateway
	tokens   ports.TokenStore
	validate *validator.Validate
	log      zerolog.Logger

	mu      sync.RWMutex
	session domain.Session
	subs    map[int]func(domain.Session)
	nextSub int
}

func NewSessionManager(gateway ports.Gateway, tokens ports.TokenStore, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		gateway:  gateway,
		tokens:   tokens,
		validate: validator.New(),
		log:      log,
		session:  domain.Session{Status: domain.SessionBooting},
		subs:     make(map[int]func(domain.Session)),
	}
}

// Session returns a snapshot of the current identity state.
func (m *SessionManager) Session() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// AccessToken returns the current bearer token, or "" when anonymous.
func (m *SessionManager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.AccessToken
}

// OnChange registers fn to be called after every session transition. The
// returned function unsubscribes.
func (m *SessionManager) OnChange(fn func(domain.Session)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Restore rebuilds the session from persisted tokens. With no stored token it
// settles on anonymous without touching the network. With one, it adopts the
// tokens and verifies them against the profile endpoint; rejection clears
// persisted storage and demotes to anonymous. The observable state is booting
// until Restore settles.
func (m *SessionManager) Restore(ctx context.Context) domain.Session {
	access, err := m.tokens.Get(ctx, ports.KeyAccessToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("token store read failed")
	}
	if access == "" {
		m.setSession(domain.Session{Status: domain.SessionAnonymous})
		return m.Session()
	}

	refresh, err := m.tokens.Get(ctx, ports.KeyRefreshToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("token store read failed")
	}

	if expired, known := tokenExpired(access, time.Now()); known && expired {
		m.log.Info().Msg("stored access token already expired")
		m.invalidate(ctx)
		return m.Session()
	}

	// Adopt the stored tokens optimistically while the profile check runs.
	m.setSession(domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		Status:       domain.SessionBooting,
	})

	user, err := m.gateway.Profile(ctx, access)
	if err != nil {
		m.log.Info().Err(err).Msg("stored token rejected by profile check")
		m.invalidate(ctx)
		return m.Session()
	}

	m.setSession(domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
		Status:       domain.SessionAuthenticated,
	})
	m.log.Info().Int("user_id", user.ID).Msg("session restored")
	return m.Session()
}

// SignIn authenticates existing credentials. On success both tokens are
// persisted and the session becomes authenticated; on failure state is left
// untouched. The returned message is the server's notification text.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (string, error) {
	return m.authenticate(ctx, email, password, m.gateway.Login)
}

// SignUp registers a new account. Same contract as SignIn.
func (m *SessionManager) SignUp(ctx context.Context, email, password string) (string, error) {
	return m.authenticate(ctx, email, password, m.gateway.Register)
}

// SignOut clears persisted tokens and the in-memory identity unconditionally.
// Storage failures are logged and never block the transition.
func (m *SessionManager) SignOut(ctx context.Context) {
	m.clearTokens(ctx)
	m.setSession(domain.Session{Status: domain.SessionAnonymous})
	m.log.Info().Msg("signed out")
}

func (m *SessionManager) authenticate(
	ctx context.Context,
	email, password string,
	call func(context.Context, string, string) (*ports.AuthResult, error),
) (string, error) {
	if err := m.validateCredentials(email, password); err != nil {
		return "", err
	}

	res, err := call(ctx, email, password)
	if err != nil {
		telemetry.SignInsTotal.WithLabelValues("failure").Inc()
		m.log.Info().Err(err).Msg("authentication rejected")
		return "", err
	}

	m.persistTokens(ctx, res.Token, res.Refresh)
	user := res.User
	m.setSession(domain.Session{
		AccessToken:  res.Token,
		RefreshToken: res.Refresh,
		User:         &user,
		Status:       domain.SessionAuthenticated,
	})
	telemetry.SignInsTotal.WithLabelValues("success").Inc()
	m.log.Info().Int("user_id", user.ID).Msg("authenticated")
	return res.Message, nil
}

func (m *SessionManager) validateCredentials(email, password string) error {
	err := m.validate.Struct(credentials{Email: email, Password: password})
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldError(fe))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// invalidate handles a rejected stored token: the session passes through the
// invalid state, persisted tokens are cleared best-effort, and the state
// settles on anonymous.
func (m *SessionManager) invalidate(ctx context.Context) {
	m.setSession(domain.Session{Status: domain.SessionInvalid})
	m.clearTokens(ctx)
	m.setSession(domain.Session{Status: domain.SessionAnonymous})
}

func (m *SessionManager) persistTokens(ctx context.Context, access, refresh string) {
	if err := m.tokens.Set(ctx, ports.KeyAccessToken, access); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist access token")
	}
	if err := m.tokens.Set(ctx, ports.KeyRefreshToken, refresh); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist refresh token")
	}
}

func (m *SessionManager) clearTokens(ctx context.Context) {
	if err := m.tokens.Delete(ctx, ports.KeyAccessToken); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear access token")
	}
	if err := m.tokens.Delete(ctx, ports.KeyRefreshToken); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear refresh token")
	}
}

func (m *SessionManager) setSession(s domain.Session) {
	m.mu.Lock()
	m.session = s
	subs := make([]func(domain.Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// tokenExpired inspects the unverified exp claim of a stored access token.
// known is false when the token is not a JWT or carries no exp claim, in
// which case the profile fetch decides. Signature verification is the
// server's job; the client only avoids a round-trip that cannot succeed.
func tokenExpired(token string, now time.Time) (expired, known bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, false
	}
	return exp.Before(now), true
}
