package domain

import "errors"

// SessionStatus represents the lifecycle state of the authenticated identity.
type SessionStatus string

const (
	// SessionBooting is the initial state while persisted tokens are being
	// restored. No authenticated call may be issued before it resolves.
	SessionBooting       SessionStatus = "booting"
	SessionAnonymous     SessionStatus = "anonymous"
	SessionAuthenticated SessionStatus = "authenticated"
	// SessionInvalid is a transient state: a persisted token was rejected by
	// the server. It settles to anonymous once storage is cleared.
	SessionInvalid SessionStatus = "invalid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAuthFailed = errors.New("authentication failed")
var ErrSessionInvalid = errors.New("session invalid")
var ErrNotAuthenticated = errors.New("not authenticated")

// UserProfile is the authenticated-user projection returned by the gateway.
type UserProfile struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// Session is an immutable snapshot of the identity state. Invariant:
// Status == SessionAuthenticated iff AccessToken != "" and User != nil.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *UserProfile
	Status       SessionStatus
}

// Authenticated reports whether the session carries a usable identity.
func (s Session) Authenticated() bool {
	return s.Status == SessionAuthenticated && s.AccessToken != "" && s.User != nil
}
