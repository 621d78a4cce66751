package domain

import (
	"context"
	"time"
)

// LoginRequestedMessage is the only response a login request ever produces
// on success, whether or not the email belongs to a member.
const LoginRequestedMessage = "If an account exists with this email, a login link has been sent."

// CheckInClaims are the decoded fields of a verified check-in credential.
type CheckInClaims struct {
	EventID   int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// CheckInTokenCodec issues and verifies signed, expiring check-in credentials
// bound to a single event.
type CheckInTokenCodec interface {
	Issue(eventID int64, ttl time.Duration) (string, error)
	Verify(token string, eventID int64) (*CheckInClaims, error)
	// ExpirationOf decodes the expiry without checking the signature. It must
	// never be used for authorization.
	ExpirationOf(token string) (time.Time, bool)
}

// SessionIssuer issues session credentials for a logged-in member.
type SessionIssuer interface {
	Issue(member *Member) (string, error)
}

// TokenVerifier verifies a session token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

// ProviderStatus reports whether the external identity provider can be used.
type ProviderStatus struct {
	Available bool
	Reason    string
}

// ProviderAvailable returns an Available status.
func ProviderAvailable() ProviderStatus { return ProviderStatus{Available: true} }

// ProviderUnavailable returns an Unavailable status with the given reason.
func ProviderUnavailable(reason string) ProviderStatus {
	return ProviderStatus{Available: false, Reason: reason}
}

// IdentityProvider is the external passwordless identity service.
type IdentityProvider interface {
	Status(ctx context.Context) ProviderStatus
	SignInLink(ctx context.Context, email, continueURL string) (string, error)
	// VerifyIDToken validates an ID token and returns the verified email.
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
}

// DevTokenRecord is what a development login token is bound to.
type DevTokenRecord struct {
	Email     string    `json:"email"`
	MemberID  int64     `json:"member_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is no longer usable at now.
func (r DevTokenRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// DevTokenStore holds single-use development login tokens.
type DevTokenStore interface {
	Put(ctx context.Context, token string, rec DevTokenRecord) error
	// Take atomically returns and removes the record. It returns ErrNotFound
	// when no record exists; callers still check Expired on the result.
	Take(ctx context.Context, token string) (*DevTokenRecord, error)
}

// VerifyLoginRequest carries either a provider ID token or a development
// token and the email it was issued to.
type VerifyLoginRequest struct {
	IDToken  string
	DevToken string
	Email    string
}

// LoginResult is the outcome of a successful login verification.
type LoginResult struct {
	Token  string  `json:"token"`
	Member *Member `json:"member"`
}

// AuthService implements passwordless magic-link login.
type AuthService interface {
	RequestLogin(ctx context.Context, email string) error
	VerifyLogin(ctx context.Context, req VerifyLoginRequest) (*LoginResult, error)
	CurrentMember(ctx context.Context, memberID int64) (*Member, error)
}
