package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flockmanager/internal/domain"
)

// DefaultCheckInTokenTTL is used when Issue is called with a zero ttl.
const DefaultCheckInTokenTTL = 24 * time.Hour

type checkInClaims struct {
	jwt.RegisteredClaims
	EventID int64 `json:"event_id"`
}

// CheckInTokenCodec implements domain.CheckInTokenCodec with compact HS256
// JWS strings. The three base64url segments are safe to embed in a query
// parameter.
type CheckInTokenCodec struct {
	key        []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewCheckInTokenCodec returns a codec signing with key. A non-positive
// defaultTTL falls back to DefaultCheckInTokenTTL.
func NewCheckInTokenCodec(key []byte, defaultTTL time.Duration) *CheckInTokenCodec {
	if defaultTTL <= 0 {
		defaultTTL = DefaultCheckInTokenTTL
	}
	return &CheckInTokenCodec{key: key, defaultTTL: defaultTTL, now: time.Now}
}

func (c *CheckInTokenCodec) Issue(eventID int64, ttl time.Duration) (string, error) {
	if eventID <= 0 {
		return "", domain.NewValidationError("invalid event id %d", eventID)
	}
	if ttl < 0 {
		return "", domain.NewValidationError("token lifetime must be positive")
	}
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	now := c.now()
	claims := checkInClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		EventID: eventID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign check-in token: %w", err)
	}
	return signed, nil
}

// Verify checks format, then signature, then expiry, then the event binding.
// The HMAC comparison inside jwt is constant time.
func (c *CheckInTokenCodec) Verify(token string, eventID int64) (*domain.CheckInClaims, error) {
	claims := &checkInClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domain.ErrTokenSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		default:
			return nil, domain.ErrTokenMalformed
		}
	}
	if claims.EventID != eventID {
		return nil, domain.ErrTokenWrongEvent
	}
	out := &domain.CheckInClaims{
		EventID:   claims.EventID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func (c *CheckInTokenCodec) ExpirationOf(token string) (time.Time, bool) {
	claims := &checkInClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
