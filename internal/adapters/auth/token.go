package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"flockmanager/internal/domain"
)

// DefaultSessionTTL is used when NewSessionTokenIssuer gets a non-positive expiry.
const DefaultSessionTTL = 24 * time.Hour

var errInvalidSession = errors.New("invalid or expired session token")

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// SessionTokenIssuer signs member session tokens with HS256. Every token
// carries a random jti, so two logins never share a credential.
type SessionTokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewSessionTokenIssuer returns an issuer that also verifies its own tokens.
func NewSessionTokenIssuer(secret []byte, expiry time.Duration) *SessionTokenIssuer {
	if expiry <= 0 {
		expiry = DefaultSessionTTL
	}
	return &SessionTokenIssuer{secret: secret, expiry: expiry, now: time.Now}
}

func (i *SessionTokenIssuer) Issue(member *domain.Member) (string, error) {
	if member == nil {
		return "", errors.New("member is nil")
	}
	now := i.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(member.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			ID:        uuid.NewString(),
		},
		Email: member.Email,
		Role:  member.RoleName,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify implements domain.TokenVerifier. The subject is the member id.
func (i *SessionTokenIssuer) Verify(token string) (string, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || claims.Subject == "" {
		return "", errInvalidSession
	}
	return claims.Subject, nil
}
