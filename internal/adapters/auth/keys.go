package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key purposes. Each purpose gets an independent key so a session token can
// never be replayed as a check-in credential or the other way around.
const (
	PurposeCheckInToken = "flockmanager/checkin-token/v1"
	PurposeSessionToken = "flockmanager/session-token/v1"
)

const derivedKeyLen = 32

// DeriveKey expands the application secret into a 256-bit key for purpose
// using HKDF-SHA256.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("secret is empty")
	}
	key := make([]byte, derivedKeyLen)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}
