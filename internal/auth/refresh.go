package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// refreshTokenBytes is the entropy of a refresh token before encoding.
const refreshTokenBytes = 32

// ErrInvalidRefreshToken indicates a malformed refresh token.
var ErrInvalidRefreshToken = errors.New("invalid refresh token format")

// GeneratedRefreshToken contains the parts of a newly generated refresh token.
type GeneratedRefreshToken struct {
	Plaintext string // returned to the client once
	Hash      string // stored; SHA-256 hex of Plaintext
}

// GenerateRefreshToken creates a random opaque refresh token.
// Refresh tokens carry 256 bits of entropy, so a fast SHA-256 is enough for
// storage and lets the database look tokens up by hash directly.
func GenerateRefreshToken() (*GeneratedRefreshToken, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	plaintext := base64.RawURLEncoding.EncodeToString(buf)
	return &GeneratedRefreshToken{
		Plaintext: plaintext,
		Hash:      HashToken(plaintext),
	}, nil
}

// ParseRefreshToken validates the shape of a presented refresh token and
// returns its storage hash.
func ParseRefreshToken(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != refreshTokenBytes {
		return "", ErrInvalidRefreshToken
	}
	return HashToken(token), nil
}

// HashToken returns the SHA-256 hex digest of a token.
// This is NOT for password storage.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
