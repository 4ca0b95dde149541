package auth

import (
	"strings"
	"testing"
)

func TestGenerateRefreshToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	// 32 bytes, unpadded base64url
	if len(token.Plaintext) != 43 {
		t.Errorf("Plaintext length = %d, want 43", len(token.Plaintext))
	}
	if strings.ContainsAny(token.Plaintext, "+/=") {
		t.Errorf("Plaintext should be URL-safe, got %q", token.Plaintext)
	}
	if token.Hash != HashToken(token.Plaintext) {
		t.Error("Hash should be the SHA-256 of the plaintext")
	}
	if len(token.Hash) != 64 {
		t.Errorf("Hash length = %d, want 64", len(token.Hash))
	}
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateRefreshToken()
		if err != nil {
			t.Fatalf("GenerateRefreshToken failed: %v", err)
		}
		if seen[token.Plaintext] {
			t.Fatalf("duplicate refresh token generated: %s", token.Plaintext)
		}
		seen[token.Plaintext] = true
	}
}

func TestParseRefreshToken(t *testing.T) {
	t.Parallel()

	valid, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	tests := []struct {
		name     string
		token    string
		wantHash string
		wantErr  error
	}{
		{"valid", valid.Plaintext, valid.Hash, nil},
		{"empty", "", "", ErrInvalidRefreshToken},
		{"not base64", "not a token!", "", ErrInvalidRefreshToken},
		{"too short", "c2hvcnQ", "", ErrInvalidRefreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash, err := ParseRefreshToken(tt.token)
			if err != tt.wantErr {
				t.Fatalf("ParseRefreshToken error = %v, want %v", err, tt.wantErr)
			}
			if hash != tt.wantHash {
				t.Errorf("ParseRefreshToken hash = %q, want %q", hash, tt.wantHash)
			}
		})
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	t.Parallel()

	if HashToken("abc") != HashToken("abc") {
		t.Error("Same input should produce same hash")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("Different input should produce different hash")
	}
}
