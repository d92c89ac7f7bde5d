package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// RFC 7636 verifier bounds.
	pkceVerifierMinLength = 43
	pkceVerifierMaxLength = 128

	pkceVerifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

	CodeChallengeMethodS256 = "S256"
)

// GenerateCodeVerifier returns a cryptographically random PKCE verifier of
// the minimum RFC 7636 length, drawn from the unreserved alphabet.
func GenerateCodeVerifier() (string, error) {
	return generateCodeVerifier(pkceVerifierMinLength)
}

func generateCodeVerifier(length int) (string, error) {
	if length < pkceVerifierMinLength {
		length = pkceVerifierMinLength
	}
	if length > pkceVerifierMaxLength {
		length = pkceVerifierMaxLength
	}
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate code verifier: %w", err)
	}
	out := make([]byte, length)
	for i, b := range raw {
		out[i] = pkceVerifierAlphabet[int(b)%len(pkceVerifierAlphabet)]
	}
	return string(out), nil
}

// CodeChallengeS256 derives the S256 challenge: the verifier is hashed with
// SHA-256 before base64url encoding, never encoded raw.
func CodeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func generateOAuthState() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
