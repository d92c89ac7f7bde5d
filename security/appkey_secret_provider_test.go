package security

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestAppKeySecretProvider_EncryptDecryptRoundTrip(t *testing.T) {
	provider, err := NewAppKeySecretProviderFromString("super-secret-test-key", WithKeyID("integrations-v1"), WithVersion(3))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	plaintext := []byte("token-value-123")
	encrypted, err := provider.Encrypt(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Equal(encrypted, plaintext) {
		t.Fatalf("expected encrypted payload to differ from plaintext")
	}
	if !bytes.HasPrefix(encrypted, []byte(envelopePrefix)) {
		t.Fatalf("expected envelope prefix")
	}

	meta, err := ParseEnvelopeMetadata(encrypted, false)
	if err != nil {
		t.Fatalf("parse envelope metadata: %v", err)
	}
	if meta.KeyID != "integrations-v1" || meta.Version != 3 || meta.Algorithm != envelopeAlgorithm {
		t.Fatalf("unexpected envelope metadata %+v", meta)
	}

	decrypted, err := provider.Decrypt(context.Background(), encrypted)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("expected roundtrip plaintext; got %q", string(decrypted))
	}
}

func TestAppKeySecretProvider_RejectsMetadataMismatch(t *testing.T) {
	issuer, err := NewAppKeySecretProviderFromString("super-secret-test-key", WithKeyID("integrations-v1"), WithVersion(1))
	if err != nil {
		t.Fatalf("new issuer provider: %v", err)
	}
	receiver, err := NewAppKeySecretProviderFromString("super-secret-test-key", WithKeyID("integrations-v2"), WithVersion(2))
	if err != nil {
		t.Fatalf("new receiver provider: %v", err)
	}

	encrypted, err := issuer.Encrypt(context.Background(), []byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := receiver.Decrypt(context.Background(), encrypted); err == nil {
		t.Fatalf("expected metadata mismatch error")
	}
}

func TestAppKeySecretProvider_RotationWindow(t *testing.T) {
	expired := KeyRotationWindow{
		NotAfter: time.Now().UTC().Add(-time.Hour),
	}
	provider, err := NewAppKeySecretProviderFromString("retired-key", WithRotationWindow(expired))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := provider.Encrypt(context.Background(), []byte("payload")); err == nil {
		t.Fatalf("expected encrypt outside the rotation window to fail")
	}
}

func TestFailoverSecretProvider_FallbackDecryptsOldKey(t *testing.T) {
	ctx := context.Background()
	oldKey, err := NewAppKeySecretProviderFromString("old-key", WithKeyID("k-old"), WithVersion(1))
	if err != nil {
		t.Fatalf("old key: %v", err)
	}
	newKey, err := NewAppKeySecretProviderFromString("new-key", WithKeyID("k-new"), WithVersion(2))
	if err != nil {
		t.Fatalf("new key: %v", err)
	}

	legacy, err := oldKey.Encrypt(ctx, []byte("legacy-token"))
	if err != nil {
		t.Fatalf("encrypt legacy: %v", err)
	}

	failover, err := NewFailoverSecretProvider(newKey,
		WithFallbackSecretProvider(oldKey),
		WithFailurePolicy(FailurePolicyFallback),
	)
	if err != nil {
		t.Fatalf("new failover: %v", err)
	}

	plaintext, err := failover.Decrypt(ctx, legacy)
	if err != nil {
		t.Fatalf("decrypt via fallback: %v", err)
	}
	if string(plaintext) != "legacy-token" {
		t.Fatalf("unexpected plaintext %q", plaintext)
	}

	fresh, err := failover.Encrypt(ctx, []byte("fresh-token"))
	if err != nil {
		t.Fatalf("encrypt via primary: %v", err)
	}
	if got, err := newKey.Decrypt(ctx, fresh); err != nil || string(got) != "fresh-token" {
		t.Fatalf("primary key must issue new ciphertext: %q err %v", got, err)
	}
	if keyID, version := failover.Metadata(); keyID != "k-new" || version != 2 {
		t.Fatalf("expected primary metadata, got %s:%d", keyID, version)
	}
}

func TestFailoverSecretProvider_StrictPolicyStops(t *testing.T) {
	ctx := context.Background()
	oldKey, err := NewAppKeySecretProviderFromString("old-key", WithKeyID("k-old"), WithVersion(1))
	if err != nil {
		t.Fatalf("old key: %v", err)
	}
	newKey, err := NewAppKeySecretProviderFromString("new-key", WithKeyID("k-new"), WithVersion(2))
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	legacy, err := oldKey.Encrypt(ctx, []byte("legacy-token"))
	if err != nil {
		t.Fatalf("encrypt legacy: %v", err)
	}

	strict, err := NewFailoverSecretProvider(newKey, WithFallbackSecretProvider(oldKey))
	if err != nil {
		t.Fatalf("new failover: %v", err)
	}
	if _, err := strict.Decrypt(ctx, legacy); err == nil {
		t.Fatalf("strict policy must not fall back")
	}
}
