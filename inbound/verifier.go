package inbound

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-integrations/core"
)

// DefaultSignatureHeader carries the delivery signature as
// "sha256=<hex digest>" over the raw request body.
const DefaultSignatureHeader = "X-Webhook-Signature"

const signaturePrefix = "sha256="

// HMACVerifier checks the delivery signature against an HMAC-SHA256 digest
// keyed with the secret issued when the webhook was registered.
type HMACVerifier struct {
	Webhooks core.WebhookStore

	// SignatureHeader overrides DefaultSignatureHeader when set.
	SignatureHeader string
}

func NewHMACVerifier(webhooks core.WebhookStore) *HMACVerifier {
	return &HMACVerifier{Webhooks: webhooks}
}

func (v *HMACVerifier) Verify(ctx context.Context, delivery Delivery) error {
	if v == nil || v.Webhooks == nil {
		return ingressInternal("inbound: verifier requires a webhook store", nil)
	}
	webhook, err := v.Webhooks.Get(ctx, delivery.WebhookID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryNotFound, "inbound: resolve webhook for verification").
			WithTextCode(core.IntegrationErrorWebhookNotFound).
			WithMetadata(map[string]any{"webhook_id": delivery.WebhookID})
	}
	if strings.TrimSpace(webhook.Secret) == "" {
		return nil
	}
	signature := headerValue(delivery.Headers, v.signatureHeader())
	if signature == "" {
		return ingressBadInput("inbound: delivery signature is missing", map[string]any{
			"webhook_id": delivery.WebhookID,
			"header":     v.signatureHeader(),
		})
	}
	expected := Sign(webhook.Secret, delivery.Body)
	if !hmac.Equal([]byte(strings.TrimSpace(signature)), []byte(expected)) {
		return ingressBadInput("inbound: delivery signature mismatch", map[string]any{
			"webhook_id": delivery.WebhookID,
		})
	}
	return nil
}

func (v *HMACVerifier) signatureHeader() string {
	if v != nil && strings.TrimSpace(v.SignatureHeader) != "" {
		return strings.TrimSpace(v.SignatureHeader)
	}
	return DefaultSignatureHeader
}

// Sign computes the signature value expected for a delivery body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
