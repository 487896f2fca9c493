package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"brandwisp-store-sync/internal/domain"
)

// WebhookVerifier checks the X-Shopify-Hmac-Sha256 header of a webhook delivery
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Sign returns the base64 HMAC-SHA256 of payload
func (v *WebhookVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify fails with domain.ErrSignatureVerification when the secret or header is
// missing or the signature does not match the raw payload.
func (v *WebhookVerifier) Verify(payload []byte, header string) error {
	if len(v.secret) == 0 || header == "" {
		return domain.ErrSignatureVerification
	}
	if !hmac.Equal([]byte(v.Sign(payload)), []byte(header)) {
		return domain.ErrSignatureVerification
	}
	return nil
}
