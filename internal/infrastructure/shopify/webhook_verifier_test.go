package shopify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandwisp-store-sync/internal/domain"
)

func TestWebhookVerifierReferenceValue(t *testing.T) {
	v := NewWebhookVerifier("Jefe")
	payload := []byte("what do ya want for nothing?")

	assert.Equal(t, "W9zBRr9gdU5qBCQmCJV1x1oAPwidJzmDnexYuWTsOEM=", v.Sign(payload))
	require.NoError(t, v.Verify(payload, "W9zBRr9gdU5qBCQmCJV1x1oAPwidJzmDnexYuWTsOEM="))
}

func TestWebhookVerifierSingleBitMutation(t *testing.T) {
	v := NewWebhookVerifier("shpss_test")
	payload := []byte(`{"id":111,"title":"Tee"}`)
	sig := v.Sign(payload)

	for i := range payload {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), payload...)
			mutated[i] ^= 1 << bit
			assert.ErrorIs(t, v.Verify(mutated, sig), domain.ErrSignatureVerification)
		}
	}
}

func TestWebhookVerifierRejectsMissingInputs(t *testing.T) {
	payload := []byte(`{}`)
	assert.ErrorIs(t, NewWebhookVerifier("").Verify(payload, NewWebhookVerifier("").Sign(payload)), domain.ErrSignatureVerification)
	assert.ErrorIs(t, NewWebhookVerifier("s").Verify(payload, ""), domain.ErrSignatureVerification)
}
