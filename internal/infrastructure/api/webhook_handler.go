package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/application"
	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

// MaxWebhookBody caps the webhook body read before verification
const MaxWebhookBody = 5 << 20

const (
	headerTopic     = "X-Shopify-Topic"
	headerShop      = "X-Shopify-Shop-Domain"
	headerHmac      = "X-Shopify-Hmac-Sha256"
	headerWebhookID = "X-Shopify-Webhook-Id"
)

// webhookHandler verifies, logs and dispatches Shopify webhooks.
// Nothing runs before the signature check passes.
func webhookHandler(
	verifier WebhookVerifier,
	dispatcher *application.WebhookDispatcher,
	webhookLog ports.WebhookLogRepository,
	metrics ports.Metrics,
	logger zerolog.Logger,
) http.HandlerFunc {
	logger = logger.With().Str("component", "webhook-endpoint").Logger()
	// topics come from the request, so only handled ones become label values
	observe := func(topic string, code int) {
		if metrics == nil {
			return
		}
		if dispatcher == nil || !dispatcher.CanHandle(topic) {
			topic = "unhandled"
		}
		metrics.ObserveWebhook(topic, code)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		topic := r.Header.Get(headerTopic)
		shop := r.Header.Get(headerShop)

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
		if err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			logger.Warn().Err(err).Str("topic", topic).Msg("Failed to read webhook payload")
			observe(topic, status)
			http.Error(w, "Failed to read request body", status)
			return
		}
		defer r.Body.Close()

		if verifier == nil {
			logger.Error().Msg("Webhook secret not configured")
			observe(topic, http.StatusUnauthorized)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
		if err := verifier.Verify(payload, r.Header.Get(headerHmac)); err != nil {
			logger.Warn().Err(err).Str("topic", topic).Str("shop", shop).Msg("Webhook signature verification failed")
			observe(topic, http.StatusUnauthorized)
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		event := &domain.WebhookEvent{
			ID:         uuid.NewString(),
			Topic:      topic,
			Shop:       shop,
			WebhookID:  r.Header.Get(headerWebhookID),
			Payload:    payload,
			Verified:   true,
			ReceivedAt: time.Now(),
		}

		if !dispatcher.CanHandle(topic) {
			logger.Debug().Str("topic", topic).Str("shop", shop).Msg("Ignoring webhook topic")
			observe(topic, http.StatusOK)
			writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
			return
		}

		if webhookLog != nil {
			if err := webhookLog.LogWebhook(ctx, event); err != nil {
				// best effort
				logger.Error().Err(err).Str("topic", topic).Msg("Failed to log webhook event")
			}
		}

		if err := dispatcher.Dispatch(ctx, event); err != nil {
			logger.Error().
				Err(err).
				Str("topic", topic).
				Str("shop", shop).
				Msg("Failed to dispatch webhook event")

			// Return 500 to trigger Shopify retry
			observe(topic, http.StatusInternalServerError)
			http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
			return
		}

		observe(topic, http.StatusOK)
		writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
	}
}
