package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
)

// oauthInitHandler initiates the OAuth flow
func oauthInitHandler(installer Installer, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		shop := q.Get("shop")
		userID := q.Get("user_id")
		if shop == "" || userID == "" {
			writeError(w, http.StatusBadRequest, "shop and user_id parameters are required")
			return
		}

		authURL, err := installer.BeginInstall(r.Context(), userID, shop, q.Get("return_url"))
		if err != nil {
			status := installErrorStatus(err)
			if status >= http.StatusInternalServerError {
				logger.Error().Err(err).Str("shop", shop).Msg("Failed to start OAuth install")
			}
			writeError(w, status, err.Error())
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// oauthCallbackHandler handles the OAuth callback
func oauthCallbackHandler(installer Installer, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("shop") == "" || q.Get("code") == "" || q.Get("state") == "" {
			writeError(w, http.StatusBadRequest, "missing required parameters")
			return
		}

		result, err := installer.CompleteInstall(r.Context(), q)
		if err != nil {
			status := installErrorStatus(err)
			logger.Error().Err(err).Str("shop", q.Get("shop")).Int("status", status).Msg("Failed to complete OAuth install")
			writeError(w, status, err.Error())
			return
		}

		if result.ReturnURL == "" {
			writeJSON(w, http.StatusOK, result.Connection)
			return
		}

		redirectURL, err := url.Parse(result.ReturnURL)
		if err != nil {
			writeJSON(w, http.StatusOK, result.Connection)
			return
		}
		params := redirectURL.Query()
		params.Set("shopify_oauth", "success")
		params.Set("shop", result.Connection.StoreDomain)
		params.Set("store_id", result.Connection.ID)
		redirectURL.RawQuery = params.Encode()

		http.Redirect(w, r, redirectURL.String(), http.StatusFound)
	}
}

func installErrorStatus(err error) int {
	var upstream *domain.UpstreamAPIError
	switch {
	case errors.Is(err, domain.ErrSignatureVerification):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidShopDomain), errors.Is(err, domain.ErrInvalidOAuthState):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConnectionExists):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
