package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"brandwisp-store-sync/internal/domain"
)

// syncStoreHandler runs a manual sync of one store and returns its result
func syncStoreHandler(syncer StoreSyncer, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID := chi.URLParam(r, "storeID")

		result, err := syncer.SyncStore(r.Context(), storeID, domain.TriggerManual)
		if err != nil {
			status := syncErrorStatus(err)
			if status == http.StatusInternalServerError {
				logger.Error().Err(err).Str("storeId", storeID).Msg("Manual sync failed")
			}
			writeJSON(w, status, result)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func syncErrorStatus(err error) int {
	var (
		notConnected *domain.StoreNotConnectedError
		upstream     *domain.UpstreamAPIError
	)
	switch {
	case errors.As(err, &notConnected):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
