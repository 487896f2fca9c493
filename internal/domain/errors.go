package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSignatureVerification = errors.New("webhook signature verification failed")
	ErrSyncInProgress        = errors.New("sync already in progress for store")
	ErrConnectionExists      = errors.New("store is already connected for this user")
	ErrUnsupportedProvider   = errors.New("unsupported provider")
	ErrInvalidOAuthState     = errors.New("invalid or expired oauth state")
)

// StoreNotConnectedError is returned when a store has no record or no access token
type StoreNotConnectedError struct {
	StoreID string
	Reason  string
}

func (e *StoreNotConnectedError) Error() string {
	return fmt.Sprintf("store %s not connected: %s", e.StoreID, e.Reason)
}

// UpstreamAPIError is a non-2xx response from the platform API
type UpstreamAPIError struct {
	StatusCode int
	Status     string
	Endpoint   string
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("upstream API %s returned %d %s", e.Endpoint, e.StatusCode, e.Status)
}

// PersistenceError wraps a failed write to the document store or the analytics sink
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err, returning nil for a nil err
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// ErrInvalidShopDomain is returned for a shop parameter that is not a *.myshopify.com domain
var ErrInvalidShopDomain = errors.New("invalid shop domain")
