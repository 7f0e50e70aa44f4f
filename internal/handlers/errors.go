package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dannyrandall/movies/internal/movies"
)

// Kind classifies why an ingest failed.
type Kind int

const (
	KindPayload Kind = iota + 1
	KindConfig
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindPayload:
		return "payload"
	case KindConfig:
		return "config"
	case KindStore:
		return "store"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrInvalidPayload = movies.ErrInvalidPayload
	ErrMissingConfig  = errors.New("missing configuration")
	ErrStoreWrite     = errors.New("store write failed")
)

// IngestError is returned by Ingest.Handle for every failed invocation.
type IngestError struct {
	Kind Kind
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

func (e *IngestError) Is(target error) bool {
	switch target {
	case ErrInvalidPayload:
		return e.Kind == KindPayload
	case ErrMissingConfig:
		return e.Kind == KindConfig
	case ErrStoreWrite:
		return e.Kind == KindStore
	}
	return false
}

// StatusCode maps an error returned by Ingest.Handle to an HTTP status.
func StatusCode(err error) int {
	var ierr *IngestError
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	}

	switch ierr.Kind {
	case KindPayload:
		return http.StatusBadRequest
	case KindStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
