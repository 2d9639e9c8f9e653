package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/candirank/internal/app"
	"github.com/okian/candirank/internal/domain/model"
	"github.com/okian/candirank/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrUnsupported = errors.New("unsupported media type")
)

// Error codes returned in error bodies.
const (
	codeBadRequest       = "bad_request"
	codeLimitExceeded    = "limit_exceeded"
	codeNotFound         = "not_found"
	codeUnknownReference = "unknown_reference"
	codeBackpressure     = "backpressure"
	codeNotStarted       = "not_started"
	codeInternal         = "internal_error"
)

func badRequest(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, ErrBadRequest)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err)
}

// statusFor maps service errors to a status code and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalid),
		errors.Is(err, scoring.ErrInvalidWeights),
		errors.Is(err, service.ErrInvalidLimit):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, ErrUnsupported):
		return http.StatusUnsupportedMediaType, codeBadRequest
	case errors.Is(err, service.ErrUnknownReference):
		return http.StatusNotFound, codeUnknownReference
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeNotStarted
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
