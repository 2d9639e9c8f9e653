package service

import (
	"errors"

	"github.com/okian/candirank/internal/adapters/repository"
)

// Sentinel kinds for service errors. Validation failures wrap
// model.ErrInvalid or scoring.ErrInvalidWeights instead.
var (
	ErrNotFound         = repository.ErrNotFound
	ErrInvalidLimit     = repository.ErrInvalidLimit
	ErrUnknownReference = errors.New("unknown reference")
	ErrBackpressure     = errors.New("evaluation queue is full")
	ErrNotStarted       = errors.New("service not started")
)
