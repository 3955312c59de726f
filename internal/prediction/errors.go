package prediction

import (
	"errors"
	"fmt"
)

var (
	ErrMissingConfig   = errors.New("prediction client: missing configuration")
	ErrEmptyPayload    = errors.New("prediction client: empty payload")
	ErrPayloadTooLarge = errors.New("prediction client: payload too large")
)

// PredictionError is returned for any non-2xx response from the prediction
// server.
type PredictionError struct {
	StatusCode int
	Body       string
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%d Error: %s", e.StatusCode, e.Body)
}

type PayloadTooLargeError struct {
	Size int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("input is too large: %d bytes, max allowed size is: %d bytes", e.Size, MaxPayloadBytes)
}

func (e *PayloadTooLargeError) Is(target error) bool {
	return target == ErrPayloadTooLarge
}
