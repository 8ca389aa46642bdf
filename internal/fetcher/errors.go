package fetcher

import (
	"errors"
	"fmt"
)

// NetworkError reports a transport failure or a non-2xx response.
type NetworkError struct {
	Base       string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rate provider (%s): status %d: %v", e.Base, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("rate provider (%s): %v", e.Base, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that could not be interpreted.
type DecodeError struct {
	Base string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rate provider (%s): decode: %v", e.Base, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}
