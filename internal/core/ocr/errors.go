package ocr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout is wrapped by provider errors caused by the call timeout
var ErrTimeout = errors.New("ocr request timed out")

// HTTPError is returned by providers when the engine answers with a non-2xx status
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ocr provider error (status: %d): %s", e.StatusCode, e.Body)
}

// isTimeout reports whether err came from a deadline or a network timeout
func isTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Classify maps a provider error to an Outcome
func Classify(err error) Outcome {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return TransportError("nil error")
	case errors.As(err, &httpErr):
		return HTTPFailure(httpErr.StatusCode)
	case isTimeout(err):
		return Timeout()
	default:
		return TransportError(err.Error())
	}
}
