package ocr

import (
	"fmt"
	"strconv"
)

// Wire payloads handed to the downstream consumer
const (
	NoTextFound    = "No text found"
	PayloadError   = "error"
	PayloadTimeout = "timeout"
)

// OutcomeKind tags which case of Outcome is set
type OutcomeKind int

const (
	KindSuccess OutcomeKind = iota
	KindHTTPFailure
	KindTimeout
	KindLocalFailure
	KindTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPFailure:
		return "http_failure"
	case KindTimeout:
		return "timeout"
	case KindLocalFailure:
		return "local_failure"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// LocalReason explains a LocalFailure
type LocalReason int

const (
	ReasonMissingKey LocalReason = iota + 1
	ReasonMissingImage
)

func (r LocalReason) String() string {
	switch r {
	case ReasonMissingKey:
		return "missing_key"
	case ReasonMissingImage:
		return "missing_image"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of one pipeline run.
// Only the fields belonging to Kind are meaningful.
type Outcome struct {
	Kind       OutcomeKind
	Text       string      // KindSuccess
	StatusCode int         // KindHTTPFailure
	Reason     LocalReason // KindLocalFailure
	Message    string      // KindTransportError
}

// Success builds a successful outcome carrying the recognized text
func Success(text string) Outcome {
	return Outcome{Kind: KindSuccess, Text: text}
}

// HTTPFailure builds an outcome for a non-2xx response
func HTTPFailure(statusCode int) Outcome {
	return Outcome{Kind: KindHTTPFailure, StatusCode: statusCode}
}

// Timeout builds an outcome for a request that exceeded the call timeout
func Timeout() Outcome {
	return Outcome{Kind: KindTimeout}
}

// LocalFailure builds an outcome for a failure detected before any network call
func LocalFailure(reason LocalReason) Outcome {
	return Outcome{Kind: KindLocalFailure, Reason: reason}
}

// TransportError builds an outcome for any other transport or parsing error
func TransportError(message string) Outcome {
	return Outcome{Kind: KindTransportError, Message: message}
}

// Payload converts the outcome into the string delivered downstream
func (o Outcome) Payload() string {
	switch o.Kind {
	case KindSuccess:
		return o.Text
	case KindTimeout:
		return PayloadTimeout
	default:
		return PayloadError
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindSuccess:
		return fmt.Sprintf("success(%d chars)", len(o.Text))
	case KindHTTPFailure:
		return fmt.Sprintf("http_failure(%d)", o.StatusCode)
	case KindLocalFailure:
		return "local_failure(" + o.Reason.String() + ")"
	case KindTransportError:
		return "transport_error(" + o.Message + ")"
	default:
		return o.Kind.String()
	}
}
