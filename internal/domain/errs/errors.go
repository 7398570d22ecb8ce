package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags a domain error. Retry behavior is decided from the kind, so every
// error the pipeline raises itself should carry one.
type Kind string

const (
	KindFetch             Kind = "fetch"
	KindAPITimeout        Kind = "api_timeout"
	KindRateLimit         Kind = "rate_limit"
	KindValidation        Kind = "validation"
	KindAuth              Kind = "auth"
	KindNotFound          Kind = "not_found"
	KindNoData            Kind = "no_data"
	KindConversion        Kind = "conversion"
	KindPersistence       Kind = "persistence"
	KindSystem            Kind = "system"
	KindResourceExhausted Kind = "resource_exhausted"
)

// Error is the pipeline's domain error.
type Error struct {
	Kind    Kind
	Op      string
	Symbol  string
	Code    int // HTTP status from the provider, 0 when not applicable
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Symbol != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Symbol)
	}
	if e.Code > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode exposes the provider status for transport-level matching.
func (e *Error) StatusCode() int {
	return e.Code
}

// Name is the short type name used in error logs, e.g. "FetchError".
func (e *Error) Name() string {
	switch e.Kind {
	case KindFetch, KindAPITimeout, KindRateLimit, KindAuth, KindNotFound, KindNoData:
		return "FetchError"
	case KindConversion:
		return "ConversionError"
	case KindValidation:
		return "ValidationError"
	case KindPersistence:
		return "PersistenceError"
	default:
		return "SystemError"
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Name returns the log name of err: the domain name for *Error, the Go type otherwise.
func Name(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Name()
	}
	return fmt.Sprintf("%T", err)
}

// Fetch wraps a provider failure.
func Fetch(symbol, message string, cause error) *Error {
	return &Error{Kind: KindFetch, Op: "fetch", Symbol: symbol, Message: message, Err: cause}
}

// NoData reports an empty provider response.
func NoData(symbol string) *Error {
	return &Error{Kind: KindFetch, Op: "fetch", Symbol: symbol, Message: "no data returned"}
}

// Missing reports a symbol the provider left out of a batch response.
func Missing(symbol string) *Error {
	return &Error{Kind: KindNoData, Op: "split", Symbol: symbol, Message: "no data returned for symbol"}
}

// FromStatus maps a non-2xx provider status onto a kind.
func FromStatus(symbol string, status int, message string) *Error {
	e := &Error{Op: "fetch", Symbol: symbol, Code: status, Message: message}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		e.Kind = KindAPITimeout
	case status >= 500:
		e.Kind = KindFetch
	default:
		e.Kind = KindValidation
	}
	return e
}

// Conversion reports rows that could not be turned into records.
func Conversion(symbol, message string) *Error {
	return &Error{Kind: KindConversion, Op: "convert", Symbol: symbol, Message: message}
}

// Persistence wraps a store failure.
func Persistence(op string, cause error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Message: "store write failed", Err: cause}
}

// System wraps unexpected failures, including recovered panics.
func System(message string, cause error) *Error {
	return &Error{Kind: KindSystem, Op: "system", Message: message, Err: cause}
}

// Validation reports a malformed request.
func Validation(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Op: "validate", Message: message, Err: cause}
}
