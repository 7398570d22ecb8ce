package usecase

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/errs"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

// Classifier maps an error onto TRANSIENT, PERMANENT or FATAL.
//
// Order: explicit domain kind, then known transport errors, then a short list
// of message substrings. Anything else is PERMANENT.
type Classifier struct{}

var kindClass = map[errs.Kind]models.Classification{
	errs.KindFetch:             models.Transient,
	errs.KindAPITimeout:        models.Transient,
	errs.KindRateLimit:         models.Transient,
	errs.KindValidation:        models.Permanent,
	errs.KindAuth:              models.Permanent,
	errs.KindNotFound:          models.Permanent,
	errs.KindNoData:            models.Permanent,
	errs.KindConversion:        models.Permanent,
	errs.KindPersistence:       models.Fatal,
	errs.KindSystem:            models.Fatal,
	errs.KindResourceExhausted: models.Fatal,
}

var transientStatus = map[int]bool{408: true, 429: true, 500: true, 502: true, 503: true, 504: true}

var permanentStatus = map[int]bool{400: true, 401: true, 403: true, 404: true, 422: true}

var transientSubstrings = []string{"timeout", "connection", "rate limit"}

type statusCoder interface {
	StatusCode() int
}

func (Classifier) Classify(err error) models.Classification {
	if err == nil {
		return models.Permanent
	}

	var de *errs.Error
	if errors.As(err, &de) {
		if de.Kind == errs.KindFetch && (de.Code == 401 || de.Code == 403 || de.Code == 404) {
			return models.Permanent
		}
		if c, ok := kindClass[de.Kind]; ok {
			return c
		}
	}

	if c, ok := classifyTransport(err); ok {
		return c
	}

	msg := strings.ToLower(err.Error())
	for _, s := range transientSubstrings {
		if strings.Contains(msg, s) {
			return models.Transient
		}
	}
	return models.Permanent
}

func classifyTransport(err error) (models.Classification, bool) {
	switch {
	case errors.Is(err, syscall.ENOMEM), errors.Is(err, syscall.ENOSPC):
		return models.Fatal, true
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return models.Transient, true
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return models.Transient, true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return models.Transient, true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.Transient, true
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch code := sc.StatusCode(); {
		case transientStatus[code]:
			return models.Transient, true
		case permanentStatus[code]:
			return models.Permanent, true
		}
	}
	return "", false
}
