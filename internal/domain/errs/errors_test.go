package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusNotFound, KindNotFound},
		{http.StatusGatewayTimeout, KindAPITimeout},
		{http.StatusServiceUnavailable, KindFetch},
		{http.StatusBadRequest, KindValidation},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			if got := FromStatus("AAPL", tt.status, "x").Kind; got != tt.want {
				t.Errorf("FromStatus(%d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("chunk 3: %w", Persistence("save batch", errors.New("disk full")))

	kind, ok := KindOf(err)
	if !ok || kind != KindPersistence {
		t.Fatalf("KindOf = %s, %v", kind, ok)
	}
	if Name(err) != "PersistenceError" {
		t.Errorf("Name = %s", Name(err))
	}
	if Name(errors.New("plain")) != "*errors.errorString" {
		t.Errorf("Name(plain) = %s", Name(errors.New("plain")))
	}
}

func TestErrorMessage(t *testing.T) {
	err := FromStatus("9999.T", 404, "symbol not found")
	want := "fetch: symbol not found [9999.T] (status 404)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
