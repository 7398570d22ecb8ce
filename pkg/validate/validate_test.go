package validate

import (
	"context"
	"errors"
	"testing"
)

type sample struct {
	Name    string   `validate:"required"`
	Mode    string   `default:"fast" validate:"oneof=fast slow"`
	Workers int      `default:"4" validate:"gte=1,lte=16"`
	Symbols []string `validate:"min=1,dive,required"`
}

func TestStructAppliesDefaults(t *testing.T) {
	s := &sample{Name: "x", Symbols: []string{"AAPL"}}
	if err := Struct(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mode != "fast" || s.Workers != 4 {
		t.Fatalf("defaults not applied: %+v", s)
	}
}

func TestStructReportsFieldErrors(t *testing.T) {
	s := &sample{Mode: "warp", Workers: 99}
	err := Struct(context.Background(), s)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var ve Errors
	if !errors.As(err, &ve) {
		t.Fatalf("expected Errors, got %T", err)
	}

	codes := map[string]bool{}
	for _, fe := range ve {
		codes[fe.Code] = true
	}
	for _, want := range []string{"ERR_REQUIRED", "ERR_ONEOF", "ERR_LTE", "ERR_MIN"} {
		if !codes[want] {
			t.Errorf("missing %s in %v", want, ve)
		}
	}
}

func TestCheckSkipsDefaults(t *testing.T) {
	s := &sample{Name: "x", Symbols: []string{"AAPL"}}
	if err := Check(context.Background(), s); err == nil {
		t.Fatal("expected error: Mode and Workers are empty without defaults")
	}
	if s.Mode != "" {
		t.Errorf("Check must not fill defaults, Mode = %q", s.Mode)
	}
}
