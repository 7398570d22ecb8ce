package util

import (
	"reflect"
	"testing"
)

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 7); got != 7 {
		t.Errorf("empty = %d", got)
	}
	if got := ParseIntDefault("x", 7); got != 7 {
		t.Errorf("invalid = %d", got)
	}
	if got := ParseIntDefault("42", 7); got != 42 {
		t.Errorf("valid = %d", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" 7203.T, ,6758.T,AAPL ")
	want := []string{"7203.T", "6758.T", "AAPL"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
	if SplitList("") != nil {
		t.Error("empty input should give nil")
	}
}
