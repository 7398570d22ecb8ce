package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestUpdateTracksLongestLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Update("This is a longer message")
	p.Update("Short")
	if p.max != len("This is a longer message") {
		t.Errorf("max = %d, want %d", p.max, len("This is a longer message"))
	}
}

func TestUpdateOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Update("First")
	p.Update("Second message")
	if got := buf.String(); got != "First\rSecond message\r" {
		t.Errorf("output = %q", got)
	}
}

func TestCompleteClearsAndEndsLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Update("Longer message")
	p.Complete("Short")
	out := buf.String()

	if !strings.Contains(out, "Short"+strings.Repeat(" ", len("Longer message")-len("Short"))+"\r\n") {
		t.Errorf("output = %q", out)
	}
	if p.max != 0 {
		t.Errorf("max after complete = %d, want 0", p.max)
	}
}
