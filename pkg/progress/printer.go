package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Printer prints status lines that overwrite the previous one in a terminal.
type Printer struct {
	mu  sync.Mutex
	w   io.Writer
	max int // longest line printed so far
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Update prints message over the previous line, padding with spaces so a
// shorter line fully hides a longer one.
func (p *Printer) Update(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.update(message)
}

func (p *Printer) update(message string) {
	_, _ = fmt.Fprint(p.w, message+strings.Repeat(" ", max(0, p.max-len(message)))+"\r")
	if len(message) > p.max {
		p.max = len(message)
	}
}

// Complete prints a final message and moves to the next line.
func (p *Printer) Complete(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.update(message)
	_, _ = fmt.Fprintln(p.w)
	p.max = 0
}
