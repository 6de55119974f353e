package login

import (
	"fmt"
	"io"
	"sync"
)

// Prompter shows short messages to the person at the reader.
type Prompter interface {
	Info(msg string) error
	Error(msg string) error
}

// WriterPrompter writes each message as one line to W, prefixed with the
// module name and version. pam_exec relays stdout to the PAM conversation.
type WriterPrompter struct {
	W       io.Writer
	Version string

	mu sync.Mutex
}

func (p *WriterPrompter) Info(msg string) error {
	return p.write(msg)
}

func (p *WriterPrompter) Error(msg string) error {
	return p.write(msg)
}

func (p *WriterPrompter) write(msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.W, "PAM RFID %s: %s\n", p.Version, msg)
	return err
}

type nopPrompter struct{}

func (nopPrompter) Info(string) error  { return nil }
func (nopPrompter) Error(string) error { return nil }
