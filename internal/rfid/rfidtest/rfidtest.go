// Package rfidtest provides scripted byte sources and frame helpers for
// exercising the rfid decoder without a reader attached.
package rfidtest

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/pamrfid/internal/rfid"
)

// ErrTimeout is what Source returns for a scripted timeout step.
var ErrTimeout = fmt.Errorf("rfidtest: %w", rfid.ErrTransportTimeout)

type step struct {
	b   byte
	err error
}

// Source replays a fixed script of bytes and errors. Once the script is
// exhausted it returns io.EOF.
type Source struct {
	mu     sync.Mutex
	steps  []step
	reads  int
	closed bool

	// OnRead, when set, runs before every NextByte call with the number of
	// calls made so far.
	OnRead func(n int)
}

func Bytes(b ...byte) *Source {
	return (&Source{}).Then(b...)
}

// Then appends bytes to the script.
func (s *Source) Then(b ...byte) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range b {
		s.steps = append(s.steps, step{b: v})
	}
	return s
}

func (s *Source) ThenTimeout() *Source {
	return s.ThenError(ErrTimeout)
}

func (s *Source) ThenError(err error) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step{err: err})
	return s
}

func (s *Source) NextByte(time.Duration) (byte, error) {
	s.mu.Lock()
	hook := s.OnRead
	n := s.reads
	s.reads++
	var st step
	exhausted := len(s.steps) == 0
	if !exhausted {
		st = s.steps[0]
		s.steps = s.steps[1:]
	}
	s.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if exhausted {
		return 0, io.EOF
	}
	if st.err != nil {
		return 0, st.err
	}
	return st.b, nil
}

// Reads returns how many times NextByte was called.
func (s *Source) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Remaining returns the number of unconsumed script steps.
func (s *Source) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Close marks the source closed. It lets a Source stand in for an opened
// reader device.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Frame returns a valid frame for body (ten hex characters).
func Frame(tb testing.TB, body string) []byte {
	tb.Helper()
	frame, err := rfid.EncodeFrame(body)
	if err != nil {
		tb.Fatalf("encode frame %q: %v", body, err)
	}
	return frame
}

// CorruptNibble returns a copy of frame with the hex character at wire
// offset off replaced by a different hex digit.
func CorruptNibble(frame []byte, off int) []byte {
	out := append([]byte(nil), frame...)
	if out[off] == '0' {
		out[off] = '1'
	} else {
		out[off] = '0'
	}
	return out
}
