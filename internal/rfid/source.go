package rfid

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ByteSource yields received bytes in order. NextByte blocks for at most
// timeout and reports expiry with an error matching ErrTransportTimeout.
// End of stream is reported with io.EOF.
type ByteSource interface {
	NextByte(timeout time.Duration) (byte, error)
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

const maxEmptyReads = 100

// ReaderSource adapts an io.Reader to ByteSource. Per-byte timeouts are
// honoured when the reader supports read deadlines (ttys, pipes, sockets).
// Other readers, regular files included, block until data or an error.
type ReaderSource struct {
	r   io.Reader
	buf [1]byte
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

func (s *ReaderSource) NextByte(timeout time.Duration) (byte, error) {
	if dl, ok := s.r.(readDeadliner); ok && timeout > 0 {
		err := dl.SetReadDeadline(time.Now().Add(timeout))
		if err != nil && !errors.Is(err, os.ErrNoDeadline) {
			return 0, fmt.Errorf("rfid: set read deadline: %w", err)
		}
	}
	for i := 0; i < maxEmptyReads; i++ {
		n, err := s.r.Read(s.buf[:])
		if n == 1 {
			return s.buf[0], nil
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return 0, fmt.Errorf("%w: no byte within %v", ErrTransportTimeout, timeout)
			}
			return 0, err
		}
	}
	return 0, io.ErrNoProgress
}
