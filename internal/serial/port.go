// Package serial opens a tty as an rfid.ByteSource: raw mode, 8N1, no flow
// control, fixed baud rate.
package serial

import (
	"errors"
	"os"
	"time"

	"github.com/danmuck/pamrfid/internal/rfid"
)

var (
	ErrUnsupportedBaudRate = errors.New("serial: unsupported baud rate")
	ErrUnsupportedPlatform = errors.New("serial: unsupported platform")
	ErrClosed              = errors.New("serial: port closed")
)

type Config struct {
	Path     string
	BaudRate int
}

// Port is an open serial device. It is not safe for concurrent reads.
type Port struct {
	f    *os.File
	src  *rfid.ReaderSource
	path string
}

func (p *Port) NextByte(timeout time.Duration) (byte, error) {
	if p == nil || p.f == nil {
		return 0, ErrClosed
	}
	return p.src.NextByte(timeout)
}

func (p *Port) Path() string {
	return p.path
}

func (p *Port) Close() error {
	if p == nil || p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	return err
}
