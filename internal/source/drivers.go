package source

import (
	"fmt"
	"os"
	"time"

	"github.com/danmuck/pamrfid/internal/config"
	"github.com/danmuck/pamrfid/internal/rfid"
	"github.com/danmuck/pamrfid/internal/serial"
)

func init() {
	Register(config.DriverSerial, openSerial)
	Register(config.DriverFile, openFile)
}

func openSerial(cfg config.Reader) (Source, error) {
	p, err := serial.Open(serial.Config{Path: cfg.Port, BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// fileSource replays a captured byte stream. End of file reads as a
// transport timeout, like a reader nobody presents a card to.
type fileSource struct {
	f   *os.File
	src *rfid.ReaderSource
}

func openFile(cfg config.Reader) (Source, error) {
	f, err := os.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("source: open capture %s: %w", cfg.Port, err)
	}
	return &fileSource{f: f, src: rfid.NewReaderSource(f)}, nil
}

func (s *fileSource) NextByte(timeout time.Duration) (byte, error) {
	return s.src.NextByte(timeout)
}

func (s *fileSource) Close() error {
	return s.f.Close()
}
