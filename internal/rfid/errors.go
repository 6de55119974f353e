package rfid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrTransportTimeout = errors.New("rfid: transport timeout")
	ErrTransport        = errors.New("rfid: transport failure")
	ErrFraming          = errors.New("rfid: framing error")
	ErrHexDecode        = errors.New("rfid: invalid hex digit")
	ErrChecksumMismatch = errors.New("rfid: checksum mismatch")
)

// DecodeError describes why one read attempt produced no TagRecord.
// Err is always one of the package sentinels.
type DecodeError struct {
	Err    error
	Offset int // wire offset at which the failure was detected
	Got    byte
	Want   byte
	Detail string
	Cause  error
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	fmt.Fprintf(&sb, " at offset %d", e.Offset)
	switch {
	case errors.Is(e.Err, ErrFraming) && e.Detail == "":
		fmt.Fprintf(&sb, ": got 0x%02x want 0x%02x", e.Got, e.Want)
	case errors.Is(e.Err, ErrHexDecode):
		fmt.Fprintf(&sb, ": 0x%02x", e.Got)
	case errors.Is(e.Err, ErrChecksumMismatch):
		fmt.Fprintf(&sb, ": received 0x%02x calculated 0x%02x", e.Got, e.Want)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	// A cause that already wraps the sentinel would repeat its text.
	if e.Cause != nil && !errors.Is(e.Cause, e.Err) {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// IsStructural reports whether err rejects the received bytes themselves
// (framing, hex or checksum) rather than the transport that carried them.
func IsStructural(err error) bool {
	return errors.Is(err, ErrFraming) ||
		errors.Is(err, ErrHexDecode) ||
		errors.Is(err, ErrChecksumMismatch)
}

// Classify returns a short label for err, suitable for metrics and logs.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTransportTimeout):
		return "timeout"
	case errors.Is(err, ErrFraming):
		return "framing"
	case errors.Is(err, ErrHexDecode):
		return "hex"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum"
	default:
		return "transport"
	}
}

func transportError(offset int, cause error) *DecodeError {
	kind := ErrTransport
	if errors.Is(cause, ErrTransportTimeout) ||
		errors.Is(cause, io.EOF) ||
		errors.Is(cause, os.ErrDeadlineExceeded) ||
		errors.Is(cause, context.DeadlineExceeded) {
		kind = ErrTransportTimeout
	}
	return &DecodeError{Err: kind, Offset: offset, Cause: cause}
}
