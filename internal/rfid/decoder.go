package rfid

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultByteTimeout is the longest wait for a single byte.
const DefaultByteTimeout = 2 * time.Second

// Decoder turns a ByteSource into TagRecords, one frame per ReadTag call.
// A Decoder is owned by one caller; reads must not run concurrently.
type Decoder struct {
	src     ByteSource
	timeout time.Duration
	logger  zerolog.Logger
}

type Option func(*Decoder)

func WithByteTimeout(d time.Duration) Option {
	return func(dec *Decoder) {
		if d > 0 {
			dec.timeout = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(dec *Decoder) {
		dec.logger = logger
	}
}

func NewDecoder(src ByteSource, opts ...Option) *Decoder {
	dec := &Decoder{
		src:     src,
		timeout: DefaultByteTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(dec)
	}
	return dec
}

// ReadTag pulls bytes until one frame is collected and verified, or the
// first failure. It never retries: a rejected frame or a silent source is
// returned to the caller as a *DecodeError.
func (d *Decoder) ReadTag(ctx context.Context) (TagRecord, error) {
	var asm assembler
	for !asm.complete() {
		if err := ctx.Err(); err != nil {
			return TagRecord{}, &DecodeError{Err: ErrTransport, Offset: asm.n, Cause: err}
		}
		b, err := d.src.NextByte(d.timeout)
		if err != nil {
			derr := transportError(asm.n, err)
			d.logger.Debug().Err(derr).Int("offset", asm.n).Msg("rfid read aborted")
			return TagRecord{}, derr
		}
		if err := asm.push(b); err != nil {
			d.logger.Warn().Err(err).Msg("rfid frame rejected")
			return TagRecord{}, err
		}
	}

	rec, err := asm.record()
	if err != nil {
		d.logger.Warn().Err(err).Msg("rfid frame rejected")
		return TagRecord{}, err
	}
	d.logger.Debug().
		Str("tag_type", rec.TypeHex()).
		Str("checksum", rec.ChecksumHex()).
		Msg("rfid tag decoded")
	return rec, nil
}
