package login

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/rs/zerolog"

	"github.com/danmuck/pamrfid/internal/audit"
	"github.com/danmuck/pamrfid/internal/auth"
	"github.com/danmuck/pamrfid/internal/config"
	"github.com/danmuck/pamrfid/internal/observability"
	"github.com/danmuck/pamrfid/internal/rfid"
	"github.com/danmuck/pamrfid/internal/source"
)

var (
	ErrNoTag  = errors.New("login: no tag presented")
	ErrSensor = errors.New("login: sensor initialization failed")
)

// Messages shown to the person at the reader.
const (
	msgWaiting    = "Waiting for tag..."
	msgGranted    = "Access granted!"
	msgDenied     = "Access denied!"
	msgSensorFail = "Sensor initialization failed!"
)

// Recorder receives one audit entry per authentication.
type Recorder interface {
	Record(audit.Entry) error
}

type nopRecorder struct{}

func (nopRecorder) Record(audit.Entry) error { return nil }

// Authenticator checks presented tags against the enrolled credentials in
// a loaded config. It opens the reader for each call and closes it after.
type Authenticator struct {
	cfg     config.Config
	open    source.Opener
	prompt  Prompter
	audit   Recorder
	clock   clock.Clock
	backoff BackoffConfig
	rng     *rand.Rand
	logger  zerolog.Logger
}

type Option func(*Authenticator)

func WithOpener(open source.Opener) Option {
	return func(a *Authenticator) {
		if open != nil {
			a.open = open
		}
	}
}

func WithPrompter(p Prompter) Option {
	return func(a *Authenticator) {
		if p != nil {
			a.prompt = p
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(a *Authenticator) {
		if r != nil {
			a.audit = r
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(a *Authenticator) {
		if c != nil {
			a.clock = c
		}
	}
}

func WithBackoff(b BackoffConfig) Option {
	return func(a *Authenticator) {
		a.backoff = b
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

func New(cfg config.Config, opts ...Option) *Authenticator {
	a := &Authenticator{
		cfg:     cfg,
		open:    source.Open,
		prompt:  nopPrompter{},
		audit:   nopRecorder{},
		clock:   clock.NewClock(),
		backoff: DefaultBackoff(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type attempt struct {
	reason  string
	tagType string
	err     error
}

// Authenticate runs one login for req and reports the outcome. Every call
// is logged, counted and written to the audit recorder.
func (a *Authenticator) Authenticate(ctx context.Context, req Request) Result {
	start := a.clock.Now()
	res, at := a.authenticate(ctx, req)
	a.finish(req, res, at, a.clock.Since(start))
	return res
}

func (a *Authenticator) authenticate(ctx context.Context, req Request) (Result, attempt) {
	if req.User == "" {
		return ResultUserUnknown, attempt{reason: "user is not known"}
	}
	a.logger.Debug().Str("user", req.User).Str("service", req.Service).Msg("user asking for permission")

	stored, ok := a.cfg.User(req.User)
	if !ok {
		return ResultIgnore, attempt{reason: "user has no enrolled tag"}
	}
	cred, err := auth.ParseCredential(stored)
	if err != nil {
		return ResultAuthErr, attempt{reason: "enrolled credential is malformed", err: err}
	}

	src, err := a.open(a.cfg.Reader)
	if err != nil {
		_ = a.prompt.Error(msgSensorFail)
		return ResultIgnore, attempt{reason: "sensor initialization failed", err: fmt.Errorf("%w: %w", ErrSensor, err)}
	}
	defer src.Close()
	a.flush(src)

	if err := a.prompt.Info(msgWaiting); err != nil {
		return ResultConvErr, attempt{reason: "prompt failed", err: err}
	}

	rec, err := a.ReadTag(ctx, src)
	if err != nil {
		_ = a.prompt.Error(msgDenied)
		reason := "no tag read"
		if rfid.IsStructural(err) {
			reason = "tag read rejected"
		}
		return ResultAuthErr, attempt{reason: reason, err: err}
	}

	at := attempt{tagType: rec.TypeName()}
	if err := cred.Validate(rec.Raw); err != nil {
		_ = a.prompt.Error(msgDenied)
		at.reason = "tag does not match"
		at.err = err
		return ResultAuthErr, at
	}
	_ = a.prompt.Info(msgGranted)
	at.reason = "access granted"
	return ResultSuccess, at
}

// Capture opens the configured reader and returns the next tag read under
// the same policy Authenticate uses.
func (a *Authenticator) Capture(ctx context.Context) (rfid.TagRecord, error) {
	src, err := a.open(a.cfg.Reader)
	if err != nil {
		return rfid.TagRecord{}, fmt.Errorf("%w: %w", ErrSensor, err)
	}
	defer src.Close()
	a.flush(src)
	return a.ReadTag(ctx, src)
}

// ReadTag reads from src until one verified tag arrives.
//
// Timeouts and stray bytes ahead of a start marker are waited out until
// reader.wait_timeout has passed. A frame that starts but is rejected costs
// one of reader.max_attempts and is followed by a backoff pause and a
// flush of the source. End of stream and transport failures end the read.
func (a *Authenticator) ReadTag(ctx context.Context, src rfid.ByteSource) (rfid.TagRecord, error) {
	r := a.cfg.Reader
	dec := rfid.NewDecoder(src, rfid.WithByteTimeout(r.ByteTimeout), rfid.WithLogger(a.logger))
	deadline := a.clock.Now().Add(r.WaitTimeout)
	rejected := 0

	for {
		start := a.clock.Now()
		rec, err := dec.ReadTag(ctx)
		observability.RecordRead(rfid.Classify(err), a.clock.Since(start))
		if err == nil {
			return rec, nil
		}
		if ctx.Err() != nil {
			return rfid.TagRecord{}, err
		}

		switch {
		case errors.Is(err, io.EOF):
			return rfid.TagRecord{}, fmt.Errorf("%w: source exhausted: %w", ErrNoTag, err)
		case errors.Is(err, rfid.ErrTransportTimeout), isLeadingNoise(err):
		case rfid.IsStructural(err):
			rejected++
			if rejected >= r.MaxAttempts {
				return rfid.TagRecord{}, err
			}
			delay := NextBackoffDelay(a.backoff, rejected, a.rng)
			a.logger.Info().Err(err).Int("attempt", rejected).Dur("delay", delay).Msg("re-reading after rejected frame")
			if err := a.pause(ctx, delay); err != nil {
				return rfid.TagRecord{}, err
			}
			a.flush(src)
		default:
			return rfid.TagRecord{}, err
		}

		if !a.clock.Now().Before(deadline) {
			return rfid.TagRecord{}, fmt.Errorf("%w within %s: %w", ErrNoTag, r.WaitTimeout, err)
		}
	}
}

// isLeadingNoise reports a byte that was not a start marker, read while no
// frame was in progress.
func isLeadingNoise(err error) bool {
	var derr *rfid.DecodeError
	return errors.As(err, &derr) && errors.Is(derr.Err, rfid.ErrFraming) && derr.Offset == 0
}

func (a *Authenticator) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.clock.After(d):
		return nil
	}
}

func (a *Authenticator) flush(src rfid.ByteSource) {
	f, ok := src.(source.Flusher)
	if !ok {
		return
	}
	if err := f.Flush(); err != nil {
		a.logger.Warn().Err(err).Msg("reader flush failed")
	}
}

func (a *Authenticator) finish(req Request, res Result, at attempt, dur time.Duration) {
	observability.RecordAuth(res.String())

	var ev *zerolog.Event
	switch res {
	case ResultSuccess:
		ev = a.logger.Info()
	case ResultAuthErr:
		ev = a.logger.Warn()
	case ResultConvErr:
		ev = a.logger.Error()
	default:
		ev = a.logger.Info()
	}
	if at.err != nil {
		ev = ev.Err(at.err)
	}
	ev.Str("user", req.User).
		Str("service", req.Service).
		Str("result", res.String()).
		Str("tag_type", at.tagType).
		Dur("duration", dur).
		Msg(at.reason)

	entry := audit.Entry{
		Time:    a.clock.Now(),
		User:    req.User,
		Service: req.Service,
		Result:  res.String(),
		Reason:  at.reason,
		TagType: at.tagType,
	}
	if err := a.audit.Record(entry); err != nil {
		a.logger.Warn().Err(err).Msg("audit record failed")
	}
}
