package server

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/pamrfid/internal/login"
	"github.com/danmuck/pamrfid/internal/rfid"
)

// TagReader reads one tag from an open source.
type TagReader interface {
	ReadTag(ctx context.Context, src rfid.ByteSource) (rfid.TagRecord, error)
}

var _ TagReader = (*login.Authenticator)(nil)

// Sighting is the most recent tag the watcher decoded.
type Sighting struct {
	Tag    rfid.TagRecord
	SeenAt time.Time
}

// Stats counts watcher reads by outcome.
type Stats struct {
	Tags     uint64 `json:"tags"`
	Rejected uint64 `json:"rejected"`
	Idle     uint64 `json:"idle"`
}

// Watcher keeps a reader open and remembers the last tag presented.
type Watcher struct {
	reader TagReader
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	last  *Sighting
	stats Stats
}

func NewWatcher(reader TagReader, logger zerolog.Logger) *Watcher {
	return &Watcher{
		reader: reader,
		logger: logger,
		now:    time.Now,
	}
}

// Run reads from src until ctx ends, the source is exhausted, or the
// transport fails. Rejected frames and quiet periods are counted and
// skipped.
func (w *Watcher) Run(ctx context.Context, src rfid.ByteSource) error {
	for {
		rec, err := w.reader.ReadTag(ctx, src)
		if ctx.Err() != nil {
			return nil
		}
		switch {
		case err == nil:
			w.store(rec)
			w.logger.Info().
				Str("tag_type", rec.TypeName()).
				Str("id", rec.MaskedID()).
				Msg("tag presented")
		case errors.Is(err, io.EOF):
			w.logger.Info().Msg("tag source exhausted")
			return nil
		case errors.Is(err, login.ErrNoTag):
			w.count(func(s *Stats) { s.Idle++ })
		case rfid.IsStructural(err):
			w.count(func(s *Stats) { s.Rejected++ })
			w.logger.Warn().Err(err).Msg("tag read rejected")
		default:
			return err
		}
	}
}

func (w *Watcher) store(rec rfid.TagRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = &Sighting{Tag: rec, SeenAt: w.now()}
	w.stats.Tags++
}

func (w *Watcher) count(fn func(*Stats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.stats)
}

func (w *Watcher) Last() (Sighting, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.last == nil {
		return Sighting{}, false
	}
	return *w.last, true
}

func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}
