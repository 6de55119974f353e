// Package source opens the byte source named by the reader config.
package source

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/danmuck/pamrfid/internal/config"
	"github.com/danmuck/pamrfid/internal/rfid"
)

var ErrUnknownDriver = errors.New("source: unknown driver")

// Source is an open byte source that must be closed after use.
type Source interface {
	rfid.ByteSource
	io.Closer
}

// Flusher is implemented by sources that can drop stale input.
type Flusher interface {
	Flush() error
}

// Opener opens a Source for the given reader settings.
type Opener func(cfg config.Reader) (Source, error)

var (
	mu       sync.RWMutex
	registry = map[string]Opener{}
)

func Register(name string, open Opener) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = open
}

func Get(name string) (Opener, bool) {
	mu.RLock()
	defer mu.RUnlock()
	open, ok := registry[name]
	return open, ok
}

// Drivers lists registered driver names in sorted order.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func Open(cfg config.Reader) (Source, error) {
	open, ok := Get(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	return open(cfg)
}
