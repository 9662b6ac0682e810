// Package native implements the engine that hands the locator to the surface's
// own HLS support and only reads the manifest for the level list.
package native

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/engine/playlist"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/network"
	"github.com/livetv-cli/livetv/source"
	"github.com/livetv-cli/livetv/surface"
	"github.com/samber/lo"
)

var instances atomic.Int64

type Option func(*Engine)

func WithClient(c *http.Client) Option {
	return func(e *Engine) {
		e.client = c
	}
}

func WithTuning(t engine.Tuning) Option {
	return func(e *Engine) {
		e.tuning = t
	}
}

// Engine delegates playback to a surface that understands HLS itself.
type Engine struct {
	surface surface.Surface
	client  *http.Client
	tuning  engine.Tuning
	owner   string

	ctx    context.Context
	cancel context.CancelFunc
	emit   *engine.Emitter
	wg     sync.WaitGroup

	mu          sync.Mutex
	levels      []engine.Level
	started     bool
	attached    bool
	destroyed   bool
	unsubscribe func()
}

func New(s surface.Surface, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		surface: s,
		client:  network.Client,
		tuning:  engine.DefaultTuning(),
		owner:   fmt.Sprintf("native-%d", instances.Add(1)),
		ctx:     ctx,
		cancel:  cancel,
		emit:    engine.NewEmitter(ctx.Done()),
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Load(ctx context.Context, src source.Source) (engine.ParseResult, error) {
	e.mu.Lock()
	switch {
	case e.destroyed:
		e.mu.Unlock()
		return engine.ParseResult{}, engine.ErrDestroyed
	case e.started:
		e.mu.Unlock()
		return engine.ParseResult{}, errors.New("native: engine already loaded")
	}
	e.started = true
	e.mu.Unlock()

	if !e.surface.CanPlayNative() {
		return e.fail(engine.NewError(
			engine.UnsupportedPlatform, true,
			fmt.Errorf("%w: surface has no HLS support", surface.ErrUnsupported),
		))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(e.ctx, cancel)()

	loader := &playlist.Loader{Client: e.client, Tuning: e.tuning}
	res, err := loader.Master(ctx, src.Locator)
	if err != nil {
		if ctx.Err() != nil {
			return engine.ParseResult{}, ctx.Err()
		}
		return e.fail(engine.Classify(err, true))
	}

	events, err := e.attach()
	if err != nil {
		return e.fail(engine.Classify(err, true))
	}

	if err := e.surface.Load(src.Locator); err != nil {
		return e.fail(engine.Classify(err, true))
	}

	// the surface reports its own parse through loadedmetadata
	if err := awaitMetadata(ctx, events); err != nil {
		if ctx.Err() != nil {
			return engine.ParseResult{}, ctx.Err()
		}
		return e.fail(engine.Classify(err, true))
	}

	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return engine.ParseResult{}, context.Canceled
	}
	e.levels = res.Levels
	e.wg.Add(1)
	e.mu.Unlock()

	e.emit.Emit(engine.ManifestParsed{Levels: res.Levels, Info: res.Info})
	go e.watch(events)

	return res, nil
}

func (e *Engine) attach() (<-chan surface.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return nil, engine.ErrDestroyed
	}
	if err := e.surface.Attach(e.owner); err != nil {
		return nil, err
	}
	e.attached = true

	events, unsubscribe := e.surface.Subscribe()
	e.unsubscribe = unsubscribe
	return events, nil
}

func awaitMetadata(ctx context.Context, events <-chan surface.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return surface.ErrClosed
			}
			switch ev.Kind {
			case surface.EventLoadedMetadata:
				return nil
			case surface.EventError:
				return fmt.Errorf("%w: %v", engine.ErrDecode, ev.Err)
			}
		}
	}
}

// watch turns surface errors during playback into fatal media errors.
func (e *Engine) watch(events <-chan surface.Event) {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind != surface.EventError {
				continue
			}

			err := engine.NewError(engine.MediaError, true, ev.Err)
			log.Errorf("native: %v", err)
			e.emit.Emit(engine.FatalError{Err: err})
			return
		}
	}
}

func (e *Engine) fail(err *engine.Error) (engine.ParseResult, error) {
	log.Warnf("native: %v", err)
	e.emit.Emit(engine.FatalError{Err: err})
	return engine.ParseResult{}, err
}

// SetQualityOverride caps the surface's bitrate at the chosen level.
// Surfaces that cannot be capped keep playing at their own choice.
func (e *Engine) SetQualityOverride(index int) {
	e.mu.Lock()
	levels := e.levels
	e.mu.Unlock()

	if len(levels) == 0 {
		return
	}

	capper, ok := e.surface.(surface.BitrateCapper)
	if !ok {
		log.Warnf("native: surface cannot limit its bitrate")
	}

	if index < 0 {
		if ok {
			if err := capper.CapBitrate(0); err != nil {
				log.Warnf("native: remove bitrate cap: %v", err)
			}
		}
		return
	}

	index = min(index, len(levels)-1)
	if ok {
		if err := capper.CapBitrate(levels[index].Bitrate); err != nil {
			log.Warnf("native: cap bitrate: %v", err)
		}
	}
	e.emit.Emit(engine.QualityChanged{Level: index})
}

func (e *Engine) QualityLevels() []engine.Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo.Map(e.levels, func(l engine.Level, _ int) engine.Level { return l })
}

func (e *Engine) Events() <-chan engine.Event {
	return e.emit.Events()
}

func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()

	e.mu.Lock()
	attached, unsubscribe := e.attached, e.unsubscribe
	e.attached, e.unsubscribe = false, nil
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if attached {
		e.surface.Detach(e.owner)
	}
	e.emit.Close()
	log.Debugf("native: %s destroyed", e.owner)
}
