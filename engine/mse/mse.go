// Package mse implements the engine that parses HLS itself and feeds media
// data into the surface's buffer.
package mse

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

// Option configures an Engine.
type Option func(*Engine)

// WithClient overrides the HTTP client, network.Client by default.
func WithClient(c *http.Client) Option {
	return func(e *Engine) {
		e.client = c
	}
}

// WithTuning overrides the loading and buffering knobs.
func WithTuning(t engine.Tuning) Option {
	return func(e *Engine) {
		e.tuning = t
	}
}

// Engine loads a live HLS stream and appends its fragments to a surface.
type Engine struct {
	surface surface.Surface
	client  *http.Client
	tuning  engine.Tuning
	loader  *playlist.Loader
	abr     *estimator
	owner   string

	ctx    context.Context
	cancel context.CancelFunc
	emit   *engine.Emitter
	wg     sync.WaitGroup

	// switches wakes the fragment loop after a quality override
	switches chan struct{}

	mu        sync.Mutex
	levels    []engine.Level
	failed    map[int]bool
	manual    int
	started   bool
	attached  bool
	destroyed bool
}

// New creates an engine bound to s. Nothing is fetched until Load.
func New(s surface.Surface, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		surface:  s,
		client:   network.Client,
		tuning:   engine.DefaultTuning(),
		owner:    fmt.Sprintf("mse-%d", instances.Add(1)),
		ctx:      ctx,
		cancel:   cancel,
		emit:     engine.NewEmitter(ctx.Done()),
		switches: make(chan struct{}, 1),
		failed:   make(map[int]bool),
		manual:   engine.Auto,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.loader = &playlist.Loader{Client: e.client, Tuning: e.tuning}
	e.abr = newEstimator(e.tuning)
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
		return engine.ParseResult{}, errors.New("mse: engine already loaded")
	}
	e.started = true
	e.mu.Unlock()

	if !e.surface.SupportsBuffer() {
		return e.fail(engine.NewError(
			engine.UnsupportedPlatform, true,
			fmt.Errorf("%w: surface cannot accept media data", surface.ErrUnsupported),
		))
	}

	// the load ends with the caller's context or with Destroy, whichever comes first
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(e.ctx, cancel)()

	if err := e.attach(); err != nil {
		return e.fail(engine.Classify(err, true))
	}

	log.Infof("mse: loading %s", src.Locator)
	res, err := e.loader.Master(ctx, src.Locator)
	if err != nil {
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
	start := e.startLevel()
	e.wg.Add(1)
	e.mu.Unlock()

	e.emit.Emit(engine.ManifestParsed{Levels: res.Levels, Info: res.Info})
	go e.run(start)

	return res, nil
}

func (e *Engine) attach() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return engine.ErrDestroyed
	}
	if err := e.surface.Attach(e.owner); err != nil {
		return err
	}
	e.attached = true
	return nil
}

func (e *Engine) fail(err *engine.Error) (engine.ParseResult, error) {
	log.Warnf("mse: %v", err)
	e.emit.Emit(engine.FatalError{Err: err})
	return engine.ParseResult{}, err
}

// startLevel must be called with mu held.
func (e *Engine) startLevel() int {
	switch {
	case e.manual != engine.Auto:
		e.manual = nearest(e.levels, e.failed, e.manual)
		return e.manual
	case e.tuning.StartLevel >= 0 && e.tuning.StartLevel < len(e.levels):
		return e.tuning.StartLevel
	default:
		return e.abr.pick(e.levels, e.failed)
	}
}

// SetQualityOverride pins the level nearest to index, or re-enables ABR with engine.Auto.
func (e *Engine) SetQualityOverride(index int) {
	e.mu.Lock()
	if index == engine.Auto || index < engine.Auto {
		e.manual = engine.Auto
	} else if len(e.levels) == 0 {
		e.manual = index
	} else {
		e.manual = nearest(e.levels, e.failed, index)
	}
	e.mu.Unlock()

	select {
	case e.switches <- struct{}{}:
	default:
	}
}

func (e *Engine) QualityLevels() []engine.Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo.Map(e.levels, func(l engine.Level, _ int) engine.Level { return l })
}

func (e *Engine) Events() <-chan engine.Event {
	return e.emit.Events()
}

// Destroy stops the fragment loop, releases the surface and closes Events.
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
	attached := e.attached
	e.attached = false
	e.mu.Unlock()

	if attached {
		e.surface.Detach(e.owner)
	}
	e.emit.Close()
	log.Debugf("mse: %s destroyed", e.owner)
}
