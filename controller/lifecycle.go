package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/source"
	"github.com/livetv-cli/livetv/surface"
	"github.com/samber/mo"
)

const autoplayTimeout = 10 * time.Second

// binding is one engine instance together with the goroutines serving it.
type binding struct {
	gen    uint64
	engine engine.Engine
	ctx    context.Context
	cancel context.CancelFunc

	// tasks counts surface calls made on behalf of this binding
	tasks sync.WaitGroup

	// settled is closed once Load returned
	settled chan struct{}
	// pumped is closed once the event channel was drained
	pumped chan struct{}
}

// Mount plays src, replacing whatever was mounted before.
// It returns once the engine was created; connection progress is reported through the session.
func (c *Controller) Mount(src source.Source) error {
	if err := src.Validate(); err != nil {
		return fmt.Errorf("mount %s: %w", src, err)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	unmounted := c.unmounted
	c.mu.Unlock()
	if unmounted {
		return ErrUnmounted
	}

	c.teardown()
	first := c.watchSurface()

	c.mu.Lock()
	c.mounted = true
	c.src = src
	c.desired = engine.Auto
	c.paused = true
	prev := c.session
	c.session = Session{
		Source:          mo.Some(src),
		Connection:      Connecting,
		Play:            Paused,
		Audio:           prev.Audio,
		PlayingLevel:    -1,
		Selection:       engine.Automatic(),
		Fullscreen:      prev.Fullscreen,
		ControlsVisible: prev.ControlsVisible,
	}
	audio := c.session.Audio
	c.mu.Unlock()

	if first {
		c.pushAudio(audio)
	}

	log.Infof("controller: mounting %s (%s)", src.Name, src.Locator)
	c.start()
	c.notify()
	return nil
}

// SetSource switches a mounted controller to another stream.
// The same locator keeps the current engine.
func (c *Controller) SetSource(src source.Source) error {
	c.mu.Lock()
	err := c.checkMounted()
	same := err == nil && c.src.Same(src)
	c.mu.Unlock()

	switch {
	case err != nil:
		return err
	case same:
		return nil
	default:
		return c.Mount(src)
	}
}

// Restart destroys the engine and loads the mounted source again with a new one.
// Nothing else restarts a failed stream.
func (c *Controller) Restart() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if err := c.checkMounted(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.teardown()

	c.mu.Lock()
	s := &c.session
	s.Connection = Connecting
	s.Play = Paused
	s.PlayingLevel = -1
	s.Stats = Stats{}
	if c.desired != engine.Auto {
		s.Selection = engine.PendingManual(c.desired)
	}
	c.paused = true
	src := c.src
	c.mu.Unlock()

	log.Infof("controller: restarting %s", src.Name)
	c.start()
	c.notify()
	return nil
}

// Unmount releases the engine and the surface subscription and returns to Idle.
// A controller cannot be mounted again afterwards.
func (c *Controller) Unmount() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	c.mounted = false
	c.stopHide()
	stop, done := c.surfaceStop, c.surfaceDone
	c.surfaceStop, c.surfaceDone = nil, nil
	c.mu.Unlock()

	c.teardown()

	if stop != nil {
		stop()
		<-done
	}

	c.mu.Lock()
	c.session = idleSession(c.session.Audio)
	c.mu.Unlock()
	c.notify()
	log.Infof("controller: unmounted")
}

// start creates a fresh engine for the mounted source. Callers hold opMu and
// have torn the previous binding down.
func (c *Controller) start() {
	eng := c.factory(c.surface)
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.gen++
	b := &binding{
		gen:     c.gen,
		engine:  eng,
		ctx:     ctx,
		cancel:  cancel,
		settled: make(chan struct{}),
		pumped:  make(chan struct{}),
	}
	c.bind = b
	src := c.src
	c.mu.Unlock()

	c.opts.Metrics.EngineCreated()
	log.Debugf("controller: engine generation %d created", b.gen)

	go c.pump(b)
	go c.load(ctx, b, src)
}

// teardown invalidates the current binding and waits until its engine is gone.
func (c *Controller) teardown() {
	c.mu.Lock()
	b := c.bind
	c.bind = nil
	c.gen++
	c.mu.Unlock()

	if b == nil {
		return
	}

	b.cancel()
	<-b.settled
	b.engine.Destroy()
	<-b.pumped
	b.tasks.Wait()

	c.opts.Metrics.EngineDestroyed()
	log.Debugf("controller: engine generation %d destroyed", b.gen)
}

func (c *Controller) load(ctx context.Context, b *binding, src source.Source) {
	defer close(b.settled)

	_, err := b.engine.Load(ctx, src)
	if err == nil || ctx.Err() != nil {
		return
	}

	var ee *engine.Error
	if !errors.As(err, &ee) {
		ee = engine.Classify(err, true)
	}
	if ee.Fatal {
		c.apply(b, engine.FatalError{Err: ee})
	}
}

func (c *Controller) pump(b *binding) {
	defer close(b.pumped)

	for ev := range b.engine.Events() {
		c.opts.Metrics.Observe(ev)
		c.apply(b, ev)
	}
}

// apply folds an engine event into the session unless it comes from a stale binding.
func (c *Controller) apply(b *binding, ev engine.Event) {
	c.mu.Lock()
	if b.gen != c.gen {
		c.mu.Unlock()
		c.logStale(fmt.Sprintf("%T", ev), b.gen)
		return
	}

	var (
		s        = &c.session
		override = engine.Auto
		autoplay bool
		pause    bool
	)

	switch ev := ev.(type) {
	case engine.ManifestParsed:
		s.Connection = Connected
		s.Levels = append([]engine.Level(nil), ev.Levels...)
		s.Info = ev.Info
		s.LastError = mo.None[*engine.Error]()

		if c.desired != engine.Auto && c.desired < len(s.Levels) {
			s.Selection = engine.PendingManual(c.desired)
			override = c.desired
		} else {
			c.desired = engine.Auto
			s.Selection = engine.Automatic()
		}
		autoplay = c.opts.Autoplay
		log.Infof("controller: %s connected with %d levels", c.src.Name, len(s.Levels))

	case engine.QualityChanged:
		s.PlayingLevel = ev.Level
		// the engine may settle on another level than requested; its report wins
		if !s.Selection.IsAutomatic() {
			s.Selection = engine.Confirmed(ev.Level)
			c.desired = ev.Level
		}

	case engine.FragmentLoaded:
		s.Stats.Fragments++
		s.Stats.Bytes += int64(ev.Bytes)
		s.Stats.Bandwidth = ev.Bandwidth

	case engine.FatalError:
		if last, ok := s.LastError.Get(); ok && last == ev.Err && s.Connection == Error {
			c.mu.Unlock()
			return
		}
		pause = s.Play != Paused
		s.Connection = Error
		s.Play = Paused
		s.LastError = mo.Some(ev.Err)
		log.With(log.Fields{"source": c.src.ID, "kind": ev.Err.Kind.String(), "gen": b.gen}).Errorf("controller: %v", ev.Err)

	case engine.RecoverableError:
		log.With(log.Fields{"source": c.src.ID, "kind": ev.Err.Kind.String(), "gen": b.gen}).Warnf("controller: recovering from %v", ev.Err)
		c.mu.Unlock()
		return

	default:
		c.mu.Unlock()
		return
	}
	if autoplay {
		// under mu: a teardown that bumps gen afterwards waits for it
		b.tasks.Add(1)
	}
	c.mu.Unlock()
	c.notify()

	if override != engine.Auto {
		b.engine.SetQualityOverride(override)
	}
	if autoplay {
		go c.autoplay(b)
	}
	if pause {
		if err := c.surface.Pause(); err != nil {
			log.Warnf("controller: pause after error: %v", err)
		}
	}
}

// autoplay tries to start playback. A refusal leaves the session paused.
// Teardown cancels it and waits for it to return.
func (c *Controller) autoplay(b *binding) {
	defer b.tasks.Done()

	c.mu.Lock()
	current := b.gen == c.gen
	c.mu.Unlock()
	if !current {
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, autoplayTimeout)
	defer cancel()

	if err := c.surface.Play(ctx); err != nil {
		log.Warnf("controller: autoplay: %v", err)
	}
}

// watchSurface subscribes to surface events once per controller.
func (c *Controller) watchSurface() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surfaceStop != nil {
		return false
	}

	events, stop := c.surface.Subscribe()
	done := make(chan struct{})
	c.surfaceStop, c.surfaceDone = stop, done

	go func() {
		defer close(done)
		for ev := range events {
			c.applySurface(ev)
		}
	}()
	return true
}

func (c *Controller) applySurface(ev surface.Event) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}

	s := &c.session
	switch ev.Kind {
	case surface.EventPlay:
		c.paused = false
		if s.Connection == Connected {
			s.Play = Playing
		}
	case surface.EventPause:
		c.paused = true
		s.Play = Paused
	case surface.EventWaiting:
		if s.Connection == Connected {
			s.Play = Loading
		}
	case surface.EventCanPlay:
		if s.Play != Loading {
			c.mu.Unlock()
			return
		}
		if !c.paused && s.Connection == Connected {
			s.Play = Playing
		} else {
			s.Play = Paused
		}
	case surface.EventVolume:
		s.Audio = Audio{Volume: math.Round(ev.Volume*100) / 100, Muted: ev.Muted}
	case surface.EventFullscreen:
		if ev.Fullscreen == s.Fullscreen {
			c.mu.Unlock()
			return
		}
		c.setFullscreen(ev.Fullscreen)
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.notify()
}

// pushAudio brings a freshly subscribed surface in line with the session's audio.
func (c *Controller) pushAudio(a Audio) {
	if err := c.surface.SetVolume(a.Volume); err != nil {
		log.Warnf("controller: set volume: %v", err)
	}
	if err := c.surface.SetMuted(a.Muted); err != nil {
		log.Warnf("controller: set muted: %v", err)
	}
}
