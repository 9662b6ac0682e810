// Package controller drives one playback session: it owns the engine bound to a
// surface, reacts to engine and surface events and exposes the viewer operations.
package controller

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/metrics"
	"github.com/livetv-cli/livetv/source"
	"github.com/livetv-cli/livetv/surface"
	"github.com/livetv-cli/livetv/util"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

var (
	ErrNotMounted   = errors.New("player is not mounted")
	ErrNotConnected = errors.New("stream is not connected")
	ErrNoLevels     = errors.New("no quality levels are known yet")
	ErrInvalidLevel = errors.New("no such quality level")
	ErrUnmounted    = errors.New("player was closed")
)

// Options tune a controller.
type Options struct {
	Autoplay bool
	Audio    Audio

	// HideDelay hides the controls after the pointer stops moving in fullscreen.
	HideDelay time.Duration
	// LeaveDelay hides the controls after the pointer leaves the player in fullscreen.
	LeaveDelay time.Duration

	Metrics *metrics.Metrics
}

// DefaultOptions matches the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Autoplay:   true,
		Audio:      Audio{Volume: 1},
		HideDelay:  3 * time.Second,
		LeaveDelay: time.Second,
	}
}

// OptionsFromConfig reads the player section of the configuration.
func OptionsFromConfig() Options {
	return Options{
		Autoplay: viper.GetBool(key.PlayerAutoplay),
		Audio: Audio{
			Muted:  viper.GetBool(key.PlayerMuted),
			Volume: util.Clamp(viper.GetFloat64(key.PlayerVolume), 0, 1),
		},
		HideDelay:  time.Duration(viper.GetInt(key.PlayerControlsHideDelay)) * time.Millisecond,
		LeaveDelay: time.Duration(viper.GetInt(key.PlayerControlsLeaveDelay)) * time.Millisecond,
	}
}

// Controller owns at most one engine at a time for its surface.
type Controller struct {
	surface surface.Surface
	factory engine.Factory
	opts    Options

	// opMu serializes Mount, Restart and Unmount so teardown always completes
	// before the next engine is created
	opMu sync.Mutex

	mu        sync.Mutex
	session   Session
	src       source.Source
	gen       uint64
	bind      *binding
	desired   int
	mounted   bool
	unmounted bool
	paused    bool
	hide      *time.Timer
	hideGen   uint64

	surfaceStop func()
	surfaceDone chan struct{}

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// New creates an unmounted controller.
func New(s surface.Surface, factory engine.Factory, opts Options) *Controller {
	opts.Audio.Volume = util.Clamp(opts.Audio.Volume, 0, 1)

	return &Controller{
		surface: s,
		factory: factory,
		opts:    opts,
		session: idleSession(opts.Audio),
		desired: engine.Auto,
		paused:  true,
		subs:    make(map[int]chan struct{}),
	}
}

// Session returns a snapshot of the current state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Subscribe returns a channel that receives a value whenever the session changes.
// Notifications coalesce; read Session for the current state.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan struct{}, 1)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			delete(c.subs, id)
		})
	}
}

func (c *Controller) notify() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// update applies fn to the session under the lock and notifies subscribers.
func (c *Controller) update(fn func(s *Session)) {
	c.mu.Lock()
	fn(&c.session)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) checkMounted() error {
	switch {
	case c.unmounted:
		return ErrUnmounted
	case !c.mounted:
		return ErrNotMounted
	default:
		return nil
	}
}

// TogglePlay starts or pauses playback. The session follows the surface's events.
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	if err := c.checkMounted(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.session.Connection != Connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	playing := c.session.Play == Playing || (c.session.Play == Loading && !c.paused)
	c.mu.Unlock()

	if playing {
		return c.surface.Pause()
	}
	return c.surface.Play(context.Background())
}

// ToggleMute flips the muted flag.
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	if err := c.checkMounted(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.session.Audio.Muted = !c.session.Audio.Muted
	muted := c.session.Audio.Muted
	c.mu.Unlock()
	c.notify()

	return c.surface.SetMuted(muted)
}

// SetVolume sets the volume, clamped to [0, 1]. A positive volume unmutes, zero mutes.
func (c *Controller) SetVolume(volume float64) error {
	c.mu.Lock()
	if err := c.checkMounted(); err != nil {
		c.mu.Unlock()
		return err
	}

	volume = math.Round(util.Clamp(volume, 0, 1)*100) / 100
	wasMuted := c.session.Audio.Muted
	c.session.Audio = Audio{Volume: volume, Muted: volume == 0}
	muted := c.session.Audio.Muted
	c.mu.Unlock()
	c.notify()

	if err := c.surface.SetVolume(volume); err != nil {
		return err
	}
	if muted != wasMuted {
		return c.surface.SetMuted(muted)
	}
	return nil
}

// StepVolume moves the volume by delta.
func (c *Controller) StepVolume(delta float64) error {
	c.mu.Lock()
	current := c.session.Audio.Volume
	c.mu.Unlock()

	return c.SetVolume(current + delta)
}

// SetQualityOverride pins a level, or restores adaptive selection with engine.Auto.
// The selection stays pending until the engine confirms a level.
func (c *Controller) SetQualityOverride(index int) error {
	c.mu.Lock()
	if err := c.checkMounted(); err != nil {
		c.mu.Unlock()
		return err
	}
	if len(c.session.Levels) == 0 || c.bind == nil {
		c.mu.Unlock()
		return ErrNoLevels
	}
	if index != engine.Auto && (index < 0 || index >= len(c.session.Levels)) {
		c.mu.Unlock()
		return ErrInvalidLevel
	}

	if index == engine.Auto {
		c.session.Selection = engine.Automatic()
	} else {
		c.session.Selection = engine.PendingManual(index)
	}
	c.desired = index
	eng := c.bind.engine
	c.mu.Unlock()
	c.notify()

	eng.SetQualityOverride(index)
	return nil
}

// ToggleFullscreen asks the surface to switch fullscreen. A surface without the
// capability only flips the layout flag.
func (c *Controller) ToggleFullscreen() error {
	c.mu.Lock()
	if err := c.checkMounted(); err != nil {
		c.mu.Unlock()
		return err
	}
	want := !c.session.Fullscreen
	c.mu.Unlock()

	if err := c.surface.SetFullscreen(want); err != nil && !errors.Is(err, surface.ErrUnsupported) {
		return err
	}

	c.mu.Lock()
	c.setFullscreen(want)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Source returns the mounted source.
func (c *Controller) Source() mo.Option[source.Source] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Source
}

// Generation identifies the current engine instance. It changes on every teardown.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Controller) logStale(what string, gen uint64) {
	log.Debugf("controller: dropping %s from engine generation %d", what, gen)
}
