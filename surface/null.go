package surface

import (
	"context"
	"fmt"
	"sync"
)

// NullOptions selects the capabilities a Null surface advertises.
type NullOptions struct {
	// Native lets the surface accept locators through Load.
	Native bool
	// Buffer lets the surface accept media through Append.
	Buffer bool
	// Fullscreen makes SetFullscreen succeed instead of returning ErrUnsupported.
	Fullscreen bool
	// BlockFirstPlay rejects the first Play call with ErrAutoplayBlocked.
	BlockFirstPlay bool
	// FailAppends makes that many Append calls fail before succeeding again.
	FailAppends int
}

// NullStats counts what a Null surface has seen.
type NullStats struct {
	Written   int64
	Attaches  int
	Conflicts int
	Resets    int
	Loaded    string
}

// Null is a headless surface that discards media while reporting events like a real player.
type Null struct {
	opts NullOptions
	hub  *hub

	mu         sync.Mutex
	owner      string
	primed     bool
	paused     bool
	volume     float64
	muted      bool
	fullscreen bool
	playCalls  int
	closed     bool
	stats      NullStats
}

// NewNull creates a headless surface.
func NewNull(opts NullOptions) *Null {
	return &Null{
		opts:   opts,
		hub:    newHub(),
		paused: true,
		volume: 1,
	}
}

func (n *Null) Attach(owner string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	if n.owner != "" && n.owner != owner {
		n.stats.Conflicts++
		return fmt.Errorf("attach %s: %w (held by %s)", owner, ErrBusy, n.owner)
	}

	n.owner = owner
	n.primed = false
	n.stats.Attaches++
	return nil
}

func (n *Null) Detach(owner string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.owner != owner {
		return
	}
	n.owner = ""
	n.primed = false
	n.stats.Loaded = ""
}

func (n *Null) CanPlayNative() bool {
	return n.opts.Native
}

func (n *Null) SupportsBuffer() bool {
	return n.opts.Buffer
}

func (n *Null) Load(locator string) error {
	n.mu.Lock()
	if !n.opts.Native {
		n.mu.Unlock()
		return ErrUnsupported
	}
	if n.owner == "" {
		n.mu.Unlock()
		return fmt.Errorf("load %s: surface is not attached", locator)
	}
	n.stats.Loaded = locator
	n.mu.Unlock()

	n.hub.publish(Event{Kind: EventLoadedMetadata})
	n.hub.publish(Event{Kind: EventCanPlay})
	return nil
}

func (n *Null) Append(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	if !n.opts.Buffer {
		n.mu.Unlock()
		return ErrUnsupported
	}
	if n.owner == "" {
		n.mu.Unlock()
		return fmt.Errorf("%w: surface is not attached", ErrAppend)
	}
	if n.opts.FailAppends > 0 {
		n.opts.FailAppends--
		n.mu.Unlock()
		return fmt.Errorf("%w: decoder rejected %d bytes", ErrAppend, len(p))
	}

	n.stats.Written += int64(len(p))
	first := !n.primed
	n.primed = true
	n.mu.Unlock()

	if first {
		n.hub.publish(Event{Kind: EventCanPlay})
	}
	return nil
}

func (n *Null) ResetBuffer() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.primed = false
	n.stats.Resets++
	return nil
}

func (n *Null) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	n.playCalls++
	if n.opts.BlockFirstPlay && n.playCalls == 1 {
		n.mu.Unlock()
		return ErrAutoplayBlocked
	}
	n.paused = false
	n.mu.Unlock()

	n.hub.publish(Event{Kind: EventPlay})
	return nil
}

func (n *Null) Pause() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	n.paused = true
	n.mu.Unlock()

	n.hub.publish(Event{Kind: EventPause})
	return nil
}

func (n *Null) SetVolume(volume float64) error {
	n.mu.Lock()
	n.volume = volume
	ev := Event{Kind: EventVolume, Volume: n.volume, Muted: n.muted}
	n.mu.Unlock()

	n.hub.publish(ev)
	return nil
}

func (n *Null) SetMuted(muted bool) error {
	n.mu.Lock()
	n.muted = muted
	ev := Event{Kind: EventVolume, Volume: n.volume, Muted: n.muted}
	n.mu.Unlock()

	n.hub.publish(ev)
	return nil
}

func (n *Null) SetFullscreen(on bool) error {
	if !n.opts.Fullscreen {
		return ErrUnsupported
	}

	n.mu.Lock()
	n.fullscreen = on
	n.mu.Unlock()

	n.hub.publish(Event{Kind: EventFullscreen, Fullscreen: on})
	return nil
}

func (n *Null) Subscribe() (<-chan Event, func()) {
	return n.hub.subscribe()
}

// Fail reports a decoder failure to subscribers, as a real player would on a broken stream.
func (n *Null) Fail(err error) {
	n.hub.publish(Event{Kind: EventError, Err: err})
}

// Paused reports whether playback is paused.
func (n *Null) Paused() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.paused
}

// Owner returns the current owner, empty when detached.
func (n *Null) Owner() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.owner
}

func (n *Null) Stats() NullStats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stats
}

func (n *Null) Close() error {
	n.mu.Lock()
	n.closed = true
	n.owner = ""
	n.mu.Unlock()

	n.hub.close()
	return nil
}
