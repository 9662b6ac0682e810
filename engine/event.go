package engine

import (
	"sync"
	"time"
)

// Event is a notification emitted by an engine. The concrete types are
// ManifestParsed, QualityChanged, FragmentLoaded, FatalError and RecoverableError.
type Event interface {
	event()
}

// ManifestParsed reports the levels of a freshly parsed manifest.
type ManifestParsed struct {
	Levels []Level
	Info   StreamInfo
}

// QualityChanged reports the level the engine now decodes.
type QualityChanged struct {
	Level int
}

// FragmentLoaded reports a fragment handed to the surface.
type FragmentLoaded struct {
	Level     int
	Bytes     int
	Duration  time.Duration
	Bandwidth float64
}

// FatalError reports an error after which the engine stopped loading.
type FatalError struct {
	Err *Error
}

// RecoverableError reports an error the engine is handling by itself.
type RecoverableError struct {
	Err *Error
}

func (ManifestParsed) event()   {}
func (QualityChanged) event()   {}
func (FragmentLoaded) event()   {}
func (FatalError) event()       {}
func (RecoverableError) event() {}

// Emitter delivers events to a single consumer and closes the channel exactly once.
// Emit never blocks past the done channel and is a no-op after Close.
type Emitter struct {
	mu     sync.RWMutex
	ch     chan Event
	done   <-chan struct{}
	closed bool
}

// NewEmitter creates an emitter whose pending sends are abandoned once done is closed.
func NewEmitter(done <-chan struct{}) *Emitter {
	return &Emitter{
		ch:   make(chan Event, 64),
		done: done,
	}
}

func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}

	select {
	case e.ch <- ev:
	case <-e.done:
	}
}

func (e *Emitter) Events() <-chan Event {
	return e.ch
}

// Close closes the channel. Callers must close done first so blocked emitters return.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
}
