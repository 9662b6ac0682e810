package controller

import (
	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/source"
	"github.com/samber/mo"
)

// Connection is the link state between the controller and the stream.
type Connection int

const (
	// Idle means nothing is mounted.
	Idle Connection = iota
	Connecting
	Connected
	Error
)

// String returns the status line shown to the viewer.
func (c Connection) String() string {
	switch c {
	case Connecting:
		return "Connecting..."
	case Connected:
		return "Connected"
	case Error:
		return "Connection Error"
	default:
		return "Idle"
	}
}

// Play is the transport state of the surface.
type Play int

const (
	Paused Play = iota
	Playing
	// Loading means playback stalled waiting for data.
	Loading
)

func (p Play) String() string {
	switch p {
	case Playing:
		return "playing"
	case Loading:
		return "loading"
	default:
		return "paused"
	}
}

// Audio is the viewer's audio setting. Volume is in [0, 1].
type Audio struct {
	Muted  bool
	Volume float64
}

// Stats accumulates fragment deliveries for the current engine.
type Stats struct {
	Fragments int
	Bytes     int64
	Bandwidth float64
}

// Session is a snapshot of the playback state.
type Session struct {
	Source     mo.Option[source.Source]
	Connection Connection
	Play       Play
	Audio      Audio

	// Levels is empty until a manifest was parsed for the current source.
	Levels       []engine.Level
	Selection    engine.Selection
	PlayingLevel int
	LastError    mo.Option[*engine.Error]
	Info         engine.StreamInfo
	Stats        Stats

	Fullscreen      bool
	ControlsVisible bool
}

// Playing reports whether media is advancing or about to.
func (s Session) Playing() bool {
	return s.Play == Playing
}

// CanRetry reports whether Restart can help after an error.
func (s Session) CanRetry() bool {
	err, ok := s.LastError.Get()
	return !ok || err.Retryable()
}

// ActiveLevel returns the level being decoded, if known.
func (s Session) ActiveLevel() mo.Option[engine.Level] {
	if s.PlayingLevel < 0 || s.PlayingLevel >= len(s.Levels) {
		return mo.None[engine.Level]()
	}
	return mo.Some(s.Levels[s.PlayingLevel])
}

func (s Session) clone() Session {
	s.Levels = append([]engine.Level(nil), s.Levels...)
	return s
}

func idleSession(audio Audio) Session {
	return Session{
		Connection:      Idle,
		Play:            Paused,
		Audio:           audio,
		PlayingLevel:    -1,
		ControlsVisible: true,
	}
}
