package surface

import (
	"sync"

	"github.com/livetv-cli/livetv/log"
)

// EventKind enumerates what a surface reports.
type EventKind int

const (
	EventPlay EventKind = iota
	EventPause
	EventWaiting
	EventCanPlay
	EventVolume
	EventFullscreen
	EventLoadedMetadata
	EventError
	EventEnded
)

func (k EventKind) String() string {
	switch k {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventWaiting:
		return "waiting"
	case EventCanPlay:
		return "canplay"
	case EventVolume:
		return "volumechange"
	case EventFullscreen:
		return "fullscreenchange"
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventError:
		return "error"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is a surface notification. Volume and Muted are set for EventVolume,
// Fullscreen for EventFullscreen and Err for EventError.
type Event struct {
	Kind       EventKind
	Volume     float64
	Muted      bool
	Fullscreen bool
	Err        error
}

// hub fans surface events out to subscribers.
type hub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan Event)}
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 32)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Warnf("surface: dropping %s event for a slow subscriber", ev.Kind)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
