package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/livetv-cli/livetv/surface"
)

// Kind classifies engine failures. The controller reacts to the kind only.
type Kind int

const (
	// UnknownFatal covers failures that fit no other kind.
	UnknownFatal Kind = iota
	// UnsupportedPlatform means the surface lacks the capability the engine needs.
	UnsupportedPlatform
	// NetworkError covers manifest, playlist and fragment delivery failures.
	NetworkError
	// MediaError covers undecodable or unsupported media.
	MediaError
)

func (k Kind) String() string {
	switch k {
	case UnsupportedPlatform:
		return "unsupported platform"
	case NetworkError:
		return "network error"
	case MediaError:
		return "media error"
	default:
		return "fatal error"
	}
}

// Error is a classified engine failure.
type Error struct {
	Kind  Kind
	Fatal bool
	Err   error
}

// NewError wraps err with a kind.
func NewError(kind Kind, fatal bool, err error) *Error {
	return &Error{Kind: kind, Fatal: fatal, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the text shown to the viewer.
func (e *Error) Message() string {
	switch e.Kind {
	case UnsupportedPlatform:
		return "HLS streaming is not supported by this player."
	case NetworkError:
		return "Network error: Unable to load the stream. Please check your connection."
	case MediaError:
		return "Media error: The stream format is not supported."
	default:
		return "Fatal error: Unable to play the stream."
	}
}

// Retryable reports whether restarting the stream can help.
func (e *Error) Retryable() bool {
	return e.Kind != UnsupportedPlatform
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

var (
	// ErrDecode marks playlist or media payloads that cannot be understood.
	ErrDecode = errors.New("cannot decode media")
	// ErrDestroyed is returned by Load on an engine that has been destroyed.
	ErrDestroyed = errors.New("engine destroyed")
)

// Classify maps a raw failure to the engine taxonomy. An *Error keeps its kind.
func Classify(err error, fatal bool) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return NewError(classified.Kind, fatal, classified.Err)
	}

	var (
		status *StatusError
		netErr net.Error
	)

	switch {
	case errors.Is(err, surface.ErrUnsupported):
		return NewError(UnsupportedPlatform, fatal, err)
	case errors.Is(err, ErrDecode), errors.Is(err, surface.ErrAppend):
		return NewError(MediaError, fatal, err)
	case errors.As(err, &status),
		errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.ErrUnexpectedEOF):
		return NewError(NetworkError, fatal, err)
	default:
		return NewError(UnknownFatal, fatal, err)
	}
}
