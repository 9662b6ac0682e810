// Package surface abstracts the element media is rendered into: an external player
// process or a headless sink. A surface is owned by at most one engine at a time.
package surface

import (
	"context"
	"errors"
)

var (
	// ErrBusy is returned by Attach while another owner holds the surface.
	ErrBusy = errors.New("surface is attached to another engine")
	// ErrUnsupported is returned for capabilities the surface does not have.
	ErrUnsupported = errors.New("not supported by this surface")
	// ErrAppend wraps failures to hand media data to the decoder.
	ErrAppend = errors.New("cannot append media")
	// ErrClosed is returned once the surface has been closed.
	ErrClosed = errors.New("surface is closed")
	// ErrAutoplayBlocked is returned by Play when playback must be started by the viewer.
	ErrAutoplayBlocked = errors.New("autoplay was blocked")
)

// Surface is the media element an engine renders into.
type Surface interface {
	// Attach makes owner the exclusive user of the surface.
	Attach(owner string) error
	// Detach releases the surface if owner holds it and unloads any media.
	Detach(owner string)

	// CanPlayNative reports whether the surface can load an HLS locator by itself.
	CanPlayNative() bool
	// SupportsBuffer reports whether media data can be appended directly.
	SupportsBuffer() bool

	// Load hands a locator to the surface's own HLS stack.
	Load(locator string) error
	// Append feeds media data to the decoder. It gives up when ctx is done,
	// even if the decoder is not draining its input.
	Append(ctx context.Context, p []byte) error
	// ResetBuffer drops buffered media and restarts the decoder.
	ResetBuffer() error

	Play(ctx context.Context) error
	Pause() error
	SetVolume(volume float64) error
	SetMuted(muted bool) error
	SetFullscreen(on bool) error

	// Subscribe returns a channel of surface events and a function to stop receiving them.
	Subscribe() (<-chan Event, func())

	Close() error
}

// BitrateCapper is implemented by surfaces that can limit the bitrate their own HLS stack selects.
// A zero bitrate removes the limit.
type BitrateCapper interface {
	CapBitrate(bps int) error
}
