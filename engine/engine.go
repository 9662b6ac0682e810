// Package engine defines the streaming engine binding: the contract every HLS engine
// implementation fulfils towards the playback controller, the events it reports,
// and the error taxonomy the controller reacts to.
package engine

import (
	"context"
	"fmt"

	"github.com/livetv-cli/livetv/source"
	"github.com/livetv-cli/livetv/surface"
)

// Auto is the quality override that re-enables adaptive level selection.
const Auto = -1

// Engine is one streaming engine instance bound to a media surface.
//
// An instance serves a single Load. Destroy releases everything the instance
// acquired and closes the Events channel; it is idempotent and safe to call
// whether or not Load ran.
type Engine interface {
	// Load attaches to the surface and resolves once the manifest is parsed and at
	// least one level is known. Cancelling ctx aborts a pending load.
	Load(ctx context.Context, src source.Source) (ParseResult, error)

	// Destroy stops all loading, detaches from the surface and closes Events.
	Destroy()

	// SetQualityOverride pins a level index, or restores adaptive selection with Auto.
	SetQualityOverride(index int)

	// QualityLevels returns the levels known from the last parse.
	QualityLevels() []Level

	// Events delivers engine notifications until Destroy.
	Events() <-chan Event
}

// Factory creates a fresh engine bound to the given surface.
type Factory func(s surface.Surface) Engine

// Level is one selectable rendition of the stream.
type Level struct {
	Index   int    `json:"index" jsonschema:"description=Position of the level, ordered by ascending bitrate."`
	Label   string `json:"label" jsonschema:"description=Human readable name such as 720p."`
	Bitrate int    `json:"bitrate" jsonschema:"description=Advertised bandwidth in bits per second."`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Codecs  string `json:"codecs,omitempty"`
	URI     string `json:"uri" jsonschema:"description=Absolute URI of the level playlist."`
}

// Describe renders the level as shown in the quality menu, e.g. "720p - 2500kbps".
func (l Level) Describe() string {
	if l.Bitrate <= 0 {
		return l.Label
	}
	return fmt.Sprintf("%s - %dkbps", l.Label, l.Bitrate/1000)
}

// LabelFor names a level by its height, falling back to its bitrate.
func LabelFor(height, bitrate int) string {
	switch {
	case height > 0:
		return fmt.Sprintf("%dp", height)
	case bitrate > 0:
		return fmt.Sprintf("%dk", bitrate/1000)
	default:
		return "Unknown"
	}
}

// StreamInfo summarizes what the manifest advertises.
type StreamInfo struct {
	Levels      int `json:"levels"`
	AudioTracks int `json:"audio_tracks"`
	Subtitles   int `json:"subtitles"`
}

// ParseResult is what a successful Load reports.
type ParseResult struct {
	Levels []Level    `json:"levels"`
	Info   StreamInfo `json:"info"`
	Live   bool       `json:"live"`
}
