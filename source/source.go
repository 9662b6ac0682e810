// Package source defines the stream source handed to the playback controller.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/mo"
)

// Source identifies a live stream: who it is and where its manifest lives.
// Values are immutable; a different Locator means a different stream.
type Source struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Logo    mo.Option[string] `json:"logo"`
	Locator string            `json:"locator"`
}

// New builds a Source, leaving the logo empty when logo is blank.
func New(id, name, locator, logo string) Source {
	s := Source{ID: id, Name: name, Locator: strings.TrimSpace(locator)}
	if logo = strings.TrimSpace(logo); logo != "" {
		s.Logo = mo.Some(logo)
	}
	return s
}

// FromLocator builds an ad-hoc Source for a manifest URI given on the command line.
func FromLocator(locator string) Source {
	locator = strings.TrimSpace(locator)
	name := locator
	if u, err := url.Parse(locator); err == nil && u.Host != "" {
		name = u.Host
	}
	return New(locator, name, locator, "")
}

// Validate checks that the locator is an absolute http(s) URI that is safe to hand to a player process.
func (s Source) Validate() error {
	l := s.Locator
	if l == "" {
		return errors.New("empty stream locator")
	}

	if strings.ContainsAny(l, "\x00\n\r\t ") {
		return errors.New("stream locator contains whitespace or control characters")
	}

	// a leading dash would be read as a flag by the player
	if strings.HasPrefix(l, "-") {
		return fmt.Errorf("stream locator %q looks like a flag", l)
	}

	u, err := url.Parse(l)
	if err != nil {
		return fmt.Errorf("invalid stream locator: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported stream locator scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("stream locator %q has no host", l)
	}

	return nil
}

// Same reports whether both sources point to the same stream.
func (s Source) Same(other Source) bool {
	return s.Locator == other.Locator
}

func (s Source) String() string {
	return s.Name
}
