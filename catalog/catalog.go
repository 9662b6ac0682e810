// Package catalog holds the channel lineup and the lookups used to turn user input into a stream source.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/livetv-cli/livetv/source"
	"github.com/samber/lo"
)

// Quality is the nominal broadcast quality advertised by a channel.
type Quality string

const (
	SD  Quality = "SD"
	HD  Quality = "HD"
	FHD Quality = "FHD"
	UHD Quality = "4K"
)

// Channel is a catalog entry. Only channels with a Locator can be played.
type Channel struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Logo        string  `json:"logo,omitempty"`
	Locator     string  `json:"locator,omitempty"`
	Quality     Quality `json:"quality"`
	Language    string  `json:"language"`
	Country     string  `json:"country"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
}

// ErrNoStream is returned when a channel has no stream locator.
var ErrNoStream = errors.New("channel has no stream available")

// Playable reports whether the channel carries a stream locator.
func (c *Channel) Playable() bool {
	return c.Locator != ""
}

// Source converts the channel into the value mounted by the playback controller.
func (c *Channel) Source() (source.Source, error) {
	if !c.Playable() {
		return source.Source{}, fmt.Errorf("%s: %w", c.Name, ErrNoStream)
	}
	return source.New(c.ID, c.Name, c.Locator, c.Logo), nil
}

func (c *Channel) String() string {
	return c.Name
}

// All returns every channel in catalog order.
func All() []*Channel {
	return channels
}

// Playable returns the channels that can be streamed.
func Playable() []*Channel {
	return lo.Filter(channels, func(c *Channel, _ int) bool {
		return c.Playable()
	})
}

// Categories returns the distinct categories, sorted.
func Categories() []string {
	categories := lo.Uniq(lo.Map(channels, func(c *Channel, _ int) string {
		return c.Category
	}))
	sort.Strings(categories)
	return categories
}

// ByCategory returns the channels of a category; "all" or "" returns every channel.
func ByCategory(category string) []*Channel {
	if category == "" || category == "all" {
		return channels
	}
	return lo.Filter(channels, func(c *Channel, _ int) bool {
		return strings.EqualFold(c.Category, category)
	})
}

// Featured returns up to five highly rated or premium channels.
func Featured() []*Channel {
	featured := lo.Filter(channels, func(c *Channel, _ int) bool {
		return c.Rating >= 9.0 || c.Category == "premium"
	})
	if len(featured) > 5 {
		featured = featured[:5]
	}
	return featured
}

// Get returns the channel with the given id.
func Get(id string) (*Channel, bool) {
	return lo.Find(channels, func(c *Channel) bool {
		return c.ID == id
	})
}

// Search returns channels whose name fuzzily matches query, best matches first.
func Search(query string) []*Channel {
	names := lo.Map(channels, func(c *Channel, _ int) string {
		return c.Name
	})

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	return lo.Map(ranks, func(r fuzzy.Rank, _ int) *Channel {
		return channels[r.OriginalIndex]
	})
}

// Find resolves user input to a single channel: an exact id, a case-insensitive name,
// or the best fuzzy match. When nothing matches, the error names the closest channel.
func Find(query string) (*Channel, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty channel name")
	}

	if c, ok := Get(query); ok {
		return c, nil
	}

	if c, ok := lo.Find(channels, func(c *Channel) bool {
		return strings.EqualFold(c.Name, query)
	}); ok {
		return c, nil
	}

	if found := Search(query); len(found) > 0 {
		return found[0], nil
	}

	return nil, fmt.Errorf("unknown channel %q, did you mean %q?", query, Closest(query).Name)
}

// Closest returns the channel whose name has the smallest edit distance to query.
func Closest(query string) *Channel {
	query = strings.ToLower(query)
	return lo.MinBy(channels, func(a, b *Channel) bool {
		return levenshtein.Distance(query, strings.ToLower(a.Name)) < levenshtein.Distance(query, strings.ToLower(b.Name))
	})
}
