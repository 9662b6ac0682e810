package history

import (
	"fmt"
	"time"

	"github.com/livetv-cli/livetv/source"
)

// Entry is a channel remembered on disk.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Locator   string    `json:"locator"`
	Logo      string    `json:"logo,omitempty"`
	WatchedAt time.Time `json:"watched_at"`
	Plays     int       `json:"plays"`
}

func newEntry(src source.Source) *Entry {
	return &Entry{
		ID:      src.ID,
		Name:    src.Name,
		Locator: src.Locator,
		Logo:    src.Logo.OrEmpty(),
		Plays:   1,
	}
}

// Source rebuilds the stream source the entry was saved from.
func (e *Entry) Source() source.Source {
	return source.New(e.ID, e.Name, e.Locator, e.Logo)
}

func (e *Entry) String() string {
	if e.Plays <= 1 {
		return e.Name
	}
	return fmt.Sprintf("%s (%d plays)", e.Name, e.Plays)
}
