// Package history remembers the channels the viewer watched and the ones marked as favorites.
package history

import (
	"sort"
	"time"

	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/source"
	"github.com/livetv-cli/livetv/where"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// cacher is the disk-backed registry of watched channels, keyed by source id.
var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every watched channel.
func Get() (map[string]*Entry, error) {
	return load(cacher)
}

// Save records that src started playing now.
func Save(src source.Source) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	entry := newEntry(src)
	if existing, ok := saved[entry.ID]; ok {
		entry.Plays += existing.Plays
	}
	entry.WatchedAt = time.Now()

	saved[entry.ID] = entry
	return cacher.Set(saved)
}

// Remove forgets a watched channel.
func Remove(id string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, id)
	return cacher.Set(saved)
}

// Recent returns up to n entries, most recently watched first. A non-positive n returns all.
func Recent(n int) ([]*Entry, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	entries := lo.Values(saved)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].WatchedAt.After(entries[j].WatchedAt)
	})

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Last returns the most recently watched channel, if any.
func Last() (mo.Option[*Entry], error) {
	recent, err := Recent(1)
	if err != nil {
		return mo.None[*Entry](), err
	}
	if len(recent) == 0 {
		return mo.None[*Entry](), nil
	}
	return mo.Some(recent[0]), nil
}

func load(c *gache.Cache[map[string]*Entry]) (map[string]*Entry, error) {
	cached, expired, err := c.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}
