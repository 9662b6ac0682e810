package history

import (
	"sort"
	"strings"

	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/source"
	"github.com/livetv-cli/livetv/where"
	"github.com/metafates/gache"
	"github.com/samber/lo"
)

var favorites = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.Favorites(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Favorites returns the favorite channels ordered by name.
func Favorites() ([]*Entry, error) {
	saved, err := load(favorites)
	if err != nil {
		return nil, err
	}

	entries := lo.Values(saved)
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// IsFavorite reports whether the channel with the given id is a favorite.
func IsFavorite(id string) (bool, error) {
	saved, err := load(favorites)
	if err != nil {
		return false, err
	}

	_, ok := saved[id]
	return ok, nil
}

// ToggleFavorite adds or removes src and reports whether it is now a favorite.
func ToggleFavorite(src source.Source) (bool, error) {
	saved, err := load(favorites)
	if err != nil {
		return false, err
	}

	_, exists := saved[src.ID]
	if exists {
		delete(saved, src.ID)
	} else {
		saved[src.ID] = newEntry(src)
	}

	return !exists, favorites.Set(saved)
}
