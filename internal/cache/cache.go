// Package cache prunes files livetv leaves behind: daily logs and stale cache entries.
package cache

import (
	"os"
	"time"

	"github.com/livetv-cli/livetv/filesystem"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/where"
	"github.com/spf13/afero"
)

// TTL is how long a log or cache file is kept after its last write.
const TTL = 7 * 24 * time.Hour

// Prune removes the regular files under dir that were last modified before now-ttl.
// It returns how many files were removed.
func Prune(dir string, ttl time.Duration, now time.Time) (int, error) {
	fs := filesystem.API()
	cutoff := now.Add(-ttl)

	var removed int
	err := afero.Walk(fs.Fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := fs.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// CollectGarbage prunes expired logs and cache entries.
func CollectGarbage() {
	for _, dir := range []string{where.Logs(), where.Cache()} {
		removed, err := Prune(dir, TTL, time.Now())
		if err != nil {
			log.Warnf("cache: prune %s: %v", dir, err)
			continue
		}
		if removed > 0 {
			log.Debugf("cache: removed %d expired files from %s", removed, dir)
		}
	}
}
