// Package diskstore backs theme.Storage with a small on-disk key-value
// store, so non-browser surfaces (the preview CLI) can remember an
// appearance preference between runs.
package diskstore

import (
	"github.com/peterbourgon/diskv/v3"
	"github.com/studyhallhq/studyhall/pkg/theme"
)

var _ theme.Storage = (*Store)(nil)

// Store persists preference strings under a base directory, one file per
// key. Failed reads and writes are swallowed: theme storage is fail-soft
// everywhere, and a CLI that cannot write its pref dir should still render.
type Store struct {
	d *diskv.Diskv
}

// New creates a Store rooted at basePath. The directory is created lazily
// on first write.
func New(basePath string) *Store {
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: 64 * 1024,
		}),
	}
}

// Get implements theme.Storage.
func (s *Store) Get(key string) (string, bool) {
	data, err := s.d.Read(key)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set implements theme.Storage.
func (s *Store) Set(key, value string) {
	_ = s.d.Write(key, []byte(value))
}

// Delete implements theme.Storage.
func (s *Store) Delete(key string) {
	_ = s.d.Erase(key)
}
