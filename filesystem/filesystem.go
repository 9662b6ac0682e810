// Package filesystem holds the afero backend every config, history, log and cache access goes through.
// Tests swap in an in-memory backend so nothing touches the real home directory.
package filesystem

import "github.com/spf13/afero"

var backend = newBackend(afero.NewOsFs())

func newBackend(fs afero.Fs) afero.Afero {
	return afero.Afero{Fs: fs}
}

// API returns the active backend.
func API() afero.Afero {
	return backend
}

// SetOsFs switches to the real filesystem.
func SetOsFs() {
	backend = newBackend(afero.NewOsFs())
}

// SetMemMapFs switches to a fresh in-memory filesystem.
func SetMemMapFs() {
	backend = newBackend(afero.NewMemMapFs())
}
