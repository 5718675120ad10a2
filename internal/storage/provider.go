// Package storage defines the filesystem/object-store abstraction the
// directory walker and catalog writer operate against.
package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tferro/esmcat/internal/apperr"
)

// Entry describes one member of a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// Options carries opaque per-root access options (credentials, region, ...).
// The local backend ignores them; remote backends interpret them as needed.
type Options map[string]string

// Provider is the interface to a storage backend. Paths passed to a
// Provider are raw (scheme-stripped) paths within the backend's namespace.
type Provider interface {
	// Protocol returns the scheme identifier for this backend ("file", "s3", ...).
	Protocol() string
	// ListDir returns the immediate entries under dir.
	ListDir(dir string) ([]Entry, error)
	// Exists reports whether an entry exists at path.
	Exists(path string) (bool, error)
	// ReadFile returns the contents of the file at path.
	ReadFile(path string) ([]byte, error)
	// WriteFile atomically replaces the file at path with data.
	WriteFile(path string, data []byte) error
}

// Factory constructs a Provider for a registered scheme.
type Factory func(opts Options) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available under the given scheme. The local
// filesystem backend is registered at init under "file".
func Register(scheme string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[scheme] = f
}

// Open resolves a root location string against the scheme registry and
// returns the backend together with the scheme-stripped root path.
// A location without a scheme prefix is treated as a local path.
func Open(location string, opts Options) (Provider, string, error) {
	scheme := "file"
	raw := location
	if i := strings.Index(location, "://"); i >= 0 {
		scheme = location[:i]
		raw = location[i+3:]
	}

	registryMu.RLock()
	f, ok := registry[scheme]
	registryMu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("storage: unsupported scheme %q: %w", scheme, apperr.ErrInvalidConfig)
	}

	p, err := f(opts)
	if err != nil {
		return nil, "", fmt.Errorf("storage: open %s: %w", location, err)
	}
	return p, raw, nil
}

// Qualify rebuilds the user-facing path for a raw backend path. Local paths
// stay bare; remote paths get their scheme prefix back.
func Qualify(protocol, raw string) string {
	if protocol == "file" {
		return raw
	}
	return protocol + "://" + raw
}

// SortEntries orders a listing by name so walks are deterministic.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}
