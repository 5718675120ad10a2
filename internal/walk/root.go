package walk

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tferro/esmcat/internal/apperr"
	"github.com/tferro/esmcat/internal/storage"
)

// Root is one user-specified crawl starting point. Matchers and the storage
// backend are resolved once at construction and never re-derived per call.
type Root struct {
	// Location is the root as given, scheme prefix included.
	Location string
	// Depth is the number of directory levels descended before entries are
	// treated as the listing level.
	Depth int

	matcher  *Matcher
	provider storage.Provider
	raw      string
}

// NewRoot validates the location, compiles the pattern lists, and resolves
// the storage backend. A missing root is a construction-time error.
func NewRoot(location string, depth int, include, exclude []string, opts storage.Options) (*Root, error) {
	err := validation.Errors{
		"location": validation.Validate(location, validation.Required),
		"depth":    validation.Validate(depth, validation.Min(0)),
	}.Filter()
	if err != nil {
		return nil, fmt.Errorf("walk: root %q: %v: %w", location, err, apperr.ErrInvalidConfig)
	}

	matcher, err := NewMatcher(include, exclude)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrInvalidConfig)
	}

	provider, raw, err := storage.Open(location, opts)
	if err != nil {
		return nil, err
	}

	exists, err := provider.Exists(raw)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("walk: root %q does not exist: %w", location, apperr.ErrNotFound)
	}

	return &Root{
		Location: location,
		Depth:    depth,
		matcher:  matcher,
		provider: provider,
		raw:      raw,
	}, nil
}

// Protocol returns the scheme identifier of the root's backend.
func (r *Root) Protocol() string { return r.provider.Protocol() }

// RawPath returns the scheme-stripped root path within its backend.
func (r *Root) RawPath() string { return r.raw }
