// Package parsers provides the built-in per-format asset parsers and the
// registry the CLI resolves parser names against.
//
// Every parser honors the failure-record contract: it never panics, and
// converts anything it cannot handle into a failure record carrying the
// reserved marker fields.
package parsers

import (
	"fmt"
	"path"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/tferro/esmcat/internal/apperr"
	"github.com/tferro/esmcat/internal/catalog"
	"github.com/tferro/esmcat/internal/parse"
)

var registry = map[string]parse.Func{
	"default":     Default,
	"cmip6":       CMIP6,
	"cesm2-smyle": CESMSmyle,
	"amwg-obs":    AMWGObs,
}

// Lookup resolves a registered parser by name.
func Lookup(name string) (parse.Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("parsers: unknown parser %q (have %s): %w",
			name, strings.Join(Names(), ", "), apperr.ErrInvalidConfig)
	}
	return fn, nil
}

// Names returns the registered parser names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wrap converts a panicking parser into one honoring the failure-record
// contract: a panic becomes a failure record carrying the panic value and
// stack trace. Intended for user-supplied parse functions.
func Wrap(fn parse.Func) parse.Func {
	return func(assetPath string) (rec catalog.Record) {
		defer func() {
			if r := recover(); r != nil {
				rec = catalog.Invalid(assetPath, fmt.Sprintf("panic: %v\n%s", r, debug.Stack()))
			}
		}()
		return fn(assetPath)
	}
}

// Default extracts the minimal column set derivable from any asset path: the
// path itself and the leading filename token as the variable name, following
// the <variable>_<rest> naming convention common to climate archives.
func Default(assetPath string) catalog.Record {
	stem := stemOf(assetPath)
	variable := stem
	if i := strings.IndexByte(stem, '_'); i > 0 {
		variable = stem[:i]
	}
	return catalog.Record{
		"path":     assetPath,
		"variable": variable,
	}
}

// stemOf returns the filename without its extension. Asset paths always use
// forward slashes, scheme-qualified or not.
func stemOf(assetPath string) string {
	base := path.Base(assetPath)
	return strings.TrimSuffix(base, path.Ext(base))
}
