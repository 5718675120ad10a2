package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tferro/esmcat/internal/catalog"
)

var versionRe = regexp.MustCompile(`v\d{8}|v\d{1}`)

// CMIP6 filename templates per the Data Reference Syntax:
//
//	<variable_id>_<table_id>_<source_id>_<experiment_id>_<member_id>_<grid_label>[_<time_range>].nc
//
// The time_range segment is omitted for time-invariant fields.
var cmip6FilenameFields = []string{
	"variable_id", "table_id", "source_id", "experiment_id", "member_id", "grid_label",
}

// CMIP6 directory segments above the file, deepest last:
//
//	<mip_era>/<activity_id>/<institution_id>/<source_id>/<experiment_id>/
//	<member_id>/<table_id>/<variable_id>/<grid_label>/<version>
var cmip6DirFields = []string{
	"version", "grid_label", "variable_id", "table_id", "member_id",
	"experiment_id", "source_id", "institution_id", "activity_id", "mip_era",
}

// CMIP6 parses a CMIP6 DRS path into its controlled-vocabulary attributes.
// The filename is authoritative; directory segments contribute the
// attributes the filename does not carry when the path is deep enough.
func CMIP6(assetPath string) catalog.Record {
	stem := stemOf(assetPath)
	parts := strings.Split(stem, "_")
	if len(parts) != len(cmip6FilenameFields) && len(parts) != len(cmip6FilenameFields)+1 {
		return catalog.Invalid(assetPath,
			fmt.Sprintf("filename %q does not follow the CMIP6 DRS template", stem))
	}

	rec := catalog.Record{"path": assetPath}
	for i, field := range cmip6FilenameFields {
		rec[field] = parts[i]
	}
	if len(parts) == len(cmip6FilenameFields)+1 {
		rec["time_range"] = parts[len(parts)-1]
	}

	segments := strings.Split(strings.Trim(assetPath, "/"), "/")
	segments = segments[:len(segments)-1] // drop the filename
	for i, field := range cmip6DirFields {
		idx := len(segments) - 1 - i
		if idx < 0 {
			break
		}
		if _, ok := rec[field]; ok {
			continue
		}
		rec[field] = segments[idx]
	}

	version := LongestMatch(versionRe, assetPath, "")
	if version == "" {
		version = "v0"
	}
	rec["version"] = version

	rec["variable"] = rec["variable_id"]
	return rec
}
