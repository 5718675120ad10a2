package parsers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tferro/esmcat/internal/catalog"
)

var (
	cesmDateRangeRe = regexp.MustCompile(`\d{10}-\d{10}|\d{8}-\d{8}|\d{6}-\d{6}`)
	cesmInitRe      = regexp.MustCompile(`\d{4}-\d{2}\.\d{3}`)
)

// Standard region names per model component.
var cesmSpatialDomains = map[string]string{
	"atm": "global",
	"ocn": "global_ocean",
	"lnd": "global_land",
	"ice": "global",
}

// CESMSmyle parses a CESM2 Seasonal-to-Multiyear Large Ensemble timeseries
// path. Expected layout, deepest last:
//
//	<case>/<component>/proc/tseries/<frequency>/<filename>
//
// with filenames of the form <case>.<stream>.<variable>.<start>-<end>.nc and
// case names embedding <init_year>-<init_month>.<member>.
func CESMSmyle(assetPath string) catalog.Record {
	segments := strings.Split(strings.Trim(assetPath, "/"), "/")
	if len(segments) < 6 {
		return catalog.Invalid(assetPath, "path too shallow for the CESM timeseries layout")
	}
	filename := segments[len(segments)-1]
	frequency := segments[len(segments)-2]
	component := segments[len(segments)-5]
	caseName := segments[len(segments)-6]

	dateRange := LongestMatch(cesmDateRangeRe, filename, "")
	if dateRange == "" {
		return catalog.Invalid(assetPath, fmt.Sprintf("no date range in filename %q", filename))
	}
	startTime, endTime, _ := strings.Cut(dateRange, "-")

	head := strings.Trim(strings.Split(filename, dateRange)[0], ".")
	tokens := strings.Split(head, ".")
	if len(tokens) < 3 {
		return catalog.Invalid(assetPath, fmt.Sprintf("cannot split stream and variable out of %q", filename))
	}
	variable := tokens[len(tokens)-1]
	stream := strings.Join(tokens[len(tokens)-3:len(tokens)-1], ".")

	init := LongestMatch(cesmInitRe, caseName, "")
	if init == "" {
		return catalog.Invalid(assetPath, fmt.Sprintf("case %q carries no init date and member", caseName))
	}
	initParts := strings.Split(init, ".")
	years := strings.Split(initParts[0], "-")
	initYear, _ := strconv.Atoi(years[0])
	initMonth, _ := strconv.Atoi(years[1])
	memberID, _ := strconv.Atoi(initParts[len(initParts)-1])

	spatialDomain, ok := cesmSpatialDomains[component]
	if !ok {
		spatialDomain = "global"
	}

	return catalog.Record{
		"component":      component,
		"case":           caseName,
		"variable":       variable,
		"frequency":      frequency,
		"stream":         stream,
		"member_id":      memberID,
		"init_year":      initYear,
		"init_month":     initMonth,
		"spatial_domain": spatialDomain,
		"start_time":     startTime,
		"end_time":       endTime,
		"path":           assetPath,
	}
}
