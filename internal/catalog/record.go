// Package catalog defines the parse-record protocol, the aggregated result
// table, and the persisted catalog file pair (CSV table + collection JSON).
package catalog

// Reserved field names forming the process-wide failure protocol between the
// core and user-supplied parsers. A parser must never panic; on failure it
// returns a record carrying exactly these two fields.
const (
	InvalidAssetKey = "INVALID_ASSET"
	TracebackKey    = "TRACEBACK"
)

// Record is one parse result: a flat mapping from column name to value.
// A failure record carries the two reserved marker fields instead of data.
type Record map[string]any

// Invalid constructs a failure record for path with the given error detail.
func Invalid(path, detail string) Record {
	return Record{InvalidAssetKey: path, TracebackKey: detail}
}

// IsInvalid reports whether r is a failure record.
func (r Record) IsInvalid() bool {
	_, ok := r[InvalidAssetKey]
	return ok
}
