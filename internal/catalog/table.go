package catalog

import (
	"fmt"
	"log/slog"
	"sort"
)

// Table is the aggregated result of a parse run: valid rows forming the
// catalog, plus the failure records set aside during partitioning. Columns
// is the sorted union of fields across valid rows; rows missing a column
// materialize as an empty cell.
type Table struct {
	Columns []string
	Rows    []Record
	Invalid []Record
}

// FromRecords partitions records into valid rows and failure records. A
// record is invalid iff it carries the reserved invalid-asset marker; marker
// fields never survive into valid rows. A non-empty invalid set emits an
// aggregate warning, never per-file log lines.
func FromRecords(records []Record, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Table{}
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if rec.IsInvalid() {
			t.Invalid = append(t.Invalid, Record{
				InvalidAssetKey: rec[InvalidAssetKey],
				TracebackKey:    rec[TracebackKey],
			})
			continue
		}
		row := make(Record, len(rec))
		for k, v := range rec {
			if k == InvalidAssetKey || k == TracebackKey {
				continue
			}
			row[k] = v
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	sort.Strings(t.Columns)

	if len(t.Invalid) > 0 {
		logger.Warn("unable to parse some assets; see the invalid-assets report written next to the catalog",
			slog.Int("count", len(t.Invalid)))
	}
	return t
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Paths returns the value of column for every valid row, in row order.
func (t *Table) Paths(column string) []string {
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, formatValue(row[column]))
	}
	return out
}

// formatValue renders a cell for the flat table; absent fields become the
// empty marker.
func formatValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
