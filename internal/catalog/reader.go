package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/tferro/esmcat/internal/storage"
)

// ReadCSV loads a previously persisted catalog table. All cells come back as
// strings; row and column order follow the file.
func ReadCSV(store storage.Provider, path string) (*Table, error) {
	data, err := store.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog: %s has no header row", path)
	}

	t := &Table{Columns: records[0]}
	for _, fields := range records[1:] {
		row := make(Record, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(fields) {
				row[col] = fields[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
