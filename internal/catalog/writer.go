package catalog

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/tferro/esmcat/internal/apperr"
	"github.com/tferro/esmcat/internal/storage"
)

// SaveOptions configures catalog persistence. Exactly one of DataFormat and
// FormatColumn must be set.
type SaveOptions struct {
	// CatalogFile is the destination path of the CSV table. The collection
	// JSON is written next to it as <stem>.json.
	CatalogFile    string
	PathColumn     string
	VariableColumn string
	DataFormat     string
	FormatColumn   string
	GroupbyAttrs   []string
	Aggregations   []Aggregation
	// Attributes overrides the per-column metadata; when nil, one entry with
	// an empty vocabulary is derived per table column.
	Attributes    []Attribute
	ID            string
	Description   string
	EsmcatVersion string
	// AbsoluteCatalogFile makes the JSON document reference the table by its
	// full path instead of the bare filename.
	AbsoluteCatalogFile bool
}

func (o *SaveOptions) validate(t *Table) error {
	if o.CatalogFile == "" {
		return fmt.Errorf("catalog: catalog file is required: %w", apperr.ErrInvalidConfig)
	}
	if (o.DataFormat == "") == (o.FormatColumn == "") {
		return fmt.Errorf("catalog: exactly one of data format and format column must be set: %w", apperr.ErrInvalidConfig)
	}
	if o.DataFormat != "" && o.DataFormat != FormatNetCDF && o.DataFormat != FormatZarr {
		return fmt.Errorf("catalog: unknown data format %q: %w", o.DataFormat, apperr.ErrInvalidConfig)
	}

	required := []string{o.PathColumn, o.VariableColumn}
	required = append(required, o.GroupbyAttrs...)
	if o.FormatColumn != "" {
		required = append(required, o.FormatColumn)
	}
	for _, col := range required {
		if col == "" {
			return fmt.Errorf("catalog: empty column name in save options: %w", apperr.ErrInvalidConfig)
		}
		// A table with no valid rows has no columns; it must still persist so
		// the invalid-assets report reaches the operator.
		if len(t.Rows) > 0 && !t.HasColumn(col) {
			return fmt.Errorf("catalog: column %q not present in table: %w", col, apperr.ErrInvalidConfig)
		}
	}
	return nil
}

// Writer persists a finalized table and its collection document.
type Writer struct {
	store  storage.Provider
	logger *slog.Logger
	now    func() time.Time
}

// NewWriter creates a catalog writer over the given backend.
func NewWriter(store storage.Provider, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: store, logger: logger, now: time.Now}
}

// Save writes the CSV table and the collection JSON, returning both paths.
// Writes go through temp-and-rename, under a cross-process lock shared with
// concurrent builders. If the table has failure records, a sibling
// invalid-assets report is written as well; a report write failure is logged
// but never rolls back the table write.
func (w *Writer) Save(t *Table, opts SaveOptions) (string, string, error) {
	if err := opts.validate(t); err != nil {
		return "", "", err
	}

	lock := flock.New(opts.CatalogFile + ".lock")
	if err := lock.Lock(); err != nil {
		return "", "", fmt.Errorf("catalog: lock %s: %w", opts.CatalogFile, err)
	}
	defer func() { _ = lock.Unlock() }()

	csvData, err := encodeCSV(t)
	if err != nil {
		return "", "", err
	}
	if err := w.store.WriteFile(opts.CatalogFile, csvData); err != nil {
		return "", "", err
	}

	if len(t.Invalid) > 0 {
		report := InvalidReportPath(opts.CatalogFile)
		if err := w.writeInvalidReport(report, t.Invalid); err != nil {
			w.logger.Error("failed to write invalid-assets report",
				slog.String("path", report),
				slog.String("error", err.Error()))
		}
	}

	jsonPath, err := w.writeCollection(t, opts)
	if err != nil {
		return "", "", err
	}
	return opts.CatalogFile, jsonPath, nil
}

func (w *Writer) writeCollection(t *Table, opts SaveOptions) (string, error) {
	attrs := opts.Attributes
	if attrs == nil {
		attrs = make([]Attribute, 0, len(t.Columns))
		for _, col := range t.Columns {
			attrs = append(attrs, Attribute{ColumnName: col, Vocabulary: ""})
		}
	}

	version := opts.EsmcatVersion
	if version == "" {
		version = DefaultEsmcatVersion
	}
	groupby := opts.GroupbyAttrs
	if len(groupby) == 0 {
		groupby = []string{opts.PathColumn}
	}
	aggregations := opts.Aggregations
	if aggregations == nil {
		aggregations = []Aggregation{}
	}

	reference := filepath.Base(opts.CatalogFile)
	if opts.AbsoluteCatalogFile {
		abs, err := filepath.Abs(opts.CatalogFile)
		if err != nil {
			return "", fmt.Errorf("catalog: resolve %s: %w", opts.CatalogFile, err)
		}
		reference = abs
	}

	col := Collection{
		EsmcatVersion: version,
		ID:            opts.ID,
		Description:   opts.Description,
		CatalogFile:   reference,
		LastUpdated:   w.now().UTC().Format("2006-01-02T15:04:05Z"),
		Attributes:    attrs,
		Assets: Assets{
			ColumnName:       opts.PathColumn,
			Format:           opts.DataFormat,
			FormatColumnName: opts.FormatColumn,
		},
		AggregationControl: AggregationControl{
			VariableColumnName: opts.VariableColumn,
			GroupbyAttrs:       groupby,
			Aggregations:       aggregations,
		},
	}

	data, err := json.MarshalIndent(col, "", "  ")
	if err != nil {
		return "", fmt.Errorf("catalog: encode collection: %w", err)
	}
	data = append(data, '\n')

	jsonPath := filepath.Join(filepath.Dir(opts.CatalogFile), stem(opts.CatalogFile)+".json")
	if err := w.store.WriteFile(jsonPath, data); err != nil {
		return "", err
	}
	return jsonPath, nil
}

func (w *Writer) writeInvalidReport(path string, invalid []Record) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write([]string{InvalidAssetKey, TracebackKey}); err != nil {
		return err
	}
	for _, rec := range invalid {
		if err := cw.Write([]string{
			formatValue(rec[InvalidAssetKey]),
			formatValue(rec[TracebackKey]),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return w.store.WriteFile(path, buf.Bytes())
}

func encodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("catalog: write header: %w", err)
	}
	row := make([]string, len(t.Columns))
	for _, rec := range t.Rows {
		for i, col := range t.Columns {
			row[i] = formatValue(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return nil, fmt.Errorf("catalog: write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("catalog: encode table: %w", err)
	}
	return buf.Bytes(), nil
}

// InvalidReportPath returns the sibling report file for a catalog table.
func InvalidReportPath(catalogFile string) string {
	return filepath.Join(filepath.Dir(catalogFile), "invalid_assets_"+stem(catalogFile)+".csv")
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
