package catalog

// Data formats a catalog may declare for its assets.
const (
	FormatNetCDF = "netcdf"
	FormatZarr   = "zarr"
)

// DefaultEsmcatVersion is the collection-spec version written when the
// caller does not pin one.
const DefaultEsmcatVersion = "0.0.1"

// Attribute describes one column of the catalog table.
type Attribute struct {
	ColumnName string `json:"column_name"`
	Vocabulary string `json:"vocabulary"`
}

// Assets declares where asset paths live and how their data format is
// determined: a single format for homogeneous catalogs, or a per-row format
// column for mixed ones.
type Assets struct {
	ColumnName       string `json:"column_name"`
	Format           string `json:"format,omitempty"`
	FormatColumnName string `json:"format_column_name,omitempty"`
}

// Aggregation is one aggregation rule applied to query results. The yaml
// tags let rules be declared directly in the application configuration.
type Aggregation struct {
	Type          string         `json:"type" yaml:"type"`
	AttributeName string         `json:"attribute_name" yaml:"attribute_name"`
	Options       map[string]any `json:"options,omitempty" yaml:"options"`
}

// AggregationControl groups the columns that define aggregatable subsets.
type AggregationControl struct {
	VariableColumnName string        `json:"variable_column_name"`
	GroupbyAttrs       []string      `json:"groupby_attrs"`
	Aggregations       []Aggregation `json:"aggregations"`
}

// Collection is the description document persisted next to the catalog
// table. External catalog readers depend on this exact shape.
type Collection struct {
	EsmcatVersion      string             `json:"esmcat_version"`
	ID                 string             `json:"id"`
	Description        string             `json:"description"`
	CatalogFile        string             `json:"catalog_file"`
	LastUpdated        string             `json:"last_updated"`
	Attributes         []Attribute        `json:"attributes"`
	Assets             Assets             `json:"assets"`
	AggregationControl AggregationControl `json:"aggregation_control"`
}
