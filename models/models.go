package models

// DatasetListResults contains every dataset published by the data portal
type DatasetListResults struct {
	Items []Dataset `json:"items"`
	Count int       `json:"count"`
}

// Dataset identifies one queryable collection of series
type Dataset struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// DimensionList is the dimensional schema of a dataset, in canonical key
// order, excluding the temporal dimension
type DimensionList struct {
	FlowID string      `json:"flow_id"`
	Items  []Dimension `json:"items"`
	Count  int         `json:"count"`
}

// Dimension is one coordinate axis of a series key
type Dimension struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Codes []Code `json:"codes,omitempty"`
}

// Code is one enumerated value of a dimension
type Code struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// CatalogResults lists the already-materialized series of a dataset
type CatalogResults struct {
	FlowID string         `json:"flow_id"`
	Items  []CatalogEntry `json:"items"`
	Count  int            `json:"count"`
}

// CatalogEntry is one normalized series catalog row
type CatalogEntry struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// KeysRequest is the body of a key construction call
type KeysRequest struct {
	Selection map[string][]string `json:"selection"`
}

// KeysResults holds the series keys a selection expands to
type KeysResults struct {
	FlowID string   `json:"flow_id"`
	Keys   []string `json:"keys"`
	Count  int      `json:"count"`
}

// DataRequest is the body of a batch fetch call. Keys are fetched as given;
// when a selection is also present, keys built from it come first and
// explicit keys are appended, de-duplicated first-wins.
type DataRequest struct {
	Keys           []string            `json:"keys,omitempty"`
	Selection      map[string][]string `json:"selection,omitempty"`
	Normalise      string              `json:"normalise,omitempty"`
	RollingWindows []int               `json:"rolling_windows,omitempty"`
}

// DataResults is a wide table: a shared time index with one column per
// successfully fetched series, plus a warning per failed key
type DataResults struct {
	FlowID   string         `json:"flow_id"`
	Periods  []string       `json:"periods"`
	Columns  []SeriesColumn `json:"columns"`
	Warnings []FetchWarning `json:"warnings,omitempty"`
}

// SeriesColumn is one series' values aligned to the result's period index;
// null marks periods the series has no observation for
type SeriesColumn struct {
	Key    string     `json:"key,omitempty"`
	Label  string     `json:"label"`
	Values []*float64 `json:"values"`
}

// FetchWarning reports one series key that failed to fetch without aborting
// the batch
type FetchWarning struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}
