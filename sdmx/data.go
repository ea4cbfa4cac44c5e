package sdmx

import (
	"context"
	"encoding/csv"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// CSVTable holds a raw csvdata response from the portal: a header row of
// column names and zero or more records
type CSVTable struct {
	Header  []string
	Records [][]string
}

// Empty reports whether the table holds no records
func (t CSVTable) Empty() bool {
	return len(t.Records) == 0
}

// ColumnIndex returns the position of the named column, or -1 when absent
func (t CSVTable) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column in record order, or nil when
// the column is absent
func (t CSVTable) Column(name string) []string {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	values := make([]string, 0, len(t.Records))
	for _, rec := range t.Records {
		if i < len(rec) {
			values = append(values, rec[i])
		} else {
			values = append(values, "")
		}
	}
	return values
}

// ListSeries returns the flat row-per-series catalog for a dataflow, one
// record per materialized series key
func (c *Client) ListSeries(ctx context.Context, flowID string) (CSVTable, error) {
	query := url.Values{}
	query.Set("detail", "serieskeysonly")
	query.Set("format", "csvdata")

	b, err := c.get(ctx, "data/"+flowID, query, acceptCSV)
	if err != nil {
		return CSVTable{}, err
	}
	return parseCSV(b)
}

// GetSeriesData returns the full observed history for one series key within a
// dataflow. An empty key segment wildcards that dimension on the portal side.
func (c *Client) GetSeriesData(ctx context.Context, flowID, seriesKey string) (CSVTable, error) {
	query := url.Values{}
	query.Set("detail", "dataonly")
	query.Set("format", "csvdata")

	b, err := c.get(ctx, "data/"+flowID+"/"+seriesKey, query, acceptCSV)
	if err != nil {
		return CSVTable{}, err
	}
	return parseCSV(b)
}

func parseCSV(b []byte) (CSVTable, error) {
	if len(strings.TrimSpace(string(b))) == 0 {
		return CSVTable{}, nil
	}

	r := csv.NewReader(strings.NewReader(string(b)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return CSVTable{}, errors.Wrap(err, "failed to parse csvdata response")
	}
	if len(rows) == 0 {
		return CSVTable{}, nil
	}
	return CSVTable{Header: rows[0], Records: rows[1:]}, nil
}
