package series

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ONSdigital/dp-sdmx-series-controller/sdmx"
	"github.com/pkg/errors"
)

const (
	timePeriodColumn = "TIME_PERIOD"
	obsValueColumn   = "OBS_VALUE"
)

// labelColumns are checked in order when composing a display label for a
// fetched series; the first column with a non-empty value wins
var labelColumns = []string{"TITLE_COMPL", "TITLE", "UNIT", "CURRENCY", "CURRENCY_DENOM", "EXR_TYPE", "EXR_SUFFIX"}

// ErrBadSeriesFormat is the cause of any fetch failing because the portal
// response lacks a required column
var ErrBadSeriesFormat = errors.New("series response is missing a required column")

// DataClient is the portal collaborator a Fetcher needs: one stateless
// observation lookup per series key
type DataClient interface {
	GetSeriesData(ctx context.Context, flowID, seriesKey string) (sdmx.CSVTable, error)
}

// Observation is one (period, value) pair. Time is zero when the raw period
// could not be parsed; Value is nil when the observation is absent or not
// numeric.
type Observation struct {
	Period string
	Time   time.Time
	Value  *float64
}

// Series is the observed history of one key, sorted ascending by timestamp,
// with a human-readable display label
type Series struct {
	FlowID       string
	Key          string
	Label        string
	Observations []Observation
}

// Warning records one key that failed to fetch during a batch. It never
// aborts the batch it belongs to.
type Warning struct {
	FlowID string
	Key    string
	Err    error
}

// Fetcher retrieves series observation histories one key at a time
type Fetcher struct {
	cli DataClient
}

// NewFetcher creates a Fetcher over the given data client
func NewFetcher(cli DataClient) *Fetcher {
	return &Fetcher{cli: cli}
}

// FetchSeries retrieves the full observed history for one key. The response
// must carry a time-period and an observed-value column; anything else about
// it may be missing. Periods that fail to parse keep a null timestamp rather
// than failing the fetch.
func (f *Fetcher) FetchSeries(ctx context.Context, flowID, seriesKey string) (Series, error) {
	table, err := f.cli.GetSeriesData(ctx, flowID, seriesKey)
	if err != nil {
		return Series{}, err
	}

	periodIdx := table.ColumnIndex(timePeriodColumn)
	valueIdx := table.ColumnIndex(obsValueColumn)
	if !table.Empty() && (periodIdx < 0 || valueIdx < 0) {
		return Series{}, errors.Wrapf(ErrBadSeriesFormat, "%s/%s", flowID, seriesKey)
	}

	s := Series{
		FlowID: flowID,
		Key:    seriesKey,
		Label:  buildLabel(flowID, seriesKey, table),
	}
	for _, rec := range table.Records {
		obs := Observation{}
		if periodIdx < len(rec) {
			obs.Period = rec[periodIdx]
			obs.Time = ParsePeriod(rec[periodIdx])
		}
		if valueIdx < len(rec) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueIdx]), 64); err == nil {
				value := v
				obs.Value = &value
			}
		}
		s.Observations = append(s.Observations, obs)
	}

	sort.SliceStable(s.Observations, func(i, j int) bool {
		return s.Observations[i].Time.Before(s.Observations[j].Time)
	})
	return s, nil
}

// FetchMany fetches every requested key independently and merges the
// successes into one wide table. Requested keys are de-duplicated first-wins,
// and the result's column order equals that de-duplicated input order. A
// failing key becomes a warning and is omitted; zero successes yield an empty
// table, not an error.
func (f *Fetcher) FetchMany(ctx context.Context, flowID string, seriesKeys []string) (WideTable, []Warning) {
	var (
		fetched  []Series
		warnings []Warning
	)
	for _, key := range DedupeKeys(seriesKeys) {
		s, err := f.FetchSeries(ctx, flowID, key)
		if err != nil {
			warnings = append(warnings, Warning{FlowID: flowID, Key: key, Err: err})
			continue
		}
		fetched = append(fetched, s)
	}
	return Merge(fetched), warnings
}

// buildLabel concatenates the dataset identifier and key with the first
// descriptive metadata value found in the response
func buildLabel(flowID, seriesKey string, table sdmx.CSVTable) string {
	label := flowID + ":" + seriesKey
	for _, col := range labelColumns {
		for _, v := range table.Column(col) {
			if strings.TrimSpace(v) != "" {
				return label + " — " + strings.TrimSpace(v)
			}
		}
	}
	return label
}
