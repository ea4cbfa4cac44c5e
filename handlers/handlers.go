package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ONSdigital/log.go/v2/log"
	"github.com/gorilla/mux"

	"github.com/ONSdigital/dp-sdmx-series-controller/mapper"
	"github.com/ONSdigital/dp-sdmx-series-controller/models"
	"github.com/ONSdigital/dp-sdmx-series-controller/sdmx"
	"github.com/ONSdigital/dp-sdmx-series-controller/series"
)

//go:generate moq -out mocks_handlers.go . StructureClient DataClient

// StructureClient is an interface with the methods required of a portal
// structure client
type StructureClient interface {
	ListDataflows(ctx context.Context) ([]sdmx.Dataflow, error)
	GetDimensions(ctx context.Context, flowID string) ([]sdmx.Dimension, error)
}

// DataClient is an interface with the methods required of a portal data client
type DataClient interface {
	ListSeries(ctx context.Context, flowID string) (sdmx.CSVTable, error)
	GetSeriesData(ctx context.Context, flowID, seriesKey string) (sdmx.CSVTable, error)
}

// ClientError is an interface that can be used to retrieve the status code if a client has errored
type ClientError interface {
	error
	Code() int
}

func setStatusCode(req *http.Request, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if err, ok := err.(ClientError); ok {
		if err.Code() == http.StatusNotFound {
			status = err.Code()
		}
	}
	var capacityErr *series.CapacityError
	if errors.As(err, &capacityErr) {
		status = http.StatusBadRequest
	}
	log.Error(req.Context(), "setting response status", err, log.Data{"status": status})
	w.WriteHeader(status)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(ctx, "error writing json response", err)
	}
}

// DatasetList returns a handler listing the portal's datasets, name-sorted,
// optionally filtered by the q query parameter matching name or id
func DatasetList(cli StructureClient) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		flows, err := cli.ListDataflows(ctx)
		if err != nil {
			log.Error(ctx, "error getting dataset list", err)
			setStatusCode(req, w, err)
			return
		}

		results := mapper.Datasets(flows)
		if q := strings.TrimSpace(req.URL.Query().Get("q")); q != "" {
			results = filterDatasets(results, q)
		}
		writeJSON(ctx, w, results)
	}
}

func filterDatasets(results models.DatasetListResults, q string) models.DatasetListResults {
	q = strings.ToLower(q)
	var items []models.Dataset
	for _, d := range results.Items {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.ID), q) {
			items = append(items, d)
		}
	}
	return models.DatasetListResults{Items: items, Count: len(items)}
}

// DimensionList returns a handler for a dataset's dimensional schema. A
// dataset without a retrievable structure gets an empty item list, not an
// error, since its keys can still be wildcarded or pasted manually.
func DimensionList(cli StructureClient) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		flowID := mux.Vars(req)["flowID"]
		logData := log.Data{"flow_id": flowID}

		dims, err := cli.GetDimensions(ctx, flowID)
		if err != nil {
			log.Error(ctx, "error getting dataset dimensions", err, logData)
			setStatusCode(req, w, err)
			return
		}
		writeJSON(ctx, w, mapper.Dimensions(flowID, dims))
	}
}

// SeriesCatalog returns a handler listing a dataset's materialized series as
// {key, name} rows. The limit query parameter truncates the catalog, capped
// at maxRows; q filters rows by name or key.
func SeriesCatalog(cli DataClient, maxRows int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		flowID := mux.Vars(req)["flowID"]
		logData := log.Data{"flow_id": flowID}

		limit := maxRows
		if raw := req.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				log.Error(ctx, "invalid catalog limit", fmt.Errorf("invalid limit: %q", raw), logData)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if parsed < limit {
				limit = parsed
			}
		}

		table, err := cli.ListSeries(ctx, flowID)
		if err != nil {
			log.Error(ctx, "error getting series catalog", err, logData)
			setStatusCode(req, w, err)
			return
		}

		entries, err := series.Normalize(table, limit, series.DefaultExcludedColumns)
		if err != nil {
			log.Error(ctx, "error normalising series catalog", err, logData)
			setStatusCode(req, w, err)
			return
		}

		if q := strings.TrimSpace(req.URL.Query().Get("q")); q != "" {
			entries = filterCatalog(entries, q)
		}
		writeJSON(ctx, w, mapper.Catalog(flowID, entries))
	}
}

func filterCatalog(entries []series.Entry, q string) []series.Entry {
	q = strings.ToLower(q)
	var filtered []series.Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), q) || strings.Contains(strings.ToLower(e.Key), q) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// BuildKeys returns a handler expanding a dimension selection into series
// keys. A selection that would expand past maxKeys fails with a 400 before
// any expansion happens.
func BuildKeys(cli StructureClient, maxKeys int) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		flowID := mux.Vars(req)["flowID"]
		logData := log.Data{"flow_id": flowID}

		var body models.KeysRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			log.Error(ctx, "error decoding keys request", err, logData)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		dims, err := cli.GetDimensions(ctx, flowID)
		if err != nil {
			log.Error(ctx, "error getting dataset dimensions", err, logData)
			setStatusCode(req, w, err)
			return
		}

		keys, err := series.BuildKeys(dimensionIDs(dims), body.Selection, maxKeys)
		if err != nil {
			log.Error(ctx, "error building series keys", err, logData)
			setStatusCode(req, w, err)
			return
		}
		writeJSON(ctx, w, mapper.Keys(flowID, keys))
	}
}

// SeriesData returns a handler fetching every requested series and merging
// the successes into one wide table. Keys built from a selection come first,
// explicit keys are appended, and failures per key are downgraded to warnings
// in the response.
func SeriesData(scli StructureClient, dcli DataClient, maxKeys int) http.HandlerFunc {
	fetcher := series.NewFetcher(dcli)
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		flowID := mux.Vars(req)["flowID"]
		logData := log.Data{"flow_id": flowID}

		var body models.DataRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			log.Error(ctx, "error decoding data request", err, logData)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		keys, err := requestedKeys(ctx, scli, flowID, body, maxKeys)
		if err != nil {
			setStatusCode(req, w, err)
			return
		}
		if len(keys) == 0 {
			log.Error(ctx, "no series keys requested", errors.New("empty data request"), logData)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		table, warnings := fetcher.FetchMany(ctx, flowID, keys)
		for _, warning := range warnings {
			log.Warn(ctx, "failed to fetch series", log.Data{
				"flow_id": warning.FlowID,
				"key":     warning.Key,
				"error":   warning.Err.Error(),
			})
		}

		table, err = table.Normalise(body.Normalise)
		if err != nil {
			log.Error(ctx, "invalid normalisation mode", err, logData)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		// every window smooths the fetched series, not the means appended
		// for earlier windows
		base := table
		for _, window := range body.RollingWindows {
			if window < 2 {
				continue
			}
			table.Columns = append(table.Columns, base.RollingMean(window).Columns...)
		}

		writeJSON(ctx, w, mapper.Data(flowID, table, warnings))
	}
}

// SeriesDataCSV returns a handler exporting fetched series as CSV, in wide
// layout by default or long layout with layout=long. Keys are passed
// comma-separated in the keys query parameter.
func SeriesDataCSV(dcli DataClient) http.HandlerFunc {
	fetcher := series.NewFetcher(dcli)
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		flowID := mux.Vars(req)["flowID"]
		logData := log.Data{"flow_id": flowID}

		var keys []string
		for _, k := range strings.Split(req.URL.Query().Get("keys"), ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			log.Error(ctx, "no series keys requested", errors.New("empty keys parameter"), logData)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		layout := req.URL.Query().Get("layout")
		if layout == "" {
			layout = "wide"
		}
		if layout != "wide" && layout != "long" {
			log.Error(ctx, "invalid csv layout", fmt.Errorf("invalid layout: %q", layout), logData)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		table, warnings := fetcher.FetchMany(ctx, flowID, keys)
		for _, warning := range warnings {
			log.Warn(ctx, "failed to fetch series", log.Data{
				"flow_id": warning.FlowID,
				"key":     warning.Key,
				"error":   warning.Err.Error(),
			})
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s.csv", flowID, layout))

		if layout == "long" {
			err := table.WriteLongCSV(w)
			if err != nil {
				log.Error(ctx, "error writing long csv", err, logData)
			}
			return
		}
		if err := table.WriteCSV(w); err != nil {
			log.Error(ctx, "error writing wide csv", err, logData)
		}
	}
}

// requestedKeys resolves the keys a data request asks for: keys built from
// its selection first, explicit keys appended, first occurrence winning
func requestedKeys(ctx context.Context, scli StructureClient, flowID string, body models.DataRequest, maxKeys int) ([]string, error) {
	keys := body.Keys
	if len(body.Selection) > 0 {
		dims, err := scli.GetDimensions(ctx, flowID)
		if err != nil {
			log.Error(ctx, "error getting dataset dimensions", err, log.Data{"flow_id": flowID})
			return nil, err
		}
		built, err := series.BuildKeys(dimensionIDs(dims), body.Selection, maxKeys)
		if err != nil {
			log.Error(ctx, "error building series keys", err, log.Data{"flow_id": flowID})
			return nil, err
		}
		keys = append(built, body.Keys...)
	}
	return series.DedupeKeys(keys), nil
}

func dimensionIDs(dims []sdmx.Dimension) []string {
	ids := make([]string, 0, len(dims))
	for _, d := range dims {
		ids = append(ids, d.ID)
	}
	return ids
}
