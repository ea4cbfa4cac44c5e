// Package mapper converts portal and core library types into the API's
// response models.
package mapper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ONSdigital/dp-sdmx-series-controller/models"
	"github.com/ONSdigital/dp-sdmx-series-controller/sdmx"
	"github.com/ONSdigital/dp-sdmx-series-controller/series"
)

// Datasets maps a dataflow list into response items sorted by name,
// case-insensitively, with a combined display label
func Datasets(flows []sdmx.Dataflow) models.DatasetListResults {
	items := make([]models.Dataset, 0, len(flows))
	for _, f := range flows {
		items = append(items, models.Dataset{
			ID:    f.ID,
			Name:  f.Name,
			Label: fmt.Sprintf("%s (%s)", f.Name, f.ID),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return models.DatasetListResults{Items: items, Count: len(items)}
}

// Dimensions maps a dataset's dimensional schema, preserving canonical order
func Dimensions(flowID string, dims []sdmx.Dimension) models.DimensionList {
	items := make([]models.Dimension, 0, len(dims))
	for _, d := range dims {
		dim := models.Dimension{ID: d.ID, Name: d.Name}
		for _, c := range d.Codes {
			dim.Codes = append(dim.Codes, models.Code{ID: c.ID, Label: c.Label})
		}
		items = append(items, dim)
	}
	return models.DimensionList{FlowID: flowID, Items: items, Count: len(items)}
}

// Catalog maps normalized catalog entries, preserving first-seen order
func Catalog(flowID string, entries []series.Entry) models.CatalogResults {
	items := make([]models.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.CatalogEntry{Key: e.Key, Name: e.Name})
	}
	return models.CatalogResults{FlowID: flowID, Items: items, Count: len(items)}
}

// Keys maps built series keys
func Keys(flowID string, keys []string) models.KeysResults {
	if keys == nil {
		keys = []string{}
	}
	return models.KeysResults{FlowID: flowID, Keys: keys, Count: len(keys)}
}

// Data maps a merged wide table and its per-key warnings, preserving column
// order
func Data(flowID string, table series.WideTable, warnings []series.Warning) models.DataResults {
	results := models.DataResults{
		FlowID:  flowID,
		Periods: make([]string, 0, len(table.Index)),
		Columns: make([]models.SeriesColumn, 0, len(table.Columns)),
	}
	for _, p := range table.Index {
		results.Periods = append(results.Periods, p.Raw)
	}
	for _, col := range table.Columns {
		results.Columns = append(results.Columns, models.SeriesColumn{
			Key:    col.Key,
			Label:  col.Label,
			Values: col.Values,
		})
	}
	for _, w := range warnings {
		results.Warnings = append(results.Warnings, models.FetchWarning{
			Key:   w.Key,
			Error: w.Err.Error(),
		})
	}
	return results
}
