// Package series holds the core logic for turning a dataset's dimensional
// schema or flat series catalog into fetchable series keys, and for stitching
// per-key observation histories into one aligned wide table.
package series

import (
	"strings"
	"unicode"

	"github.com/ONSdigital/dp-sdmx-series-controller/sdmx"
	"github.com/pkg/errors"
)

// Entry is one row of a normalized series catalog
type Entry struct {
	Key  string
	Name string
}

// ErrNoKeyColumns is returned when a catalog carries no explicit series key
// and no key-bearing dimension columns can be inferred from it
var ErrNoKeyColumns = errors.New("could not infer series key columns from catalog")

// explicit key-bearing columns, checked before falling back to inference
var keyColumns = []string{"SERIES_KEY", "key"}

// nameColumns are tried in order when deriving a display name for a catalog
// row. The composite title wins over the plain title, which wins over an
// already-normalized name column; rows matching none fall back to the key.
var nameColumns = []string{"TITLE_COMPL", "TITLE", "name"}

// DefaultExcludedColumns are catalog columns that describe observations or
// their attributes rather than series identity, and so never contribute a
// key segment
var DefaultExcludedColumns = map[string]struct{}{
	"TIME_PERIOD":   {},
	"OBS_VALUE":     {},
	"DECIMALS":      {},
	"TIME_FORMAT":   {},
	"OBS_STATUS":    {},
	"OBS_CONF":      {},
	"OBS_PRE_BREAK": {},
	"OBS_COM":       {},
}

const observationPrefix = "OBS_"

// IsDimensionColumn reports whether a catalog column name looks like it holds
// a dimension code: all cased characters uppercase, no whitespace, not in the
// exclusion set and not carrying the observation prefix
func IsDimensionColumn(name string, excluded map[string]struct{}) bool {
	if name == "" {
		return false
	}
	if _, ok := excluded[name]; ok {
		return false
	}
	if strings.HasPrefix(name, observationPrefix) {
		return false
	}

	hasUpper := false
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

// Normalize turns a raw catalog table into deduplicated {key, name} entries.
//
// A column explicitly carrying the full series key is used verbatim when
// present; otherwise key-bearing columns are inferred with IsDimensionColumn
// and their values joined with "." in original column order. An empty input
// yields an empty catalog; failure to infer any key column yields
// ErrNoKeyColumns. Duplicate keys keep the first-seen row and order, and the
// result is truncated to maxRows when maxRows is positive.
func Normalize(table sdmx.CSVTable, maxRows int, excluded map[string]struct{}) ([]Entry, error) {
	if table.Empty() {
		return nil, nil
	}
	if excluded == nil {
		excluded = DefaultExcludedColumns
	}

	keys, err := catalogKeys(table, excluded)
	if err != nil {
		return nil, err
	}
	names := catalogNames(table, keys)

	seen := make(map[string]struct{}, len(keys))
	var entries []Entry
	for i, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, Entry{Key: key, Name: names[i]})
		if maxRows > 0 && len(entries) >= maxRows {
			break
		}
	}
	return entries, nil
}

func catalogKeys(table sdmx.CSVTable, excluded map[string]struct{}) ([]string, error) {
	for _, col := range keyColumns {
		if values := table.Column(col); values != nil {
			return values, nil
		}
	}

	var dimIdx []int
	for i, h := range table.Header {
		if IsDimensionColumn(h, excluded) {
			dimIdx = append(dimIdx, i)
		}
	}
	if len(dimIdx) == 0 {
		return nil, ErrNoKeyColumns
	}

	keys := make([]string, 0, len(table.Records))
	parts := make([]string, len(dimIdx))
	for _, rec := range table.Records {
		for j, i := range dimIdx {
			if i < len(rec) {
				parts[j] = rec[i]
			} else {
				parts[j] = ""
			}
		}
		keys = append(keys, strings.Join(parts, "."))
	}
	return keys, nil
}

// catalogNames picks the first name column holding at least one non-empty
// value, filling per-row gaps with the row's key
func catalogNames(table sdmx.CSVTable, keys []string) []string {
	for _, col := range nameColumns {
		values := table.Column(col)
		if values == nil || !anyNonEmpty(values) {
			continue
		}
		names := make([]string, len(values))
		for i, v := range values {
			if strings.TrimSpace(v) != "" {
				names[i] = v
			} else {
				names[i] = keys[i]
			}
		}
		return names
	}
	return keys
}

func anyNonEmpty(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
