package series

import (
	"fmt"
	"strings"
)

// DefaultMaxKeys bounds the cartesian expansion of a dimension selection, to
// cap the downstream fetch fan-out
const DefaultMaxKeys = 5000

// CapacityError is returned when a selection would expand past the series key
// ceiling. It is raised before any combination is materialized and before any
// network activity.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("selection expands to more than %d series keys, narrow the filters", e.Limit)
}

// BuildKeys computes the cartesian product of the selected codes across the
// dataset's dimensions, in canonical dimension order, joining each combination
// with ".". A dimension with no selection contributes a single empty segment,
// which the portal treats as a wildcard. Every produced key therefore has
// exactly len(dimensionIDs) dot-separated segments.
//
// The product size is checked incrementally against maxKeys (DefaultMaxKeys
// when maxKeys is not positive), so an oversized selection fails without the
// combination space ever being built.
func BuildKeys(dimensionIDs []string, selection map[string][]string, maxKeys int) ([]string, error) {
	if len(dimensionIDs) == 0 {
		return nil, nil
	}
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}

	ordered := make([][]string, len(dimensionIDs))
	total := 1
	for i, id := range dimensionIDs {
		codes := selection[id]
		if len(codes) == 0 {
			codes = []string{""}
		}
		ordered[i] = codes
		total *= len(codes)
		if total > maxKeys {
			return nil, &CapacityError{Limit: maxKeys}
		}
	}

	keys := make([]string, 0, total)
	parts := make([]string, len(ordered))
	idx := make([]int, len(ordered))
	for {
		for i := range ordered {
			parts[i] = ordered[i][idx[i]]
		}
		keys = append(keys, strings.Join(parts, "."))

		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(ordered[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return keys, nil
		}
	}
}

// DedupeKeys drops repeated keys, preserving first-occurrence order
func DedupeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	deduped := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, k)
	}
	return deduped
}
