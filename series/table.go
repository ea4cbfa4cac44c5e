package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Normalisation modes accepted by Normalise
const (
	NormaliseNone   = "none"
	NormaliseRebase = "rebase"
	NormaliseZScore = "zscore"
)

// Period is one entry of a wide table's time index. Time is zero when the raw
// period could not be parsed; such entries sort before any dated period.
type Period struct {
	Raw  string
	Time time.Time
}

// Column holds one series' values aligned to the table index. A nil value
// means the series has no observation for that period.
type Column struct {
	Key    string
	Label  string
	Values []*float64
}

// WideTable is the series-as-columns, time-as-rows layout produced by merging
// independently fetched series. The index is the union of every series'
// periods; column order is fetch order.
type WideTable struct {
	Index   []Period
	Columns []Column
}

// Empty reports whether the table holds no series
func (t WideTable) Empty() bool {
	return len(t.Columns) == 0
}

// Merge outer-joins the given series on their time index. Later observations
// of the same period within one series overwrite earlier ones.
func Merge(fetched []Series) WideTable {
	seen := make(map[string]struct{})
	var index []Period
	for _, s := range fetched {
		for _, obs := range s.Observations {
			if _, ok := seen[obs.Period]; ok {
				continue
			}
			seen[obs.Period] = struct{}{}
			index = append(index, Period{Raw: obs.Period, Time: obs.Time})
		}
	}
	sort.SliceStable(index, func(i, j int) bool {
		if !index[i].Time.Equal(index[j].Time) {
			return index[i].Time.Before(index[j].Time)
		}
		return index[i].Raw < index[j].Raw
	})

	position := make(map[string]int, len(index))
	for i, p := range index {
		position[p.Raw] = i
	}

	table := WideTable{Index: index}
	for _, s := range fetched {
		col := Column{Key: s.Key, Label: s.Label, Values: make([]*float64, len(index))}
		for _, obs := range s.Observations {
			col.Values[position[obs.Period]] = obs.Value
		}
		table.Columns = append(table.Columns, col)
	}
	return table
}

// Normalise applies the named transform to every column
func (t WideTable) Normalise(mode string) (WideTable, error) {
	switch mode {
	case "", NormaliseNone:
		return t, nil
	case NormaliseRebase:
		return t.Rebase100(), nil
	case NormaliseZScore:
		return t.ZScore(), nil
	default:
		return WideTable{}, errors.Errorf("unknown normalisation mode: %q", mode)
	}
}

// Rebase100 rescales every column so its first observed value equals 100
func (t WideTable) Rebase100() WideTable {
	out := WideTable{Index: t.Index}
	for _, col := range t.Columns {
		var base *float64
		for _, v := range col.Values {
			if v != nil {
				base = v
				break
			}
		}
		rebased := Column{Key: col.Key, Label: col.Label, Values: make([]*float64, len(col.Values))}
		for i, v := range col.Values {
			if v == nil || base == nil || *base == 0 {
				continue
			}
			value := *v / *base * 100
			rebased.Values[i] = &value
		}
		out.Columns = append(out.Columns, rebased)
	}
	return out
}

// ZScore standardizes every column to zero mean and unit population standard
// deviation, considering observed values only
func (t WideTable) ZScore() WideTable {
	out := WideTable{Index: t.Index}
	for _, col := range t.Columns {
		var sum float64
		var n int
		for _, v := range col.Values {
			if v != nil {
				sum += *v
				n++
			}
		}
		scored := Column{Key: col.Key, Label: col.Label, Values: make([]*float64, len(col.Values))}
		if n > 0 {
			mean := sum / float64(n)
			var sq float64
			for _, v := range col.Values {
				if v != nil {
					sq += (*v - mean) * (*v - mean)
				}
			}
			std := math.Sqrt(sq / float64(n))
			for i, v := range col.Values {
				if v == nil || std == 0 {
					continue
				}
				value := (*v - mean) / std
				scored.Values[i] = &value
			}
		}
		out.Columns = append(out.Columns, scored)
	}
	return out
}

// RollingMean computes a trailing mean over the given window for every
// column. A value is produced only where the full window is observed; the
// new columns are labelled "<label> (MA<window>)".
func (t WideTable) RollingMean(window int) WideTable {
	out := WideTable{Index: t.Index}
	for _, col := range t.Columns {
		ma := Column{
			Key:    col.Key,
			Label:  fmt.Sprintf("%s (MA%d)", col.Label, window),
			Values: make([]*float64, len(col.Values)),
		}
		if window > 0 {
			for i := window - 1; i < len(col.Values); i++ {
				sum := 0.0
				full := true
				for j := i - window + 1; j <= i; j++ {
					if col.Values[j] == nil {
						full = false
						break
					}
					sum += *col.Values[j]
				}
				if full {
					value := sum / float64(window)
					ma.Values[i] = &value
				}
			}
		}
		out.Columns = append(out.Columns, ma)
	}
	return out
}

// WriteCSV writes the table in wide layout: one Date column followed by one
// column per series
func (t WideTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, "Date")
	for _, col := range t.Columns {
		header = append(header, col.Label)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, p := range t.Index {
		row[0] = p.Raw
		for j, col := range t.Columns {
			row[j+1] = formatValue(col.Values[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLongCSV writes the table in tidy long layout: Date, Series, Value
func (t WideTable) WriteLongCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Series", "Value"}); err != nil {
		return err
	}
	for _, col := range t.Columns {
		for i, p := range t.Index {
			if err := cw.Write([]string{p.Raw, col.Label, formatValue(col.Values[i])}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
