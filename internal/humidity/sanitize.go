package humidity

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// ErrEmptyTable is returned by Sanitize when there is nothing to serve.
var ErrEmptyTable = errors.New("sanitize: empty sample table")

// dateLayouts are the accepted input forms for a sample date, tried in order.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// Sanitize enforces the canonical dataset schema on a raw sample table and
// returns a fresh, deterministically ordered copy:
//
//   - municipality codes are re-extracted and zero-padded defensively
//   - dates are coerced to the canonical calendar form; unparseable dates
//     become "" (the row is kept, sorted first for its municipality)
//   - non-finite humidity values become unknown, never an error
//   - rows are sorted by (code, date) ascending
//
// Applying Sanitize to already-sanitized data is a no-op.
func Sanitize(samples []Sample) ([]Sample, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyTable
	}

	out := make([]Sample, len(samples))
	copy(out, samples)

	for i := range out {
		out[i].Code = CanonicalCode(out[i].Code)
		out[i].Name = strings.TrimSpace(out[i].Name)
		out[i].UF = strings.TrimSpace(out[i].UF)
		out[i].Date = canonicalDate(out[i].Date)
		out[i].RHmin = finiteOrNil(out[i].RHmin)
		out[i].RHmax = finiteOrNil(out[i].RHmax)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Date < out[j].Date
	})

	return out, nil
}

// canonicalDate coerces a date string to DateLayout, or "" when unparseable.
func canonicalDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return ""
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
