package humidity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the canonical calendar-date form used for sample dates and
// cache keys. Lexicographic order equals chronological order.
const DateLayout = "2006-01-02"

// ForecastDays is the fixed forecast horizon: today plus the next four days.
const ForecastDays = 5

// CodeWidth is the canonical width of an IBGE municipality code.
const CodeWidth = 7

var digitRun = regexp.MustCompile(`\d+`)

// CanonicalCode extracts the leading digit run from a raw municipality
// identifier and zero-pads it to CodeWidth. Returns "" when the input
// contains no digits.
func CanonicalCode(raw string) string {
	digits := digitRun.FindString(raw)
	if digits == "" {
		return ""
	}
	if len(digits) < CodeWidth {
		digits = strings.Repeat("0", CodeWidth-len(digits)) + digits
	}
	return digits
}

// TargetDates returns the run's forecast dates: the calendar date of now plus
// the next ForecastDays-1 days. Callers pass now already converted to the
// operating timezone; the dates are fixed once per collection run.
func TargetDates(now time.Time) []string {
	dates := make([]string, ForecastDays)
	for i := range dates {
		dates[i] = now.AddDate(0, 0, i).Format(DateLayout)
	}
	return dates
}

// Municipality is one administrative unit from the reference table.
// Records are immutable after load; rows without coordinates never make it
// past the loader.
type Municipality struct {
	Code string  `json:"cd_mun"` // 7-digit IBGE code, zero-padded
	Name string  `json:"nm_mun"`
	UF   string  `json:"sigla_uf"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Sample is the forecast for one municipality on one calendar date.
// RHmin is nil when the upstream API produced no usable value; nil is
// structurally distinct from 0% humidity. RHmax is carried for schema
// compatibility and is absent in current INMET responses.
type Sample struct {
	Code  string   `json:"cd_mun"`
	Name  string   `json:"nm_mun"`
	UF    string   `json:"sigla_uf"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Date  string   `json:"data"`
	RHmin *float64 `json:"rh_min"`
	RHmax *float64 `json:"rh_max,omitempty"`
}

// Dataset is the sanitized output of one collection run. It is built once,
// handed out as a shared read-only snapshot, and replaced wholesale on the
// next run, never patched in place.
type Dataset struct {
	RunID   uuid.UUID `json:"run_id"`
	BuiltAt time.Time `json:"built_at"`
	Dates   []string  `json:"dates"` // the run's target dates, ascending
	Samples []Sample  `json:"samples"`
	Demo    bool      `json:"demo"` // true when this is the fallback dataset
}

// LastDate returns the latest target date, or "" for an empty run.
func (d *Dataset) LastDate() string {
	if len(d.Dates) == 0 {
		return ""
	}
	return d.Dates[len(d.Dates)-1]
}

// HasDate reports whether date is one of the run's target dates.
func (d *Dataset) HasDate(date string) bool {
	for _, t := range d.Dates {
		if t == date {
			return true
		}
	}
	return false
}

// SeriesFor returns the samples for one municipality, in date order.
// Samples are sorted by (code, date), so the series is contiguous.
func (d *Dataset) SeriesFor(code string) []Sample {
	var out []Sample
	for i := range d.Samples {
		if d.Samples[i].Code == code {
			out = append(out, d.Samples[i])
		}
	}
	return out
}

// ForDate returns the samples of every municipality for one target date.
func (d *Dataset) ForDate(date string) []Sample {
	var out []Sample
	for i := range d.Samples {
		if d.Samples[i].Date == date {
			out = append(out, d.Samples[i])
		}
	}
	return out
}

// Float returns a pointer to v; convenience for literals and tests.
func Float(v float64) *float64 { return &v }
