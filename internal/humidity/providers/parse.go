package providers

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/brclima/painel-umidade/internal/humidity"
)

// minKeyAliases are the per-day record keys that may carry the minimum
// relative humidity, tried in order. An alias whose value fails to parse
// falls through to the next one.
var minKeyAliases = []string{"umidade_min", "ur_min", "umi_min", "umidadeMin", "UR_min"}

// parseDateLayouts are the accepted forms for a date key in the payload.
var parseDateLayouts = []string{
	humidity.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// shapeMatcher tries to interpret one known payload shape. It returns
// (mapping, true) on a match and (nil, false) when the shape does not apply;
// matchers are pure and tried in a fixed priority order.
type shapeMatcher func(code string, body map[string]json.RawMessage) (map[string]*float64, bool)

var shapeMatchers = []shapeMatcher{
	matchKeyedByCode,
	matchKeyedByDate,
}

// ParseForecast normalizes a raw forecast body into a date → minimum-humidity
// mapping. Unknown shapes and malformed JSON yield an empty map; a date entry
// with a nil value means the day was present but its minimum was unparseable.
func ParseForecast(code string, raw []byte) map[string]*float64 {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return map[string]*float64{}
	}

	for _, match := range shapeMatchers {
		if out, ok := match(code, body); ok {
			return out
		}
	}
	return map[string]*float64{}
}

// matchKeyedByCode handles {"<code>": {"YYYY-MM-DD": {...}, ...}}.
func matchKeyedByCode(code string, body map[string]json.RawMessage) (map[string]*float64, bool) {
	inner, ok := body[code]
	if !ok {
		return nil, false
	}
	var days map[string]json.RawMessage
	if err := json.Unmarshal(inner, &days); err != nil {
		return nil, false
	}
	return parseDayRecords(days), true
}

// matchKeyedByDate handles {"YYYY-MM-DD": {...}, ...}. It matches only when
// at least one top-level key parses as a date.
func matchKeyedByDate(_ string, body map[string]json.RawMessage) (map[string]*float64, bool) {
	out := parseDayRecords(body)
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func parseDayRecords(days map[string]json.RawMessage) map[string]*float64 {
	out := make(map[string]*float64, len(days))
	for k, v := range days {
		date, ok := parseDateKey(k)
		if !ok {
			continue // not a date, contributes nothing
		}
		out[date] = minFromRecord(v)
	}
	return out
}

func parseDateKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range parseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(humidity.DateLayout), true
		}
	}
	return "", false
}

// minFromRecord extracts the minimum humidity from one per-day record.
// It prefers the alias keys; failing those, it falls back to scanning the
// record for a sequence of hourly readings and taking their minimum. This
// fallback is a best-effort heuristic: an unrelated numeric array in a future
// payload would be picked up just the same.
func minFromRecord(raw json.RawMessage) *float64 {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}

	for _, alias := range minKeyAliases {
		v, ok := rec[alias]
		if !ok {
			continue
		}
		if f, ok := parseNumber(v); ok {
			return &f
		}
	}

	// Fallback: first record value (in key order, for determinism) that is a
	// non-empty sequence with at least one numeric-like entry.
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var seq []json.RawMessage
		if err := json.Unmarshal(rec[k], &seq); err != nil || len(seq) == 0 {
			continue
		}
		if min, ok := minOfSequence(seq); ok {
			return &min
		}
	}

	return nil
}

// minOfSequence returns the minimum of the numeric-like entries in seq,
// treating non-numeric entries as absent.
func minOfSequence(seq []json.RawMessage) (float64, bool) {
	var (
		min   float64
		found bool
	)
	for _, item := range seq {
		f, ok := parseNumber(item)
		if !ok {
			continue
		}
		if !found || f < min {
			min = f
			found = true
		}
	}
	return min, found
}

// parseNumber decodes a JSON number, or a string containing one.
func parseNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
