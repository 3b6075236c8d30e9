package humidity

import "context"

// Forecaster fetches the per-date minimum-humidity mapping for one
// municipality code. Implementations absorb every upstream failure (network
// errors, non-200 statuses, malformed bodies) and return an empty map
// instead; a map entry with a nil value means the date was present upstream
// but its value could not be parsed.
type Forecaster interface {
	Name() string
	MinHumidity(ctx context.Context, code string) map[string]*float64
}
