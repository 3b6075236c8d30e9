package humidity

// Class is one of six ordered minimum-humidity severity bins, plus
// ClassUndefined for values that are absent or outside every bin.
type Class string

const (
	ClassUndefined   Class = ""
	ClassIdeal       Class = "ideal"
	ClassNearIdeal   Class = "near_ideal"
	ClassObservation Class = "observation"
	ClassAttention   Class = "attention"
	ClassAlert       Class = "alert"
	ClassEmergency   Class = "emergency"
)

// ClassOrder lists the classes from best to worst. Map legends and the
// class-filter dropdown follow this order.
var ClassOrder = []Class{
	ClassIdeal,
	ClassNearIdeal,
	ClassObservation,
	ClassAttention,
	ClassAlert,
	ClassEmergency,
}

// Classify maps a minimum relative-humidity value to its severity class.
// Bins are evaluated in priority order, first match wins; a nil (unknown)
// value, a negative value, or a value falling into one of the open gaps
// between bins yields ClassUndefined. Never panics, never errors.
func Classify(v *float64) Class {
	if v == nil {
		return ClassUndefined
	}
	x := *v
	switch {
	case x > 60:
		return ClassIdeal
	case x >= 41 && x <= 60:
		return ClassNearIdeal
	case x >= 30 && x <= 40:
		return ClassObservation
	case x >= 20 && x <= 29:
		return ClassAttention
	case x >= 12 && x <= 19:
		return ClassAlert
	case x >= 0 && x < 12:
		return ClassEmergency
	default:
		return ClassUndefined
	}
}

// Label returns the display label with the bin's numeric range.
func (c Class) Label() string {
	switch c {
	case ClassIdeal:
		return "Ideal (>60%)"
	case ClassNearIdeal:
		return "Quase ideal (41–60%)"
	case ClassObservation:
		return "Observação (30–40%)"
	case ClassAttention:
		return "Atenção (20–29%)"
	case ClassAlert:
		return "Caso de alerta (12–19%)"
	case ClassEmergency:
		return "Emergência (<12%)"
	default:
		return ""
	}
}

// Color returns the fixed legend color for the class. Undefined values get a
// neutral gray so gap markers stay visible on the map.
func (c Class) Color() string {
	switch c {
	case ClassIdeal:
		return "#1E3A8A"
	case ClassNearIdeal:
		return "#60A5FA"
	case ClassObservation:
		return "#FEF08A"
	case ClassAttention:
		return "#F59E0B"
	case ClassAlert:
		return "#F87171"
	case ClassEmergency:
		return "#B91C1C"
	default:
		return "#9CA3AF"
	}
}

// Valid reports whether c is one of the six named classes.
func (c Class) Valid() bool {
	for _, o := range ClassOrder {
		if c == o {
			return true
		}
	}
	return false
}
