// Package geo loads the optional municipality-boundary GeoJSON overlay.
package geo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/brclima/painel-umidade/internal/humidity"
)

// codePropertyAliases are the feature-property keys known to carry the IBGE
// municipality code across the various published boundary files.
var codePropertyAliases = []string{
	"CD_MUN", "CD_GEOCMU", "CD_GEOCODI", "CD_MUNIC", "CD_IBGE",
	"GEOCODIGO", "GEOCODE", "GEOCOD_M", "codigo_ibge",
}

// FeatureCollection is a GeoJSON feature collection. Geometries pass through
// untouched; only the CD_MUN property is normalized so the map layer can join
// features against dataset rows.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

// LoadOverlay reads and normalizes the overlay file. The overlay is optional:
// a missing or unreadable file returns nil and the dashboard falls back to
// lat/lon point rendering.
func LoadOverlay(path string, logger *slog.Logger) *FeatureCollection {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Info("geojson overlay not found, falling back to point rendering", "path", path)
		return nil
	}

	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		logger.Warn("geojson overlay unreadable, falling back to point rendering", "path", path, "error", err)
		return nil
	}

	for _, ft := range fc.Features {
		if ft.Properties == nil {
			ft.Properties = map[string]interface{}{}
		}
		if code := guessCode(ft.Properties); code != "" {
			ft.Properties["CD_MUN"] = code
		}
	}

	logger.Info("geojson overlay loaded", "path", path, "features", len(fc.Features))
	return &fc
}

// guessCode finds the municipality code in a feature's properties: the known
// alias keys first, then any property value containing a 6–7 digit run.
func guessCode(props map[string]interface{}) string {
	for _, k := range codePropertyAliases {
		v, ok := props[k]
		if !ok || v == nil {
			continue
		}
		if code := codeFromValue(v); code != "" {
			return code
		}
	}
	for _, v := range props {
		if code := codeFromValue(v); code != "" {
			return code
		}
	}
	return ""
}

func codeFromValue(v interface{}) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = fmt.Sprintf("%.0f", t)
	default:
		return ""
	}

	var digits strings.Builder
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	d := digits.String()
	if len(d) < 6 || len(d) > 7 {
		return ""
	}
	return humidity.CanonicalCode(d)
}
