package geo

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "municipios.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverlayNormalizesCodes(t *testing.T) {
	path := writeOverlay(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"CD_MUN": "5300108", "NM_MUN": "Brasília"}, "geometry": {"type": "Point", "coordinates": [-47.93, -15.78]}},
			{"type": "Feature", "properties": {"CD_GEOCMU": 3550308, "NM_MUN": "São Paulo"}, "geometry": null},
			{"type": "Feature", "properties": {"municipio": "IBGE 3304557"}, "geometry": null}
		]
	}`)

	fc := LoadOverlay(path, testLogger())
	require.NotNil(t, fc)
	require.Len(t, fc.Features, 3)

	assert.Equal(t, "5300108", fc.Features[0].Properties["CD_MUN"])
	// Numeric alias property, stringified.
	assert.Equal(t, "3550308", fc.Features[1].Properties["CD_MUN"])
	// No alias key: the digit run in an arbitrary property is used.
	assert.Equal(t, "3304557", fc.Features[2].Properties["CD_MUN"])
}

func TestLoadOverlayKeepsGeometryUntouched(t *testing.T) {
	path := writeOverlay(t, `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"CD_MUN": "5300108"}, "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}
		]
	}`)

	fc := LoadOverlay(path, testLogger())
	require.NotNil(t, fc)
	assert.JSONEq(t, `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`, string(fc.Features[0].Geometry))
}

func TestLoadOverlayFeatureWithoutAnyCode(t *testing.T) {
	path := writeOverlay(t, `{
		"type": "FeatureCollection",
		"features": [{"type": "Feature", "properties": {"name": "sem código"}, "geometry": null}]
	}`)

	fc := LoadOverlay(path, testLogger())
	require.NotNil(t, fc)
	_, ok := fc.Features[0].Properties["CD_MUN"]
	assert.False(t, ok)
}

func TestLoadOverlayOptional(t *testing.T) {
	assert.Nil(t, LoadOverlay("", testLogger()))
	assert.Nil(t, LoadOverlay(filepath.Join(t.TempDir(), "missing.geojson"), testLogger()))
	assert.Nil(t, LoadOverlay(writeOverlay(t, `not geojson at all`), testLogger()))
}

func TestCodeFromValue(t *testing.T) {
	assert.Equal(t, "5300108", codeFromValue("5300108"))
	assert.Equal(t, "5300108", codeFromValue(5300108.0))
	assert.Equal(t, "0530010", codeFromValue("530010")) // 6 digits, zero-padded
	assert.Equal(t, "", codeFromValue("12345"))         // too short
	assert.Equal(t, "", codeFromValue("12345678"))      // too long
	assert.Equal(t, "", codeFromValue(nil))
	assert.Equal(t, "", codeFromValue(true))
}
