package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brclima/painel-umidade/internal/geo"
	"github.com/brclima/painel-umidade/internal/humidity"
	"github.com/brclima/painel-umidade/internal/observability"
	"github.com/brclima/painel-umidade/internal/store"
)

var testDates = []string{"2024-06-01", "2024-06-02", "2024-06-03", "2024-06-04", "2024-06-05"}

func testBuild(ctx context.Context) ([]humidity.Sample, []string, error) {
	munis := []humidity.Municipality{
		{Code: "5300108", Name: "Brasília", UF: "DF", Lat: -15.78, Lon: -47.93},
		{Code: "3550308", Name: "São Paulo", UF: "SP", Lat: -23.55, Lon: -46.63},
	}
	values := map[string]*float64{
		"5300108": humidity.Float(18), // alert
		"3550308": humidity.Float(55), // near_ideal
	}

	var samples []humidity.Sample
	for _, m := range munis {
		for _, d := range testDates {
			samples = append(samples, humidity.Sample{
				Code: m.Code, Name: m.Name, UF: m.UF,
				Lat: m.Lat, Lon: m.Lon, Date: d, RHmin: values[m.Code],
			})
		}
	}
	return samples, testDates, nil
}

func newTestApp(t *testing.T, build store.BuildFunc, overlay *geo.FeatureCollection, token string) *fiber.App {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewDailyStore(clock, time.UTC, build, logger, observability.NewMetricsForTesting())

	// Same JSON error handler the service installs, so error bodies decode.
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})
	RegisterRoutes(app, st, overlay, token)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string) (int, map[string]interface{}) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestDatesEndpoint(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/humidity/dates")
	require.Equal(t, http.StatusOK, status)

	dates, ok := body["dates"].([]interface{})
	require.True(t, ok)
	assert.Len(t, dates, 5)
	assert.Equal(t, "2024-06-01", dates[0])
	assert.Equal(t, false, body["demo"])
}

func TestClassesEndpoint(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/humidity/classes", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var legend []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&legend))
	require.Len(t, legend, 6)
	assert.Equal(t, "ideal", legend[0]["name"])
	assert.Equal(t, "emergency", legend[5]["name"])
	for _, entry := range legend {
		assert.NotEmpty(t, entry["label"])
		assert.NotEmpty(t, entry["color"])
	}
}

func TestMapEndpointDefaultsToLastDate(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/humidity/map")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2024-06-05", body["date"])
	assert.Equal(t, float64(2), body["count"])

	// Rows come back in (code, date) order.
	rows, ok := body["rows"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "3550308", first["cd_mun"])
	assert.Equal(t, "near_ideal", first["class"])
	second := rows[1].(map[string]interface{})
	assert.Equal(t, "5300108", second["cd_mun"])
	assert.Equal(t, "alert", second["class"])
	assert.NotEmpty(t, second["color"])
}

func TestMapEndpointExplicitDateAndUF(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/humidity/map?date=2024-06-02&uf=sp")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2024-06-02", body["date"])
	assert.Equal(t, float64(1), body["count"])

	rows := body["rows"].([]interface{})
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "3550308", row["cd_mun"])
	assert.Equal(t, "near_ideal", row["class"])
}

func TestMapEndpointRejectsBadDates(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/humidity/map?date=junk")
	assert.Equal(t, http.StatusBadRequest, status)

	// Well-formed but outside the run's horizon.
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/humidity/map?date=2023-01-01")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMunicipalitySeries(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/humidity/municipalities/5300108")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "5300108", body["cd_mun"])
	assert.Equal(t, "Brasília", body["nm_mun"])
	assert.Equal(t, "DF", body["sigla_uf"])

	series, ok := body["series"].([]interface{})
	require.True(t, ok)
	require.Len(t, series, 5)
	for i, raw := range series {
		row := raw.(map[string]interface{})
		assert.Equal(t, testDates[i], row["data"])
		assert.Equal(t, "alert", row["class"])
	}
}

func TestMunicipalitySeriesPadsShortCodes(t *testing.T) {
	build := func(ctx context.Context) ([]humidity.Sample, []string, error) {
		return []humidity.Sample{
			{Code: "0000042", Name: "Alfa", UF: "SP", Date: "2024-06-01", RHmin: humidity.Float(50)},
		}, []string{"2024-06-01"}, nil
	}
	app := newTestApp(t, build, nil, "")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/humidity/municipalities/42")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0000042", body["cd_mun"])
}

func TestMunicipalitySeriesNotFound(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/humidity/municipalities/9999999")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListEndpointFiltersByClass(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/humidity/list?class=alert")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alert", body["class"])
	assert.Equal(t, float64(1), body["count"])

	rows := body["rows"].([]interface{})
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "5300108", row["cd_mun"])
}

func TestListEndpointValidation(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/humidity/list")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/humidity/list?class=catastrophic")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/humidity/list?class=alert&date=junk")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListEndpointEmptyClassIsOK(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/humidity/list?class=emergency")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])
}

func TestRefreshWithoutTokenConfigured(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "")

	status, body := doJSON(t, app, http.MethodGet, "/refresh")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	status, body = doJSON(t, app, http.MethodPost, "/refresh")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
}

func TestRefreshTokenEnforced(t *testing.T) {
	app := newTestApp(t, testBuild, nil, "s3cret")

	status, body := doJSON(t, app, http.MethodGet, "/refresh")
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, body["ok"])

	status, _ = doJSON(t, app, http.MethodGet, "/refresh?token=wrong")
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, app, http.MethodGet, "/refresh?token=s3cret")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
}

func TestRefreshServesDemoOnPipelineFailure(t *testing.T) {
	build := func(ctx context.Context) ([]humidity.Sample, []string, error) {
		return nil, nil, context.DeadlineExceeded
	}
	app := newTestApp(t, build, nil, "")

	status, body := doJSON(t, app, http.MethodGet, "/refresh")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/humidity/dates")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["demo"])
}

func TestGeoEndpoint(t *testing.T) {
	overlay := &geo.FeatureCollection{
		Type: "FeatureCollection",
		Features: []*geo.Feature{
			{Type: "Feature", Properties: map[string]interface{}{"CD_MUN": "5300108"}},
		},
	}
	app := newTestApp(t, testBuild, overlay, "")

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/geo/municipalities")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "FeatureCollection", body["type"])

	noOverlay := newTestApp(t, testBuild, nil, "")
	status, _ = doJSON(t, noOverlay, http.MethodGet, "/api/v1/geo/municipalities")
	assert.Equal(t, http.StatusNotFound, status)
}
