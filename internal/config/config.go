package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig holds all service settings, populated from environment variables.
type AppConfig struct {
	// AttrXLSXPath is the municipality reference table (lat/lon per IBGE code).
	AttrXLSXPath string `validate:"required"`

	// GeoJSONPath is the optional boundary overlay; empty disables it.
	GeoJSONPath string

	// ForecastURLTemplate is the per-municipality forecast endpoint with an
	// {ibge} placeholder.
	ForecastURLTemplate string `validate:"required"`

	// RequestTimeout bounds each outbound forecast request. There is no
	// run-level timeout; the worst case is (municipalities/workers)×timeout.
	RequestTimeout time.Duration `validate:"gt=0"`

	// Workers bounds the collection pool.
	Workers int `validate:"gte=1"`

	// RefreshToken guards /refresh; empty leaves the trigger open.
	RefreshToken string

	// RowLimit truncates the municipality list for cheap test runs; 0 = all.
	RowLimit int `validate:"gte=0"`

	// Timezone drives cache keys and target dates.
	Timezone *time.Location `validate:"required"`

	Port            string `validate:"required"`
	LogFormat       string `validate:"oneof=text json"`
	ScheduleEnabled bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		AttrXLSXPath:        getenvDefault("ATTR_XLSX", "data/municipios_br.xlsx"),
		GeoJSONPath:         os.Getenv("GEOJSON_PATH"),
		ForecastURLTemplate: getenvDefault("INMET_FORECAST_URL_TEMPLATE", "https://apiprevmet3.inmet.gov.br/previsao/{ibge}"),
		RefreshToken:        os.Getenv("REFRESH_TOKEN"),
		Workers:             getenvInt("MAX_WORKERS", 16),
		RowLimit:            getenvInt("MAX_MUN", 0),
		Port:                getenvDefault("PORT", "8060"),
		LogFormat:           getenvDefault("LOG_FORMAT", "text"),
		ScheduleEnabled:     getenvDefault("SCHEDULE_ENABLED", "true") == "true",
	}

	timeoutStr := getenvDefault("REQUEST_TIMEOUT", "8s")
	timeout, err := parseTimeout(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = timeout

	tzName := getenvDefault("TIMEZONE", "America/Sao_Paulo")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = tz

	if !strings.Contains(cfg.ForecastURLTemplate, "{ibge}") {
		return nil, fmt.Errorf("INMET_FORECAST_URL_TEMPLATE must contain the {ibge} placeholder")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseTimeout accepts a Go duration ("8s") or bare seconds ("8"), the form
// the original deployments used.
func parseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
