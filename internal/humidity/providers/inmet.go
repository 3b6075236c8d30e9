// Package providers contains forecast-endpoint clients implementing
// humidity.Forecaster.
package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/brclima/painel-umidade/internal/observability"
)

// codePlaceholder is the substitution point in the URL template,
// e.g. "https://apiprevmet3.inmet.gov.br/previsao/{ibge}".
const codePlaceholder = "{ibge}"

// maxBodyBytes bounds how much of a forecast response is read; INMET
// payloads are a few KB, anything bigger is garbage.
const maxBodyBytes = 4 << 20

var (
	errServerError = errors.New("server error")
	errNoData      = errors.New("no data")
)

// INMETClient fetches the 5-day municipal forecast from the INMET public API.
// Every failure mode (transport error, timeout, non-200, malformed body)
// degrades to an empty result; the client never returns an error to callers
// and never retries. A circuit breaker sheds load during sustained outages.
type INMETClient struct {
	name        string
	urlTemplate string
	client      *http.Client
	circuit     *gobreaker.CircuitBreaker
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewINMETClient creates a client. The http.Client carries the per-request
// timeout; there is no retry and no run-level deadline by design.
func NewINMETClient(client *http.Client, urlTemplate string, logger *slog.Logger, metrics *observability.Metrics) *INMETClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "inmet",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &INMETClient{
		name:        "inmet",
		urlTemplate: urlTemplate,
		client:      client,
		circuit:     cb,
		logger:      logger,
		metrics:     metrics,
	}
}

func (c *INMETClient) Name() string {
	return c.name
}

// MinHumidity fetches and normalizes the forecast for one municipality code.
// The returned map is keyed by canonical date; a nil value means the date was
// present but its minimum could not be parsed. An empty map means no data.
func (c *INMETClient) MinHumidity(ctx context.Context, code string) map[string]*float64 {
	body, err := c.fetch(ctx, code)
	if err != nil {
		// Terminal for this municipality for this run; its rows become unknown.
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		c.logger.Debug("forecast fetch failed", "provider", c.name, "code", code, "error", err)
		return map[string]*float64{}
	}

	dayMap := ParseForecast(code, body)
	if len(dayMap) == 0 {
		c.metrics.FetchRequests.WithLabelValues("empty").Inc()
		return dayMap
	}
	c.metrics.FetchRequests.WithLabelValues("ok").Inc()
	return dayMap
}

func (c *INMETClient) fetch(ctx context.Context, code string) ([]byte, error) {
	url := strings.ReplaceAll(c.urlTemplate, codePlaceholder, code)

	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		// 5xx counts against the breaker; any other non-200 is just "no
		// data" for this municipality and must not trip it.
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return []byte(nil), nil
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, errors.New("unexpected result type from circuit breaker")
	}
	if body == nil {
		return nil, errNoData
	}
	return body, nil
}
