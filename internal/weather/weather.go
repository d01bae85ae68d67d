package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sony/gobreaker"
)

const forecastPath = "/v1/forecast.json"

var (
	errMissingKey      = errors.New("weather api key is not configured")
	errMissingLocation = errors.New("weather location is not configured")
	errNoForecastDay   = errors.New("forecast has no days")
	errMissingMinTemp  = errors.New("mintemp_c missing")
	errNotFinite       = errors.New("mintemp_c is not finite")
	errServerError     = errors.New("server error")
	errUnexpected      = errors.New("unexpected status code")
)

// DataError reports a failed fetch or an unusable forecast document.
type DataError struct {
	Op  string // fetch | decode
	Err error
}

func (e *DataError) Error() string { return fmt.Sprintf("weather %s: %v", e.Op, e.Err) }

func (e *DataError) Unwrap() error { return e.Err }

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Options configures a weatherapi.com forecast client.
type Options struct {
	BaseURL  string // e.g. http://api.weatherapi.com
	Key      string
	Location string // postcode, city or "lat,lon"
	HTTP     *http.Client
	Backoff  BackoffConfig
}

// Client fetches today's minimum temperature from weatherapi.com.
type Client struct {
	opts    Options
	circuit *gobreaker.CircuitBreaker
}

// NewClient returns a forecast client with retry and circuit breaker defaults.
func NewClient(opts Options) *Client {
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Backoff.InitialInterval <= 0 {
		opts.Backoff = BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{opts: opts, circuit: cb}
}

type forecastPayload struct {
	Forecast struct {
		ForecastDay []struct {
			Day struct {
				MinTempC *float64 `json:"mintemp_c"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// MinTemp returns today's forecast minimum in °C. It never caches.
func (c *Client) MinTemp(ctx context.Context) (float64, error) {
	if c.opts.Key == "" {
		return 0, &DataError{Op: "fetch", Err: errMissingKey}
	}
	if c.opts.Location == "" {
		return 0, &DataError{Op: "fetch", Err: errMissingLocation}
	}

	body, err := c.fetch(ctx)
	if err != nil {
		return 0, &DataError{Op: "fetch", Err: err}
	}

	v, err := parseMinTemp(body)
	if err != nil {
		return 0, &DataError{Op: "decode", Err: err}
	}
	return v, nil
}

func (c *Client) forecastURL() string {
	values := url.Values{}
	values.Set("key", c.opts.Key)
	values.Set("q", c.opts.Location)
	values.Set("days", "1")
	values.Set("aqi", "no")
	values.Set("alerts", "no")
	return c.opts.BaseURL + forecastPath + "?" + values.Encode()
}

// fetch runs the GET with retries, exponential backoff and a circuit breaker.
func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	var body []byte
	op := func() error {
		result, err := c.circuit.Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.forecastURL(), nil)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			resp, err := c.opts.HTTP.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, backoff.Permanent(fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode))
			}
			var raw json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
				return nil, backoff.Permanent(fmt.Errorf("read body: %w", err))
			}
			return []byte(raw), nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("circuit breaker open: %w", err))
			}
			return err
		}
		body = result.([]byte)
		return nil
	}

	policy := backoff.WithContext(c.opts.Backoff.policy(), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}

// policy allows exactly MaxRetries extra attempts; WithMaxRetries alone
// would retry forever when it is 0.
func (bc BackoffConfig) policy() backoff.BackOff {
	if bc.MaxRetries <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = bc.InitialInterval
	if bc.MaxInterval > 0 {
		b.MaxInterval = bc.MaxInterval
	}
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(bc.MaxRetries))
}

func parseMinTemp(body []byte) (float64, error) {
	var payload forecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, err
	}
	days := payload.Forecast.ForecastDay
	if len(days) == 0 {
		return 0, errNoForecastDay
	}
	v := days[0].Day.MinTempC
	if v == nil {
		return 0, errMissingMinTemp
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, errNotFinite
	}
	return *v, nil
}
