package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const forecastBody = `{
  "location": {"name": "Hastings"},
  "forecast": {"forecastday": [{"date": "2025-03-05", "day": {"maxtemp_c": 11.2, "mintemp_c": 3.4}}]}
}`

func newTestClient(srvURL string) *Client {
	return NewClient(Options{
		BaseURL:  srvURL,
		Key:      "k",
		Location: "TN174HH",
		Backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
		},
	})
}

func TestMinTemp_ParsesForecastAndSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != forecastPath {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "k" || q.Get("q") != "TN174HH" || q.Get("days") != "1" || q.Get("aqi") != "no" || q.Get("alerts") != "no" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).MinTemp(context.Background())
	if err != nil {
		t.Fatalf("MinTemp: %v", err)
	}
	if got != 3.4 {
		t.Fatalf("MinTemp = %v, want 3.4", got)
	}
}

func TestMinTemp_FetchedFreshEveryCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		if _, err := c.MinTemp(context.Background()); err != nil {
			t.Fatalf("MinTemp: %v", err)
		}
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestMinTemp_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).MinTemp(context.Background())
	if err != nil {
		t.Fatalf("MinTemp: %v", err)
	}
	if got != 3.4 || calls.Load() != 3 {
		t.Fatalf("got %v after %d calls", got, calls.Load())
	}
}

func TestMinTemp_ZeroRetriesMakesSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Options{
		BaseURL:  srv.URL,
		Key:      "k",
		Location: "TN174HH",
		Backoff:  BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := c.MinTemp(ctx)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("expected DataError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestMinTemp_DataErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		wantOp string
		want   error
	}{
		{"client error not retried", http.StatusForbidden, `{}`, "fetch", errUnexpected},
		{"no days", http.StatusOK, `{"forecast":{"forecastday":[]}}`, "decode", errNoForecastDay},
		{"field missing", http.StatusOK, `{"forecast":{"forecastday":[{"day":{}}]}}`, "decode", errMissingMinTemp},
		{"field not numeric", http.StatusOK, `{"forecast":{"forecastday":[{"day":{"mintemp_c":"cold"}}]}}`, "decode", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).MinTemp(context.Background())
			var de *DataError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DataError, got %v", err)
			}
			if de.Op != tc.wantOp {
				t.Fatalf("op = %q, want %q (%v)", de.Op, tc.wantOp, err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v in chain, got %v", tc.want, err)
			}
			if calls.Load() != 1 {
				t.Fatalf("calls = %d, want 1", calls.Load())
			}
		})
	}
}

func TestMinTemp_MissingSettings(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Location: "x"})
	if _, err := c.MinTemp(context.Background()); !errors.Is(err, errMissingKey) {
		t.Fatalf("expected errMissingKey, got %v", err)
	}
	c = NewClient(Options{BaseURL: "http://127.0.0.1:1", Key: "k"})
	if _, err := c.MinTemp(context.Background()); !errors.Is(err, errMissingLocation) {
		t.Fatalf("expected errMissingLocation, got %v", err)
	}
}
