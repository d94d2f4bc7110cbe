package weatherapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tempwatch/tempwatch/internal/analysis"
	"go.uber.org/zap"
)

func testClient(baseURL string) *Client {
	return NewClient("test-key", Options{
		BaseURL:           baseURL,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		BreakerFailures:   3,
		BreakerCooldown:   time.Minute,
	}, zap.NewNop().Sugar())
}

func TestCurrentTemperature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Oslo" {
			t.Errorf("expected q=Oslo, got %q", got)
		}
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Errorf("expected appid=test-key, got %q", got)
		}
		if got := r.URL.Query().Get("units"); got != "metric" {
			t.Errorf("expected units=metric, got %q", got)
		}
		fmt.Fprint(w, `{"main":{"temp":-3.7},"name":"Oslo"}`)
	}))
	defer server.Close()

	client := testClient(server.URL)
	reading, err := client.CurrentTemperature(context.Background(), "Oslo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.Temperature != -3.7 {
		t.Errorf("expected -3.7, got %f", reading.Temperature)
	}
	if reading.City != "Oslo" {
		t.Errorf("expected city Oslo, got %q", reading.City)
	}
	if reading.ObservedAt.IsZero() {
		t.Error("expected ObservedAt to be set")
	}
}

func TestCurrentTemperatureNonSuccess(t *testing.T) {
	statuses := []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusInternalServerError}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"nope"}`, status)
			}))
			defer server.Close()

			client := testClient(server.URL)
			_, err := client.CurrentTemperature(context.Background(), "Oslo")
			if !errors.Is(err, analysis.ErrReadingUnavailable) {
				t.Errorf("status %d: expected ErrReadingUnavailable, got %v", status, err)
			}
		})
	}
}

func TestCurrentTemperatureMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"main":`)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if _, err := client.CurrentTemperature(context.Background(), "Oslo"); !errors.Is(err, analysis.ErrReadingUnavailable) {
		t.Errorf("expected ErrReadingUnavailable, got %v", err)
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(server.URL)
	for i := 0; i < 5; i++ {
		if _, err := client.CurrentTemperature(context.Background(), "Oslo"); !errors.Is(err, analysis.ErrReadingUnavailable) {
			t.Fatalf("call %d: expected ErrReadingUnavailable, got %v", i, err)
		}
	}

	// The breaker trips after 3 consecutive failures; later calls must
	// not reach the server.
	if calls != 3 {
		t.Errorf("expected 3 upstream calls before the circuit opened, got %d", calls)
	}
}

func TestCurrentTemperatureContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := testClient(server.URL)
	if _, err := client.CurrentTemperature(ctx, "Oslo"); !errors.Is(err, analysis.ErrReadingUnavailable) {
		t.Errorf("expected ErrReadingUnavailable, got %v", err)
	}
}
