package restserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tempwatch/tempwatch/internal/analysis"
	"github.com/tempwatch/tempwatch/internal/dataset"
	"github.com/tempwatch/tempwatch/internal/types"
	"go.uber.org/zap"
)

type fakeWeather struct {
	reading types.CurrentReading
	err     error
}

func (f *fakeWeather) CurrentTemperature(ctx context.Context, city string) (types.CurrentReading, error) {
	if f.err != nil {
		return types.CurrentReading{}, f.err
	}
	reading := f.reading
	reading.City = city
	return reading, nil
}

// winterSeries is 60 January/February days around -2C.
func winterSeries(city string) []types.Observation {
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]types.Observation, 60)
	for i := range obs {
		ts := start.AddDate(0, 0, i)
		obs[i] = types.Observation{
			City:        city,
			Timestamp:   ts,
			Temperature: -2.0 + 0.1*float64(i%5),
			Season:      types.SeasonForTime(ts),
		}
	}
	return obs
}

func newTestController(t *testing.T, weather WeatherClient) *Controller {
	t.Helper()
	store := dataset.New(analysis.DefaultRollingOptions())
	store.Replace(map[string][]types.Observation{
		"Oslo": winterSeries("Oslo"),
	})

	var wg sync.WaitGroup
	return NewController(context.Background(), &wg, store, weather, analysis.BaselineRolling, ":0", zap.NewNop().Sugar())
}

func doRequest(c *Controller, method, target string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	c.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestGetCities(t *testing.T) {
	c := newTestController(t, nil)
	rec := doRequest(c, http.MethodGet, "/api/cities", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Cities []string `json:"cities"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Cities) != 1 || resp.Cities[0] != "Oslo" {
		t.Errorf("cities = %v", resp.Cities)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestGetSeries(t *testing.T) {
	c := newTestController(t, nil)
	rec := doRequest(c, http.MethodGet, "/api/series/Oslo", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		City         string `json:"city"`
		Observations []struct {
			Rolling struct {
				Center *float64 `json:"center"`
			} `json:"rolling"`
			Anomaly bool `json:"anomaly"`
		} `json:"observations"`
	}
	decodeJSON(t, rec, &resp)

	if resp.City != "Oslo" || len(resp.Observations) != 60 {
		t.Fatalf("city=%q observations=%d", resp.City, len(resp.Observations))
	}
	// Edge rows serialize their undefined statistics as null.
	if resp.Observations[0].Rolling.Center != nil {
		t.Error("expected null center at leading edge")
	}
	if resp.Observations[30].Rolling.Center == nil {
		t.Error("expected defined center mid-series")
	}
}

func TestGetSeriesUnknownCity(t *testing.T) {
	c := newTestController(t, nil)
	rec := doRequest(c, http.MethodGet, "/api/series/Atlantis", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetProfile(t *testing.T) {
	c := newTestController(t, nil)

	rec := doRequest(c, http.MethodGet, "/api/profile/Oslo?source=raw", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Source  string `json:"source"`
		Profile map[string]struct {
			Mean *float64 `json:"mean"`
			Std  *float64 `json:"std"`
		} `json:"profile"`
	}
	decodeJSON(t, rec, &resp)

	if resp.Source != "raw" {
		t.Errorf("source = %q", resp.Source)
	}
	winter, ok := resp.Profile["winter"]
	if !ok {
		t.Fatalf("expected winter baseline, got %v", resp.Profile)
	}
	if winter.Mean == nil || winter.Std == nil {
		t.Error("expected defined winter mean and std")
	}
	if _, ok := resp.Profile["summer"]; ok {
		t.Error("summer baseline should be absent")
	}
}

func TestGetProfileBadSource(t *testing.T) {
	c := newTestController(t, nil)
	rec := doRequest(c, http.MethodGet, "/api/profile/Oslo?source=magic", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestClassifyCurrent(t *testing.T) {
	weather := &fakeWeather{
		reading: types.CurrentReading{
			Temperature: -1.9,
			ObservedAt:  time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
		},
	}
	c := newTestController(t, weather)

	rec := doRequest(c, http.MethodGet, "/api/classify/Oslo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Season string `json:"season"`
		Normal bool   `json:"normal"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Season != "winter" {
		t.Errorf("season = %q", resp.Season)
	}
	if !resp.Normal {
		t.Error("reading close to the winter mean should classify as normal")
	}
}

func TestClassifyCurrentBaselineUnavailable(t *testing.T) {
	// The dataset has only winter data; a July reading resolves to summer
	// which has no baseline.
	weather := &fakeWeather{
		reading: types.CurrentReading{
			Temperature: 20.0,
			ObservedAt:  time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC),
		},
	}
	c := newTestController(t, weather)

	rec := doRequest(c, http.MethodGet, "/api/classify/Oslo", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestClassifyCurrentReadingUnavailable(t *testing.T) {
	weather := &fakeWeather{err: analysis.ErrReadingUnavailable}
	c := newTestController(t, weather)

	rec := doRequest(c, http.MethodGet, "/api/classify/Oslo", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502: %s", rec.Code, rec.Body.String())
	}
}

func TestClassifyCurrentNoWeatherClient(t *testing.T) {
	c := newTestController(t, nil)
	rec := doRequest(c, http.MethodGet, "/api/classify/Oslo", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestUploadDataset(t *testing.T) {
	c := newTestController(t, nil)

	csv := strings.Join([]string{
		"city,timestamp,temperature,season",
		"Bergen,2023-03-01,4.0,spring",
		"Bergen,2023-03-02,5.0,spring",
	}, "\n")

	rec := doRequest(c, http.MethodPost, "/api/dataset", csv)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Cities       int `json:"cities"`
		Observations int `json:"observations"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Cities != 1 || resp.Observations != 2 {
		t.Errorf("upload response = %+v", resp)
	}

	// The old dataset is gone; only the uploaded city remains.
	rec = doRequest(c, http.MethodGet, "/api/cities", "")
	var cities struct {
		Cities []string `json:"cities"`
	}
	decodeJSON(t, rec, &cities)
	if len(cities.Cities) != 1 || cities.Cities[0] != "Bergen" {
		t.Errorf("cities after upload = %v", cities.Cities)
	}
}

func TestUploadDatasetMultipart(t *testing.T) {
	c := newTestController(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "dataset.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("city,timestamp,temperature,season\nTromso,2023-06-01,11.5,summer\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/dataset", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Observations int `json:"observations"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Observations != 1 {
		t.Errorf("observations = %d", resp.Observations)
	}
}

func TestUploadDatasetMalformed(t *testing.T) {
	c := newTestController(t, nil)
	rec := doRequest(c, http.MethodPost, "/api/dataset", "not,a,valid\nheader")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMsgpackFormatNegotiation(t *testing.T) {
	c := newTestController(t, nil)
	rec := doRequest(c, http.MethodGet, "/api/cities?format=msgpack", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/x-msgpack" {
		t.Errorf("Content-Type = %q", got)
	}
}
