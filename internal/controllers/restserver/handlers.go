package restserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/tempwatch/tempwatch/internal/analysis"
	"github.com/tempwatch/tempwatch/internal/ingest"
	"github.com/tempwatch/tempwatch/pkg/responseformat"
)

// maxUploadBytes bounds dataset uploads (64 MiB).
const maxUploadBytes = 64 << 20

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetCities returns the city names present in the dataset.
func (h *Handlers) GetCities(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, citiesResponse{Cities: h.controller.store.Cities()})
}

// GetSeries returns one city's series annotated with rolling statistics
// and anomaly flags.
func (h *Handlers) GetSeries(w http.ResponseWriter, req *http.Request) {
	city := mux.Vars(req)["city"]

	annotated, err := h.controller.store.Annotated(city)
	if err != nil {
		h.writeEngineError(w, req, err)
		return
	}
	h.formatter.WriteResponse(w, req, toSeriesResponse(city, annotated))
}

// GetProfile returns one city's season-to-baseline mapping. The source
// query parameter overrides the configured baseline source.
func (h *Handlers) GetProfile(w http.ResponseWriter, req *http.Request) {
	city := mux.Vars(req)["city"]

	source := h.controller.baselineSource
	switch req.URL.Query().Get("source") {
	case "":
	case "raw":
		source = analysis.BaselineRaw
	case "rolling":
		source = analysis.BaselineRolling
	default:
		h.formatter.WriteError(w, req, http.StatusBadRequest, "source must be raw or rolling")
		return
	}

	profile, err := h.controller.store.Profile(city, source)
	if err != nil {
		h.writeEngineError(w, req, err)
		return
	}
	h.formatter.WriteResponse(w, req, toProfileResponse(city, string(source), profile))
}

// ClassifyCurrent fetches the current temperature for a city and tests
// it against the seasonal baseline for the current season.
func (h *Handlers) ClassifyCurrent(w http.ResponseWriter, req *http.Request) {
	city := mux.Vars(req)["city"]

	profile, err := h.controller.store.Profile(city, h.controller.baselineSource)
	if err != nil {
		h.writeEngineError(w, req, err)
		return
	}

	if h.controller.weather == nil {
		h.formatter.WriteError(w, req, http.StatusBadGateway, "reading unavailable: no weather API key configured")
		return
	}

	reading, err := h.controller.weather.CurrentTemperature(req.Context(), city)
	if err != nil {
		h.writeEngineError(w, req, err)
		return
	}

	classification, err := analysis.Classify(profile, reading)
	if err != nil {
		h.writeEngineError(w, req, err)
		return
	}
	h.formatter.WriteResponse(w, req, toClassificationResponse(classification))
}

// UploadDataset replaces the historical series with a CSV payload. The
// CSV can arrive as the raw request body or as a multipart "file" field.
func (h *Handlers) UploadDataset(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	defer req.Body.Close()

	var payload io.Reader = req.Body
	if strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/") {
		file, _, err := req.FormFile("file")
		if err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, "multipart upload must carry a \"file\" field")
			return
		}
		defer file.Close()
		payload = file
	}

	series, err := ingest.ReadSeries(payload)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
		return
	}

	total := 0
	for _, obs := range series {
		total += len(obs)
	}
	h.controller.store.Replace(series)
	h.controller.logger.Infof("dataset replaced: %d cities, %d observations", len(series), total)

	h.formatter.WriteResponse(w, req, uploadResponse{Cities: len(series), Observations: total})
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func (h *Handlers) writeEngineError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, analysis.ErrInsufficientData):
		h.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
	case errors.Is(err, analysis.ErrBaselineUnavailable):
		h.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
	case errors.Is(err, analysis.ErrReadingUnavailable):
		h.formatter.WriteError(w, req, http.StatusBadGateway, err.Error())
	default:
		h.controller.logger.Errorf("internal error: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "internal error")
	}
}
