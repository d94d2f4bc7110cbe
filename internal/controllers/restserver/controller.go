// Package restserver exposes the analysis engine over HTTP: the
// annotated series, seasonal profiles, normality classification of the
// current temperature, and dataset uploads.
package restserver

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/tempwatch/tempwatch/internal/analysis"
	"github.com/tempwatch/tempwatch/internal/dataset"
	"github.com/tempwatch/tempwatch/internal/log"
	"github.com/tempwatch/tempwatch/internal/types"
	"go.uber.org/zap"
)

// WeatherClient supplies the current temperature for a named city.
type WeatherClient interface {
	CurrentTemperature(ctx context.Context, city string) (types.CurrentReading, error)
}

// Controller represents the REST server controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	store          *dataset.Store
	weather        WeatherClient
	baselineSource analysis.BaselineSource
	Server         http.Server
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new REST server controller. The weather client
// may be nil when no API key is configured; the classify endpoint then
// reports the reading as unavailable.
func NewController(ctx context.Context, wg *sync.WaitGroup, store *dataset.Store, weather WeatherClient, baselineSource analysis.BaselineSource, listenAddr string, logger *zap.SugaredLogger) *Controller {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		store:          store,
		weather:        weather,
		baselineSource: baselineSource,
		logger:         logger,
	}

	ctrl.handlers = NewHandlers(ctrl)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = listenAddr
	ctrl.Server.Handler = router

	return ctrl
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(c.requestLogMiddleware)

	router.HandleFunc("/api/cities", c.handlers.GetCities).Methods(http.MethodGet)
	router.HandleFunc("/api/series/{city}", c.handlers.GetSeries).Methods(http.MethodGet)
	router.HandleFunc("/api/profile/{city}", c.handlers.GetProfile).Methods(http.MethodGet)
	router.HandleFunc("/api/classify/{city}", c.handlers.ClassifyCurrent).Methods(http.MethodGet)
	router.HandleFunc("/api/dataset", c.handlers.UploadDataset).Methods(http.MethodPost)

	return router
}
