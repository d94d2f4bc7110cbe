package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tempwatch/tempwatch/internal/analysis"
	"github.com/tempwatch/tempwatch/internal/controllers/restserver"
	"github.com/tempwatch/tempwatch/internal/dataset"
	"github.com/tempwatch/tempwatch/internal/ingest"
	"github.com/tempwatch/tempwatch/internal/log"
	"github.com/tempwatch/tempwatch/internal/weatherapi"
	"github.com/tempwatch/tempwatch/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return err
	}

	store := dataset.New(rollingOptions(cfg.Engine))

	if cfg.Dataset.Path != "" {
		series, err := ingest.LoadFile(cfg.Dataset.Path)
		if err != nil {
			return err
		}
		total := 0
		for _, obs := range series {
			total += len(obs)
		}
		store.Replace(series)
		log.Infof("loaded dataset from %s: %d cities, %d observations", cfg.Dataset.Path, len(series), total)
	} else {
		log.Info("no dataset path configured; waiting for an upload")
	}

	var weather restserver.WeatherClient
	if cfg.Weather.APIKey != "" {
		weather = weatherapi.NewClient(cfg.Weather.APIKey, weatherapi.Options{
			BaseURL:           cfg.Weather.BaseURL,
			RequestsPerSecond: cfg.Weather.RequestsPerSecond,
			BreakerFailures:   cfg.Weather.BreakerFailures,
			BreakerCooldown:   time.Duration(cfg.Weather.BreakerCooldownS) * time.Second,
		}, a.logger)
	} else {
		log.Warn("no weather API key configured; classification endpoint will report readings unavailable")
	}

	rest := restserver.NewController(ctx, &wg, store, weather, analysis.BaselineSource(cfg.Engine.BaselineSource), cfg.HTTP.ListenAddr, a.logger)
	if err := rest.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// rollingOptions maps the engine configuration onto analysis options.
// The provider has already validated the statistic name.
func rollingOptions(engine config.EngineData) analysis.RollingOptions {
	opts := analysis.DefaultRollingOptions()
	opts.Window = engine.Window
	if engine.Statistic == "median" {
		opts.Mode = analysis.StatMedian
	}
	return opts
}
