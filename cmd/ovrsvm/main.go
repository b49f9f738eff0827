package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ovrsvm/internal/cfg"
	"ovrsvm/internal/classifier"
	"ovrsvm/internal/dataset"
	"ovrsvm/internal/kernel"
	"ovrsvm/internal/metrics"
	"ovrsvm/internal/server"
	"ovrsvm/internal/storage"
	"ovrsvm/internal/svm"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// .env is optional; environment wins over file values either way.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	session := classifier.NewSession(newSolver(c), mw)

	if c.DatasetPath != "" {
		if err := loadDataset(session, store, mw, c); err != nil {
			log.Fatal().Err(err).Str("path", c.DatasetPath).Msg("dataset load failed")
		}
	}

	startMetricsServer(ctx, c)

	var runStore server.RunStore
	if store != nil {
		runStore = store
	}
	api := server.New(session, runStore, c.DatasetName, c.ListenPort)

	if c.TrainOnStart {
		go trainAtBoot(ctx, session, store, mw, c)
	}

	go func() {
		if err := api.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, cancel, api, c.ShutdownTimeout)
}

// newSolver picks the training backend from config.
func newSolver(c cfg.Settings) classifier.Solver {
	if c.SolverMode == "remote" {
		log.Info().Str("url", c.SolverURL).Msg("using remote solver")
		return svm.NewRemoteSolver(c.SolverURL, c.SolverTimeout)
	}
	return svm.LocalSolver{}
}

// initializeStorage opens the run store if DATA_PATH is configured.
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// loadDataset ingests the configured CSV into the session.
func loadDataset(session *classifier.Session, store *storage.Store, mw *metrics.Wrapper, c cfg.Settings) error {
	ds, err := dataset.LoadCSV(c.DatasetPath)
	if err != nil {
		return err
	}

	labelCol := c.LabelColumn
	if labelCol == "" {
		labelCol = ds.DefaultLabelColumn()
	}
	featureCols := c.FeatureColumns
	if len(featureCols) == 0 {
		featureCols = ds.DefaultFeatureColumns(labelCol)
	}

	if err := session.Load(ds, featureCols, labelCol); err != nil {
		mw.ExtractionErrorsInc()
		return err
	}
	mw.DatasetsLoadedInc()

	if store != nil {
		record := storage.DatasetRecord{
			Name:           c.DatasetName,
			Source:         c.DatasetPath,
			Rows:           len(ds.Rows),
			FeatureColumns: featureCols,
			LabelColumn:    labelCol,
			Timestamp:      time.Now(),
		}
		if err := store.StoreDataset(record); err != nil {
			log.Warn().Err(err).Msg("failed to persist dataset record")
		}
	}

	log.Info().
		Str("dataset", c.DatasetName).
		Int("rows", len(ds.Rows)).
		Strs("features", featureCols).
		Str("label", labelCol).
		Msg("dataset loaded")
	return nil
}

// trainAtBoot runs one training pass over the configured dataset so
// the service comes up serving predictions.
func trainAtBoot(ctx context.Context, session *classifier.Session, store *storage.Store, mw *metrics.Wrapper, c cfg.Settings) {
	kind, err := kernel.ParseKind(c.Kernel)
	if err != nil {
		log.Error().Err(err).Msg("startup training skipped")
		return
	}
	dim := len(session.Snapshot().FeatureColumns)
	spec, err := kernel.Resolve(kind, c.Gamma, dim)
	if err != nil {
		log.Error().Err(err).Msg("startup training skipped")
		return
	}

	start := time.Now()
	if err := session.Train(ctx, spec, c.Cost); err != nil {
		log.Error().Err(err).Msg("startup training failed")
		return
	}
	elapsed := time.Since(start)

	status := session.Snapshot()
	mw.ModelClassesSet(len(status.Labels))
	log.Info().
		Str("kernel", status.Kernel).
		Float64("accuracy", status.Accuracy).
		Dur("elapsed", elapsed).
		Msg("startup training complete")

	if store != nil {
		record := storage.RunRecord{
			Dataset:   c.DatasetName,
			Kernel:    status.Kernel,
			Cost:      status.Cost,
			Gamma:     c.Gamma,
			Classes:   status.Labels,
			Accuracy:  status.Accuracy,
			Rows:      status.Rows,
			Duration:  elapsed,
			Timestamp: status.TrainedAt,
		}
		if err := store.StoreRun(record); err != nil {
			log.Warn().Err(err).Msg("failed to persist training run")
		}
	}
}

// startMetricsServer starts the Prometheus metrics HTTP server.
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := srv.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown blocks until a signal or context cancellation, then
// drains the API server.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, api *server.Server, timeout time.Duration) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
}
