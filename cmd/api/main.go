// Command api serves the credit risk modelling service: model training,
// scoring, feature selection, and reporting over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/excel"
	"github.com/pkiage/tool-credit-risk-modelling/adapters/postgres"
	"github.com/pkiage/tool-credit-risk-modelling/adapters/stats/selectors"
	"github.com/pkiage/tool-credit-risk-modelling/domain/credit"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/internal/api"
	"github.com/pkiage/tool-credit-risk-modelling/internal/audit"
	"github.com/pkiage/tool-credit-risk-modelling/internal/config"
	"github.com/pkiage/tool-credit-risk-modelling/internal/inference"
	"github.com/pkiage/tool-credit-risk-modelling/internal/jobs"
	"github.com/pkiage/tool-credit-risk-modelling/internal/logger"
	"github.com/pkiage/tool-credit-risk-modelling/internal/store"
	"github.com/pkiage/tool-credit-risk-modelling/internal/testkit"
	"github.com/pkiage/tool-credit-risk-modelling/internal/training"
)

const version = "0.1.0"

// sweepInterval is how often idle sessions are checked against the TTL.
const sweepInterval = 10 * time.Minute

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("api")
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := logger.WithLevel("api", cfg.LogLevel)

	if err := run(log, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(log zerolog.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink audit.Sink
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(ctx, postgres.Options{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.NewMigrationRunner().Run(ctx, db); err != nil {
			return err
		}
		sink = postgres.NewAuditRepository(db)
		log.Info().Msg("audit events persisted to postgres")
	}
	recorder := audit.NewRecorder(logger.WithLevel("audit", cfg.LogLevel), sink)

	registry := store.NewRegistry(cfg.Storage.MaxModelsPerSession, cfg.Storage.SessionTTL,
		logger.WithLevel("store", cfg.LogLevel))
	var snapshots *store.FileStore
	if cfg.Storage.PersistModels {
		snapshots = store.NewFileStore(cfg.Storage.ModelDir, logger.WithLevel("store", cfg.LogLevel))
	}

	data, err := loadDataset(log, cfg.Training)
	if err != nil {
		return err
	}
	log.Info().
		Int("rows", data.RowCount()).
		Int("features", data.ColumnCount()).
		Msg("dataset ready")

	trainingSvc := training.NewService(registry, snapshots, recorder, cfg.Hyperparameters,
		training.Defaults{TestSize: cfg.Training.TestSize, Seed: cfg.Training.RandomState},
		logger.WithLevel("training", cfg.LogLevel))
	inferenceSvc := inference.NewService(registry, recorder, logger.WithLevel("inference", cfg.LogLevel))

	pool := jobs.NewPool(selectors.NewEngine(cfg.Hyperparameters), recorder, jobs.Options{
		Capacity:         jobs.WorkerCapacity(cfg.Jobs.MaxWorkers),
		RateLimit:        cfg.Jobs.SelectionRateLimit,
		RateWindow:       cfg.Jobs.SelectionRateWindow,
		SelectionTimeout: cfg.Jobs.SelectionTimeout,
		Logger:           logger.WithLevel("jobs", cfg.LogLevel),
	})

	var apiKey string
	if cfg.Auth.Enabled {
		apiKey = cfg.Auth.APIKey
	}
	server := api.NewServer(api.Deps{
		Registry:  registry,
		Snapshots: snapshots,
		Training:  trainingSvc,
		Inference: inferenceSvc,
		Selection: pool,
		Recorder:  recorder,
		Data:      data,
		Log:       logger.WithLevel("api", cfg.LogLevel),
		Version:   version,
		APIKey:    apiKey,
	})

	go sweepSessions(ctx, registry, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loadDataset picks the training data source: an xlsx workbook, a CSV
// file, or the seeded synthetic generator when no path is configured.
func loadDataset(log zerolog.Logger, cfg config.TrainingConfig) (*dataset.Dataset, error) {
	switch {
	case strings.HasSuffix(cfg.DataPath, ".xlsx"):
		log.Info().Str("path", cfg.DataPath).Msg("loading xlsx dataset")
		return excel.LoadDataset(cfg.DataPath, credit.TargetColumn)
	case cfg.DataPath != "":
		log.Info().Str("path", cfg.DataPath).Msg("loading csv dataset")
		return dataset.LoadCSV(cfg.DataPath, credit.TargetColumn)
	default:
		log.Info().Int("rows", cfg.SyntheticRows).Msg("no data path configured, using synthetic dataset")
		genCfg := testkit.DefaultGeneratorConfig()
		genCfg.Rows = cfg.SyntheticRows
		genCfg.Seed = cfg.RandomState
		return testkit.NewGenerator(genCfg).Dataset()
	}
}

func sweepSessions(ctx context.Context, registry *store.Registry, log zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := registry.SweepExpired(now); n > 0 {
				log.Info().Int("sessions", n).Msg("expired idle sessions")
			}
		}
	}
}
