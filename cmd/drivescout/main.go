package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/drive-scout-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/drive-scout-service/internal/adapter/kafka"
	"github.com/couchcryptid/drive-scout-service/internal/adapter/mapbox"
	"github.com/couchcryptid/drive-scout-service/internal/adapter/mobilize"
	"github.com/couchcryptid/drive-scout-service/internal/config"
	"github.com/couchcryptid/drive-scout-service/internal/domain"
	"github.com/couchcryptid/drive-scout-service/internal/observability"
	"github.com/couchcryptid/drive-scout-service/internal/pipeline"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	resolver, err := cfg.DistrictResolver()
	if err != nil {
		logger.Error("failed to build district resolver", "error", err)
		os.Exit(1)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Kafka feed is optional; a nil publisher skips publishing.
	var (
		publisher pipeline.Publisher
		writer    *kafkaadapter.Writer
	)
	if len(cfg.KafkaBrokers) > 0 {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	fetcher := mobilize.NewClient(cfg.MobilizeBaseURL, cfg.MobilizeOrg, cfg.MobilizeTagIDs, cfg.MobilizePerPage, cfg.MobilizeTimeout, logger)
	transformer := pipeline.NewTransformer(resolver, geocoder, cfg.BuildOptions(), logger)

	p := pipeline.New(fetcher, cfg.Policy(), transformer, cfg.Ranker(), publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, cfg.DebugMode, logger, metrics)

	logger.Info("drive scout configured",
		"org", cfg.MobilizeOrg,
		"policy", cfg.ClassifierPolicy,
		"district_strategy", cfg.DistrictStrategy,
		"proximity", cfg.ProximityEnabled,
		"debug", cfg.DebugMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
