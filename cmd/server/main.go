// Command server runs the wildfire analytics service: it loads the fire
// occurrence dataset into the analysis store, optionally consumes raw fire
// reports from Kafka, and serves the dashboard API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	adapterhttp "github.com/firescope/wildfire-analytics/internal/adapter/http"
	adapterkafka "github.com/firescope/wildfire-analytics/internal/adapter/kafka"
	"github.com/firescope/wildfire-analytics/internal/adapter/nominatim"
	"github.com/firescope/wildfire-analytics/internal/config"
	"github.com/firescope/wildfire-analytics/internal/domain"
	"github.com/firescope/wildfire-analytics/internal/observability"
	"github.com/firescope/wildfire-analytics/internal/pipeline"
	"github.com/firescope/wildfire-analytics/internal/source"
	"github.com/firescope/wildfire-analytics/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	var geocoder domain.Geocoder
	if cfg.GeocoderEnabled {
		client := nominatim.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderTimeout, logger, metrics)
		geocoder = nominatim.NewCache(client, cfg.GeocoderCacheSize, metrics)
		logger.Info("state backfill geocoder enabled", "base_url", cfg.GeocoderBaseURL)
	}

	errCh := make(chan error, 3)
	var readiness []adapterhttp.ReadinessCheck
	var apiRefresher adapterhttp.Refresher

	if cfg.DataSource != "" {
		fetcher := source.NewFetcher(cfg.FetchTimeout, cfg.FetchRPS, cfg.FetchBurst, logger)
		loader := source.NewLoader(fetcher, cfg.DataSource, cfg.DataFormat, logger)
		refresher := pipeline.NewRefresher(loader, st, geocoder, cfg.RefreshInterval, metrics, logger)
		readiness = append(readiness, refresher.CheckReadiness)
		apiRefresher = refresher

		// A one-shot refresher returning nil must not take the service
		// down with it.
		go func() {
			if err := refresher.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	if cfg.KafkaEnabled {
		reader := adapterkafka.NewReader(adapterkafka.ReaderConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaSourceTopic,
			GroupID:       cfg.KafkaGroupID,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.BatchFlushInterval,
		}, logger)
		defer reader.Close()

		loaders := pipeline.Fanout{pipeline.NewStoreLoader(st, metrics, logger)}
		if cfg.KafkaSinkTopic != "" {
			writer := adapterkafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
			defer writer.Close()
			loaders = append(loaders, pipeline.NewSinkLoader(writer, metrics))
		}

		p := pipeline.New(reader, pipeline.NewFireTransformer(geocoder, logger), loaders, metrics, logger)
		readiness = append(readiness, p.CheckReadiness)

		go func() {
			if err := p.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	srv := adapterhttp.NewServer(adapterhttp.Config{
		Addr:       cfg.HTTPAddr,
		Store:      st,
		Refresher:  apiRefresher,
		Readiness:  readiness,
		SampleSize: cfg.SampleSize,
		SampleSeed: cfg.SampleSeed,
		Logger:     logger,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	return runErr
}
