// Package app builds the explorer's process-wide components from configuration. The tokenizer and
// stopword set are created once here and shared by every query.
package app

import (
	"context"
	"errors"

	"openlibrary-explorer/internal/analytics"
	"openlibrary-explorer/internal/cache"
	"openlibrary-explorer/internal/config"
	"openlibrary-explorer/internal/explorer"
	"openlibrary-explorer/internal/kafka"
	"openlibrary-explorer/internal/logger"
	"openlibrary-explorer/internal/ol"
	"openlibrary-explorer/internal/store"
)

// App holds the long-lived components of one process.
type App struct {
	Config   *config.Config
	Client   *ol.Client
	Cache    cache.ResponseCache
	Producer *kafka.Producer
	Stats    *store.RedisStatsStore
	Service  *explorer.Service
}

// New wires the Open Library client, response cache, optional event producer, optional query
// stats reader and the service.
func New(cfg *config.Config) (*App, error) {
	client, err := ol.NewClient(ol.Options{
		BaseURL:           cfg.OpenLibrary.BaseURL,
		UserAgent:         cfg.OpenLibrary.UserAgent,
		ProxyURL:          cfg.OpenLibrary.ProxyURL,
		ConnectTimeout:    cfg.OpenLibrary.ConnectTimeout,
		ResponseTimeout:   cfg.OpenLibrary.ResponseTimeout,
		TotalTimeout:      cfg.OpenLibrary.TotalTimeout,
		RequestsPerSecond: cfg.OpenLibrary.RequestsPerSecond,
		Burst:             cfg.OpenLibrary.Burst,
	})
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Client: client}
	switch cfg.Cache.Backend {
	case "redis":
		a.Cache = cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.Prefix, cfg.Cache.OrphanTTL)
	default:
		a.Cache = cache.NewMemoryCache()
	}

	var opts []explorer.Option
	if cfg.Kafka.Broker != "" {
		a.Producer = kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.Topic)
		opts = append(opts, explorer.WithEvents(a.Producer, cfg.Kafka.PublishTimeout))
	}

	if cfg.Stats.Enabled {
		a.Stats = store.NewRedisStatsStore(cfg.Cache.RedisAddr, cfg.Stats.Prefix)
	}

	a.Service = explorer.NewService(client, a.Cache, analytics.NewTokenizer(), opts...)
	logger.For(context.Background()).
		WithField("cache", cfg.Cache.Backend).
		WithField("events", cfg.Kafka.Broker != "").
		WithField("stats", cfg.Stats.Enabled).
		Info("explorer initialized")
	return a, nil
}

// Close releases the cache, producer and stats store.
func (a *App) Close() error {
	var errs []error
	if a.Stats != nil {
		errs = append(errs, a.Stats.Close())
	}
	if a.Producer != nil {
		errs = append(errs, a.Producer.Close())
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	return errors.Join(errs...)
}
