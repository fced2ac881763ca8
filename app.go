package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"homely-price-discovery/config"
	"homely-price-discovery/models"
	"homely-price-discovery/oracle/homely"
	"homely-price-discovery/services"
	"homely-price-discovery/storage"
	"homely-price-discovery/utils"
)

const (
	minMaxResults = 100
	maxMaxResults = 1000
)

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
	market *config.Market

	closers []func() error
}

func newApp() (*app, error) {
	cfg := config.Load()
	logger := utils.NewLoggerWithOptions(utils.LoggerOptions{
		Writer: os.Stderr,
		Level:  utils.ParseLevel(cfg.LogLevel),
		JSON:   strings.EqualFold(cfg.LogFormat, "json"),
	})

	market, err := config.LoadMarket(cfg.MarketFile)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, market: market}, nil
}

func (a *app) retry() *utils.RetryConfig {
	return &utils.RetryConfig{MaxAttempts: a.cfg.MaxRetries, BaseDelay: time.Second, Logger: a.logger}
}

// discoverer wires the Homely client and, when configured, the Redis cache.
func (a *app) discoverer(ctx context.Context) *services.Discoverer {
	client := homely.NewClient(homely.Options{
		Endpoint: a.market.Endpoint,
		Timeout:  a.cfg.RequestTimeout,
		Retries:  a.cfg.HTTPRetries,
		Pacer:    utils.NewPacer(a.cfg.PageDelay),
		Logger:   a.logger,
	})
	d := services.NewDiscoverer(client, a.market.Ladder, a.logger)

	if a.cfg.CacheEnabled() {
		cache, err := storage.NewRedisCache(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, a.cfg.CacheTTL, a.retry())
		if err != nil {
			a.logger.Warn("[cache] disabled: %v", err)
		} else {
			a.closers = append(a.closers, cache.Close)
			d.UseCache(cache)
		}
	}
	return d
}

// runWriter returns the PostgreSQL sink, or nil when persistence is off.
func (a *app) runWriter(ctx context.Context) (storage.RunWriter, error) {
	if !a.cfg.PersistResults {
		return nil, nil
	}
	pw, err := storage.NewPostgresWriter(ctx, a.cfg.DSN(), a.retry())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pw.Close)
	return pw, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close: %v", err)
		}
	}
}

// progressLogger reports discovery stages through the logger.
func (a *app) progressLogger() services.ProgressFunc {
	return func(ev models.ProgressEvent) {
		if ev.Total > 0 {
			a.logger.Info("[%s] (%d/%d) %s", ev.Stage, ev.Index, ev.Total, ev.Message)
			return
		}
		a.logger.Info("[%s] %s", ev.Stage, ev.Message)
	}
}

func validateMaxResults(n int) error {
	if n < minMaxResults || n > maxMaxResults {
		return fmt.Errorf("max results must be between %d and %d, got %d", minMaxResults, maxMaxResults, n)
	}
	return nil
}

func resolveSuburb(m *config.Market, name string) (models.Suburb, error) {
	s, ok := m.Suburb(name)
	if !ok {
		names := make([]string, len(m.Suburbs))
		for i, s := range m.Suburbs {
			names[i] = s.Name
		}
		return models.Suburb{}, fmt.Errorf("unknown suburb %q (known: %s)", name, strings.Join(names, ", "))
	}
	return s, nil
}
