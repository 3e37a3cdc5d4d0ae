package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/xtremeops/shipstation-export/internal/config"
	"github.com/xtremeops/shipstation-export/pkg/delivery"
	"github.com/xtremeops/shipstation-export/pkg/export"
	"github.com/xtremeops/shipstation-export/pkg/logging"
	"github.com/xtremeops/shipstation-export/pkg/refcache"
	"github.com/xtremeops/shipstation-export/pkg/retry"
	"github.com/xtremeops/shipstation-export/pkg/shipstation"
)

// Exit codes: 0 when every job delivered or had zero rows; 1 when any job
// produced an artifact that failed delivery or the run aborted mid-way;
// 2 for configuration errors before any work started.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitConfig
	}

	logger, err := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup: %v\n", err)
		return exitConfig
	}

	clientCfg := shipstation.DefaultConfig(cfg.APIKey, cfg.APISecret)
	clientCfg.BaseURL = cfg.APIBaseURL
	clientCfg.PageSize = cfg.PageSize
	clientCfg.ConnectTimeout = cfg.ConnectTimeout
	clientCfg.RequestTimeout = cfg.RequestTimeout
	clientCfg.Retry = retry.DefaultPolicy()
	clientCfg.Retry.MaxAttempts = cfg.FetchRetries

	client, err := shipstation.New(clientCfg)
	if err != nil {
		logger.Error().Err(err).Msg("client setup failed")
		return exitConfig
	}

	uploader, err := delivery.New(delivery.Config{
		Host:           cfg.SFTPHost,
		Port:           cfg.SFTPPort,
		User:           cfg.SFTPUser,
		Password:       cfg.SFTPPassword,
		Retries:        cfg.DeliveryRetries,
		Delay:          cfg.DeliveryDelay,
		ConnectTimeout: cfg.ConnectTimeout,
		Atomic:         cfg.AtomicDelivery,
		MkdirAll:       true,
	})
	if err != nil {
		logger.Error().Err(err).Msg("delivery setup failed")
		return exitConfig
	}

	ctx := context.Background()

	stores, err := loadStores(ctx, cfg, client, logger)
	if err != nil {
		logger.Error().Err(err).Msg("store reference load failed")
		return exitFailed
	}

	runner := &export.Runner{
		Source:    client,
		Deliverer: uploader,
		Stores:    stores,
		Services:  export.DefaultServiceLookup(),
		Schema:    export.SchemaByName(cfg.Schema),
		Status:    cfg.Status,
		Prefix:    cfg.JobPrefix,
		OutputDir: cfg.OutputDir,
		RemoteDir: cfg.RemoteDir,
		Logger:    logging.NewLogger("export"),
	}

	exit := exitOK
	for _, tag := range cfg.Tags {
		outcome, err := runner.Run(ctx, export.Job{TagID: tag.ID, Label: tag.Label})
		if err != nil {
			// Fetch-phase failures are fatal for the whole run.
			logger.Error().Err(err).Str("tag", tag.ID).Msg("run aborted")
			return exitFailed
		}
		if outcome.Err != nil || (!outcome.Delivered && outcome.Rows > 0) {
			exit = exitFailed
		}
	}

	return exit
}

// loadStores builds the run's store lookup: reference cache first, live
// fetch on miss, cache repopulated best-effort. The cache is optional; the
// live fetch is not.
func loadStores(ctx context.Context, cfg *config.Config, client *shipstation.Client, logger zerolog.Logger) (map[string]string, error) {
	var cache *refcache.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, reference cache disabled")
		} else {
			cache = refcache.New(redisClient, logging.NewLogger("refcache"))
		}
	}

	if stores, err := cache.Stores(ctx); err == nil {
		return stores, nil
	} else if !errors.Is(err, refcache.ErrCacheMiss) {
		logger.Warn().Err(err).Msg("reference cache read failed, fetching live")
	}

	stores, err := client.FetchStores(ctx)
	if err != nil {
		return nil, err
	}

	if err := cache.SetStores(ctx, stores, cfg.StoreCacheTTL); err != nil {
		logger.Warn().Err(err).Msg("reference cache write failed")
	}

	return stores, nil
}
