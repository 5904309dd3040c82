package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"simple-restclient/restclient"
	"simple-restclient/restclient/domain"
	"simple-restclient/restclient/infra"
)

func main() {
	cfg, err := readConfig(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("config error")
	}
	if level, errLevel := log.ParseLevel(cfg.logLevel); errLevel == nil {
		log.SetLevel(level)
	}
	os.Exit(run(cfg))
}

// run retorna o código de saída; os defers rodam antes do os.Exit em main.
func run(cfg config) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clientOpts := []restclient.ClientOption{
		restclient.WithTimeout(cfg.timeout),
		restclient.WithUserAgent("restfetch"),
	}
	var throttle *infra.HostLimiters
	if cfg.throttleRPS > 0 {
		throttle = infra.NewHostLimiters(cfg.throttleRPS, cfg.throttleBurst)
		go throttle.RunJanitor(ctx)
		clientOpts = append(clientOpts, restclient.WithThrottle(throttle))
	}

	summary := infra.NewMemoryStatsStore(infra.WithTrackHosts(true))
	stats := statsFanout{summary}
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			log.WithError(err).Error("redis stats ping error")
			return 1
		}

		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsTrackHosts(cfg.statsTrackHosts),
		))
	}

	rl := restclient.NewRateLimited(restclient.RateLimitOptions{
		Delay:    cfg.delay,
		Executor: restclient.NewClient(clientOpts...),
		Stats:    stats,
	})

	log.WithFields(log.Fields{
		"urls":     len(cfg.urls),
		"workers":  cfg.workers,
		"delay":    cfg.delay,
		"throttle": cfg.throttleRPS,
		"stats":    cfg.statsEnabled,
	}).Info("restfetch starting")

	start := time.Now()
	results := fetchAll(ctx, rl, cfg.urls, cfg.workers, log.StandardLogger())

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	total := summary.Total()
	fields := log.Fields{
		"admitted":    total.Admitted,
		"cancelled":   total.Cancelled,
		"failed":      failed,
		"mean_queued": summary.MeanQueued(),
		"elapsed":     time.Since(start),
	}
	if throttle != nil {
		fields["throttled_hosts"] = throttle.Len()
	}
	log.WithFields(fields).Info("restfetch done")

	if failed > 0 {
		return 1
	}
	return 0
}

// statsFanout repassa cada evento para todos os stores.
type statsFanout []domain.StatsStore

func (f statsFanout) Record(ctx context.Context, ev domain.AdmissionEvent) error {
	var firstErr error
	for _, s := range f {
		if err := s.Record(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
