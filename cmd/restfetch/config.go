package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type config struct {
	urls     []string
	delay    time.Duration
	workers  int
	timeout  time.Duration
	logLevel string

	throttleRPS   float64
	throttleBurst int

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsTrackHosts    bool
}

// readConfig lê variáveis de ambiente (DELAY, WORKERS, ...) e, se CONFIG_PATH
// estiver definido, um arquivo YAML com as mesmas chaves em minúsculas.
// URLs vêm dos argumentos ou de URLS (separadas por vírgula).
func readConfig(args []string) (config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("delay", 2*time.Second)
	v.SetDefault("workers", 10)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("throttle_rps", 0)
	v.SetDefault("throttle_burst", 1)
	v.SetDefault("stats_enabled", false)
	v.SetDefault("stats_redis_db", 0)
	v.SetDefault("stats_prefix", "restclient:stats")
	v.SetDefault("stats_ttl", 24*time.Hour)
	v.SetDefault("stats_track_hosts", false)

	if path := strings.TrimSpace(v.GetString("config_path")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config{}, errors.Wrap(err, "read config file")
		}
	}

	cfg := config{
		delay:    v.GetDuration("delay"),
		workers:  v.GetInt("workers"),
		timeout:  v.GetDuration("timeout"),
		logLevel: v.GetString("log_level"),

		throttleRPS:   v.GetFloat64("throttle_rps"),
		throttleBurst: v.GetInt("throttle_burst"),

		statsEnabled:       v.GetBool("stats_enabled"),
		statsRedisAddr:     v.GetString("stats_redis_addr"),
		statsRedisPassword: v.GetString("stats_redis_password"),
		statsRedisDB:       v.GetInt("stats_redis_db"),
		statsPrefix:        v.GetString("stats_prefix"),
		statsTTL:           v.GetDuration("stats_ttl"),
		statsTrackHosts:    v.GetBool("stats_track_hosts"),
	}

	cfg.urls = splitURLs(args)
	if len(cfg.urls) == 0 {
		cfg.urls = splitURLs(v.GetStringSlice("urls"))
	}

	if len(cfg.urls) == 0 {
		return config{}, errors.New("no urls: pass them as arguments or set URLS")
	}
	if cfg.delay < 0 {
		return config{}, errors.New("DELAY must be >= 0")
	}
	if cfg.workers <= 0 {
		return config{}, errors.New("WORKERS must be > 0")
	}
	if cfg.throttleRPS < 0 {
		return config{}, errors.New("THROTTLE_RPS must be >= 0")
	}
	if cfg.throttleRPS > 0 && cfg.throttleBurst <= 0 {
		return config{}, errors.New("THROTTLE_BURST must be > 0")
	}
	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_ENABLED=true")
	}
	return cfg, nil
}

func splitURLs(items []string) []string {
	var out []string
	for _, item := range items {
		for _, u := range strings.Split(item, ",") {
			if u = strings.TrimSpace(u); u != "" {
				out = append(out, u)
			}
		}
	}
	return out
}
