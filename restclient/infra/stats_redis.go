package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"simple-restclient/restclient/domain"

	"github.com/redis/go-redis/v9"
)

const queuedField = "queued_ms"

// RedisStatsStore grava contadores de admissão em hashes:
//
//	<prefix>:total                admitted, cancelled, queued_ms
//	<prefix>:minute:YYYYMMDDhhmm  idem, com TTL
//	<prefix>:method               <METHOD>:<outcome>
//	<prefix>:host:<host>          admitted, cancelled, com TTL (opcional)
type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal / por host.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackHosts bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackHosts(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackHosts = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "restclient:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.AdmissionEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := string(ev.Outcome)
	if field == "" {
		return nil
	}

	// queued_ms só soma as admitidas: a média é queued_ms / admitted
	queuedMs := int64(0)
	if ev.Outcome == domain.OutcomeAdmitted {
		queuedMs = ev.Queued.Milliseconds()
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)
	if queuedMs > 0 {
		pipe.HIncrBy(ctx, s.prefix+":total", queuedField, queuedMs)
	}

	if s.bucket == "minute" {
		bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, field, 1)
		if queuedMs > 0 {
			pipe.HIncrBy(ctx, bucketKey, queuedField, queuedMs)
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, bucketKey, s.ttl)
		}
	}

	if method := strings.TrimSpace(ev.Method); method != "" {
		pipe.HIncrBy(ctx, s.prefix+":method", method+":"+field, 1)
	}

	if s.trackHosts {
		if host := strings.TrimSpace(ev.Host); host != "" {
			hostKey := s.prefix + ":host:" + host
			pipe.HIncrBy(ctx, hostKey, field, 1)
			if s.ttl > 0 {
				pipe.Expire(ctx, hostKey, s.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
