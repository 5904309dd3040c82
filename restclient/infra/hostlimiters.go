package infra

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"simple-restclient/restclient/domain"
)

// HostLimiters mantém um token bucket (x/time/rate) por host de destino.
// Hosts sem uso há mais de idleTTL são descartados por Sweep/RunJanitor.
type HostLimiters struct {
	limit      rate.Limit
	burst      int
	idleTTL    time.Duration
	sweepEvery time.Duration

	mu    sync.Mutex
	hosts map[domain.Host]*hostLimiter
}

type hostLimiter struct {
	lim      *rate.Limiter
	lastUsed time.Time
}

type HostLimitersOption func(*HostLimiters)

// WithIdleTTL define após quanto tempo sem uso o host é descartado. Padrão: 15m.
func WithIdleTTL(d time.Duration) HostLimitersOption {
	return func(h *HostLimiters) { h.idleTTL = d }
}

// WithSweepEvery define o período do janitor. <= 0 desliga o janitor.
func WithSweepEvery(d time.Duration) HostLimitersOption {
	return func(h *HostLimiters) { h.sweepEvery = d }
}

// NewHostLimiters cria limiters de rps requisições por segundo (burst) por host.
func NewHostLimiters(rps float64, burst int, opts ...HostLimitersOption) *HostLimiters {
	h := &HostLimiters{
		limit:      rate.Limit(rps),
		burst:      burst,
		idleTTL:    15 * time.Minute,
		sweepEvery: 2 * time.Minute,
		hosts:      make(map[domain.Host]*hostLimiter),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get implementa domain.LimiterStore.
func (h *HostLimiters) Get(host domain.Host) domain.Limiter {
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	hl, ok := h.hosts[host]
	if !ok {
		hl = &hostLimiter{lim: rate.NewLimiter(h.limit, h.burst)}
		h.hosts[host] = hl
	}
	hl.lastUsed = now
	return hl.lim
}

// Len retorna quantos hosts têm limiter ativo.
func (h *HostLimiters) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hosts)
}

// Sweep descarta os hosts sem uso desde now-idleTTL e retorna quantos saíram.
func (h *HostLimiters) Sweep(now time.Time) int {
	cutoff := now.Add(-h.idleTTL)

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for host, hl := range h.hosts {
		if hl.lastUsed.Before(cutoff) {
			delete(h.hosts, host)
			removed++
		}
	}
	return removed
}

// RunJanitor chama Sweep a cada sweepEvery até o ctx encerrar. Bloqueia;
// rode em uma goroutine.
func (h *HostLimiters) RunJanitor(ctx context.Context) {
	if h.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(h.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			h.Sweep(now)
		}
	}
}
