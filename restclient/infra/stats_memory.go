package infra

import (
	"context"
	"sync"
	"time"

	"simple-restclient/restclient/domain"
)

type Counters struct {
	Admitted  int64
	Cancelled int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes, para o resumo do cmd/restfetch e desenvolvimento.
//
// Não faz expiração.
type MemoryStatsStore struct {
	mu       sync.Mutex
	total    Counters
	byMethod map[string]Counters
	byHost   map[string]Counters

	// tempo total de fila das chamadas admitidas
	queued time.Duration

	trackHosts bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackHosts(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackHosts = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byMethod: make(map[string]Counters),
		byHost:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.AdmissionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = count(s.total, ev.Outcome)
	if ev.Outcome == domain.OutcomeAdmitted {
		s.queued += ev.Queued
	}
	s.byMethod[ev.Method] = count(s.byMethod[ev.Method], ev.Outcome)
	if s.trackHosts {
		s.byHost[ev.Host] = count(s.byHost[ev.Host], ev.Outcome)
	}
	return nil
}

func count(c Counters, outcome domain.Outcome) Counters {
	switch outcome {
	case domain.OutcomeAdmitted:
		c.Admitted++
	case domain.OutcomeCancelled:
		c.Cancelled++
	}
	return c
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// MeanQueued é o tempo médio entre a chamada e a admissão, só das admitidas.
func (s *MemoryStatsStore) MeanQueued() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total.Admitted == 0 {
		return 0
	}
	return s.queued / time.Duration(s.total.Admitted)
}

func (s *MemoryStatsStore) ByMethod() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byMethod))
	for k, v := range s.byMethod {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByHost() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byHost))
	for k, v := range s.byHost {
		out[k] = v
	}
	return out
}
