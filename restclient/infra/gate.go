package infra

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Gate é um portão exclusivo (peso 1) baseado em semaphore.Weighted, que atende
// os waiters em ordem FIFO e remove da fila quem tem o ctx cancelado.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate cria um portão livre.
func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire implementa domain.Gate.
// Um ctx já encerrado nunca adquire, mesmo com o portão livre.
func (g *Gate) Acquire(ctx context.Context) (func(), bool) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { g.sem.Release(1) })
	}, true
}
