package domain

import (
	"context"
	"time"
)

// Outcome é o resultado da admissão de uma chamada.
type Outcome string

const (
	// OutcomeAdmitted: portão adquirido e intervalo cumprido; a chamada foi delegada.
	OutcomeAdmitted Outcome = "admitted"
	// OutcomeCancelled: ctx encerrou antes da delegação; nenhuma requisição foi feita.
	OutcomeCancelled Outcome = "cancelled"
)

// AdmissionEvent representa um evento de admissão do serializador.
//
// Observação: Host fica de fora da chave agregada por padrão para não explodir
// a cardinalidade em bases como Redis.
type AdmissionEvent struct {
	Method  string
	Host    string
	Outcome Outcome

	// Queued é o tempo entre a chamada e o fim da espera (admitida ou
	// cancelada). Os stores agregam só o das admitidas.
	Queued time.Duration

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de admissão.
//
// Implementações podem armazenar em Redis, memória, etc.
// O serializador trata erro como best-effort (não derruba a chamada).
type StatsStore interface {
	Record(ctx context.Context, ev AdmissionEvent) error
}
