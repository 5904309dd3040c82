package domain

import "context"

// Host identifica o destino de um throttle: host em minúsculas, com a porta
// apenas quando ela não é a padrão do esquema (ex: "api.example.com",
// "localhost:8081").
type Host string

// Limiter bloqueia até a próxima chamada ser permitida ou o ctx encerrar.
//
// A camada de infra usa golang.org/x/time/rate (token bucket).
type Limiter interface {
	Wait(ctx context.Context) error
}

// LimiterStore obtém o limiter de um host de destino.
type LimiterStore interface {
	Get(Host) Limiter
}
