package restclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"simple-restclient/restclient/application"
	"simple-restclient/restclient/domain"
	"simple-restclient/restclient/infra"
)

var _ Requester = (*RateLimited)(nil)

type RateLimitOptions struct {
	// Delay mínimo entre o início de chamadas sucessivas, contado a partir da
	// aquisição do portão. Negativo é tratado como 0.
	Delay time.Duration
	// Executor que recebe as chamadas admitidas. Padrão: NewClient().
	// Só é chamado com o portão adquirido, então não precisa ser thread-safe.
	Executor Requester
	// Gate padrão: infra.NewGate() (FIFO).
	Gate domain.Gate
	// Stats opcional, best-effort.
	Stats  domain.StatsStore
	Logger log.FieldLogger
}

// RateLimited serializa as chamadas de todos os chamadores em um único canal:
// no máximo uma chamada em andamento e pelo menos Delay entre admissões.
//
// Quando o ctx encerra antes da delegação, os métodos retornam (nil, nil):
// nenhuma requisição foi feita. Erros do executor passam inalterados.
//
// Não há timeout próprio: uma chamada delegada que nunca retorna segura o
// portão para sempre. Configure timeout no executor.
type RateLimited struct {
	next   Requester
	svc    application.AdmissionService
	stats  domain.StatsStore
	logger log.FieldLogger
}

func NewRateLimited(opts RateLimitOptions) *RateLimited {
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Executor == nil {
		opts.Executor = NewClient()
	}
	if opts.Gate == nil {
		opts.Gate = infra.NewGate()
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}

	return &RateLimited{
		next: opts.Executor,
		svc: application.AdmissionService{
			Gate:  opts.Gate,
			Delay: opts.Delay,
		},
		stats:  opts.Stats,
		logger: opts.Logger,
	}
}

func (r *RateLimited) Get(ctx context.Context, rawURL string, headers Headers) (*Response, error) {
	return r.do(ctx, http.MethodGet, rawURL, func(ctx context.Context) (*Response, error) {
		return r.next.Get(ctx, rawURL, headers)
	})
}

func (r *RateLimited) Post(ctx context.Context, rawURL string, body Body, headers Headers) (*Response, error) {
	return r.do(ctx, http.MethodPost, rawURL, func(ctx context.Context) (*Response, error) {
		return r.next.Post(ctx, rawURL, body, headers)
	})
}

func (r *RateLimited) Put(ctx context.Context, rawURL string, body Body, headers Headers) (*Response, error) {
	return r.do(ctx, http.MethodPut, rawURL, func(ctx context.Context) (*Response, error) {
		return r.next.Put(ctx, rawURL, body, headers)
	})
}

func (r *RateLimited) Delete(ctx context.Context, rawURL string, headers Headers) (*Response, error) {
	return r.do(ctx, http.MethodDelete, rawURL, func(ctx context.Context) (*Response, error) {
		return r.next.Delete(ctx, rawURL, headers)
	})
}

func (r *RateLimited) Head(ctx context.Context, rawURL string, headers Headers) (*Response, error) {
	return r.do(ctx, http.MethodHead, rawURL, func(ctx context.Context) (*Response, error) {
		return r.next.Head(ctx, rawURL, headers)
	})
}

func (r *RateLimited) do(ctx context.Context, method, rawURL string, call func(context.Context) (*Response, error)) (*Response, error) {
	requested := time.Now()
	fields := log.Fields{"method": method, "url": rawURL}

	release, ok := r.svc.Admit(ctx)
	if !ok {
		r.logger.WithFields(fields).Debug("rate limited request: cancelled before delegation")
		r.record(ctx, method, rawURL, domain.OutcomeCancelled, time.Since(requested))
		return nil, nil
	}
	queued := time.Since(requested)
	// ordem LIFO: o portão é liberado antes do registro de stats
	defer r.record(ctx, method, rawURL, domain.OutcomeAdmitted, queued)
	defer release()

	r.logger.WithFields(fields).WithField("queued", queued).Debug("rate limited request: admitted")
	return call(ctx)
}

func (r *RateLimited) record(ctx context.Context, method, rawURL string, outcome domain.Outcome, queued time.Duration) {
	if r.stats == nil {
		return
	}
	ev := domain.AdmissionEvent{
		Method:  method,
		Outcome: outcome,
		Queued:  queued,
		At:      time.Now(),
	}
	if u, err := url.Parse(rawURL); err == nil {
		ev.Host = u.Host
	}
	// o registro ignora o cancelamento do chamador
	if err := r.stats.Record(context.WithoutCancel(ctx), ev); err != nil {
		r.logger.WithError(err).Warn("rate limited request: stats record failed")
	}
}
