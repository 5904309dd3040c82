package application

import (
	"context"
	"time"

	"simple-restclient/restclient/domain"
)

// AdmissionService concentra a regra de admissão: portão primeiro, depois o
// intervalo fixo contado a partir da aquisição, sem saber nada sobre HTTP.
type AdmissionService struct {
	Gate  domain.Gate
	Delay time.Duration
}

// Admit bloqueia até o chamador ser admitido.
//   - Sem Gate, admite imediatamente (sem serialização nem espera).
//   - Se o ctx encerrar na fila do portão ou durante o intervalo, retorna ok=false
//     e o portão já foi liberado.
//
// Com ok=true, o chamador detém o portão e deve chamar release exatamente uma vez.
func (s AdmissionService) Admit(ctx context.Context) (func(), bool) {
	if s.Gate == nil {
		return func() {}, true
	}

	release, ok := s.Gate.Acquire(ctx)
	if !ok {
		return nil, false
	}
	if s.Delay <= 0 {
		if ctx.Err() != nil {
			release()
			return nil, false
		}
		return release, true
	}

	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		release()
		return nil, false
	case <-t.C:
		return release, true
	}
}
