package domain

import "context"

// Gate representa o portão exclusivo que serializa as chamadas (no máximo um
// detentor por vez).
//
// A semântica é: Acquire bloqueia, em ordem de chegada, até conseguir o portão
// ou até o ctx encerrar. Ao adquirir, retorna uma função de release; chamá-la
// mais de uma vez é no-op. Se ok=false, nada foi adquirido.
type Gate interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
