// Package domain define contratos e tipos de domínio para a admissão serializada
// de requisições HTTP (gate exclusivo + intervalo mínimo) e para o throttling
// opcional do transporte.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar as regras de
// admissão dos detalhes de infraestrutura.
package domain
