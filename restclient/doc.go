// Package restclient fornece um cliente REST mínimo (GET/POST/PUT/DELETE/HEAD)
// e um modo de acesso serializado com intervalo mínimo entre requisições.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: caso de uso de admissão (portão + intervalo) sem net/http
//   - infra: implementações concretas (portão FIFO, token bucket por host, stats)
//   - restclient (este pacote): executor HTTP, Response, e o serializador RateLimited
//
// Fluxo do RateLimited:
//
//  1. Pede o portão exclusivo (fila FIFO)
//  2. Adquirido, espera o intervalo configurado (contado a partir da aquisição)
//  3. Se o ctx encerrar antes disso, libera o portão e retorna (nil, nil)
//  4. Senão delega ao executor ainda segurando o portão e libera ao final
//
// Client e RateLimited implementam Requester e podem ser trocados no ponto de uso.
package restclient
