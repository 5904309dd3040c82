// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - Gate: portão exclusivo FIFO usando golang.org/x/sync/semaphore
//   - HostLimiters: token bucket por host usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore: contadores de admissão
package infra
