// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryQuotaStore: janela fixa por (cliente, endpoint) em memória, com shards
//   - RedisQuotaStore: a mesma janela fixa via script Lua no Redis
//   - TokenBucketStore: alternativa token bucket usando golang.org/x/time/rate
//   - MemoryStatsStore / RedisStatsStore / TeeStats: estatísticas de decisão
//   - ChanPool: semáforo simples para limite de concorrência
//   - StartJanitor: varredura periódica de janelas expiradas
package infra
