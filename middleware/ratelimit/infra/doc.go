// Package infra contém implementações concretas para os contratos do pacote domain.
//
// Exemplos:
//   - WindowStore: contadores de janela fixa por chave, em shards, com limpeza periódica
//   - NewSearchSlots: vagas de busca sobre semaphore.Weighted
//   - MemoryStatsStore / RedisStatsStore: contagem por Outcome das decisões da guarda
package infra
