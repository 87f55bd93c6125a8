// Package ratelimit fornece os adapters HTTP (net/http) do rate limit por janela fixa
// e do limite de concorrência da busca.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (contagem na janela, acquire/timeout) sem net/http
//   - infra: implementações concretas (store em shards com limpeza, semáforo, stats)
//   - ratelimit (este pacote): identificação do cliente, middlewares e headers
//
// Fluxo na busca:
//
//  1. Extrai a chave do cliente do header de proxy confiável (ou gera um id único)
//  2. Conta a request na janela corrente
//  3. Escreve X-RateLimit-Limit/Remaining/Reset em qualquer desfecho
//  4. Se passou do limite, responde 429 com Retry-After; senão chama o próximo handler
//
// Limitação conhecida: o estado é do processo. Várias instâncias não compartilham
// contadores.
package ratelimit
