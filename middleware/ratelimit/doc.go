// Package ratelimit fornece os adapters HTTP (net/http) para cota por cliente e
// limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa em memória/Redis, token bucket,
//     estatísticas, semáforo)
//   - ratelimit (este pacote): extração da chave do cliente, Limiter e tradução
//     da decisão para status/headers
//
// Fluxo dentro do pipeline de admissão:
//
//  1. KeyFunc extrai a chave do cliente (headers em ordem configurável)
//  2. Limiter.Check chama a camada application para obter a decisão
//  3. Se bloqueado, devolve um apierror 429 com Retry-After
//  4. Se permitido, o handler responde e Annotate escreve X-RateLimit-*
//
// ConcurrencyMiddleware envolve o roteador inteiro e responde 503 quando não há vaga.
package ratelimit
