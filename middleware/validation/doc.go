// Package validation confere o corpo das requests de conversão antes que
// qualquer lógica de negócio rode.
//
// Estágios (na ordem, parando no primeiro erro):
//
//  1. Content-Type: application/json ou +json
//  2. Tamanho: bytes crus, com checagem prévia do Content-Length
//  3. Sintaxe: JSON válido e objeto
//  4. Estrutura: campo obrigatório, tipo, limites do batch
//  5. Sanitização: trim, tamanho em code points e denylist de injeção
//
// O resultado é um *Request imutável; falhas são *apierror.Error.
package validation
