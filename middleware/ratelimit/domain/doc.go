// Package domain define contratos e tipos de domínio para cotas por cliente,
// estatísticas de decisão e limite de concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// QuotaStore é o ponto de troca entre o store em memória (padrão, uma instância)
// e stores externos (Redis) sem mexer no pipeline de admissão.
package domain
