package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

type Key string

// Endpoint é o conjunto fechado de rotas com cota própria.
type Endpoint string

const (
	EndpointConvert Endpoint = "convert"
	EndpointBatch   Endpoint = "batch"
)

// Endpoints lista todos os endpoints conhecidos, em ordem estável.
func Endpoints() []Endpoint { return []Endpoint{EndpointConvert, EndpointBatch} }

func (e Endpoint) Valid() bool {
	return e == EndpointConvert || e == EndpointBatch
}

// Policy define a cota de um endpoint: MaxRequests por Window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

func (p Policy) Valid() bool { return p.MaxRequests > 0 && p.Window > 0 }

// Policies mapeia cada endpoint para sua política.
type Policies map[Endpoint]Policy

// DefaultPolicies: convert 100/min, batch 20/min (batch custa mais por request).
func DefaultPolicies() Policies {
	return Policies{
		EndpointConvert: {MaxRequests: 100, Window: time.Minute},
		EndpointBatch:   {MaxRequests: 20, Window: time.Minute},
	}
}

// QuotaStore guarda uma janela de contagem por (Key, Endpoint).
//
// Check precisa ser atômico por chave: duas chamadas concorrentes com
// count = MaxRequests-1 nunca podem ambas retornar Allowed.
// Sweep remove janelas expiradas e retorna quantas foram removidas.
type QuotaStore interface {
	Check(ctx context.Context, key Key, endpoint Endpoint, p Policy) (Decision, error)
	Sweep(ctx context.Context) (int, error)
}

type Decision struct {
	Allowed bool

	// Limit é o MaxRequests da política aplicada.
	Limit int
	// Remaining é a cota restante na janela atual (nunca negativa).
	Remaining int
	// ResetAt é quando a janela atual expira.
	ResetAt time.Time

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
