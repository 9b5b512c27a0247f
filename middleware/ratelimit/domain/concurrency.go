package domain

import "context"

// SlotPool representa um recurso com capacidade finita (ex: requests em voo no gateway).
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar. Com ctx já
// encerrado, uma vaga livre ainda é entregue (tentativa sem espera).
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
// InUse é apenas informativo (métricas) e pode estar defasado.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
	InUse() int
}
