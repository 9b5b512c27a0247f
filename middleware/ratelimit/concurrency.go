package ratelimit

import (
	"net/http"
	"time"

	"address-gateway/middleware/apierror"
	"address-gateway/middleware/ratelimit/application"
	"address-gateway/middleware/ratelimit/domain"
	"address-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
	// Pool permite injetar o semáforo (métricas/testes); padrão: ChanPool(Max).
	Pool domain.SlotPool
	// OnReject é chamado a cada request recusada por falta de vaga.
	OnReject func(r *http.Request)
}

// ConcurrencyMiddleware limita o número de requests em voo no gateway inteiro.
// Sem vaga dentro do AcquireTimeout, responde 503 (Overloaded) em JSON.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 && opts.Pool == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.Pool == nil {
		opts.Pool = infra.NewChanPool(opts.Max)
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if opts.OnReject != nil {
					opts.OnReject(r)
				}
				apierror.Write(w, apierror.New(apierror.KindOverloaded, "Service temporarily overloaded"))
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
