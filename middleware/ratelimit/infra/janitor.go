package infra

import (
	"context"
	"time"

	"address-gateway/middleware/ratelimit/domain"
)

// StartJanitor inicia uma goroutine que chama store.Sweep a cada `every`,
// independente do tráfego. Pare cancelando o contexto.
//
// onSweep (opcional) recebe o resultado de cada passada (logs/métricas).
func StartJanitor(ctx context.Context, store domain.QuotaStore, every time.Duration, onSweep func(removed int, err error)) {
	if store == nil || every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := store.Sweep(ctx)
				if onSweep != nil {
					onSweep(n, err)
				}
			}
		}
	}()
}
