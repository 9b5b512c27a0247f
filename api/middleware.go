package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"address-gateway/metrics"
	"address-gateway/middleware/apierror"
	"address-gateway/middleware/ratelimit"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestLogger loga cada request e alimenta as métricas HTTP.
func requestLogger(logger *zap.Logger, resolve ratelimit.KeyFunc, m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				elapsed := time.Since(start)

				var route string
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					route = rctx.RoutePattern()
				}
				m.ObserveRequest(r.Method, route, status, elapsed)

				logger.Info("HTTP request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Duration("duration", elapsed),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("client", resolve(r)),
					zap.Int("bytes", ww.BytesWritten()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// recoverer converte pânico em 500 JSON genérico; a stack só vai para o log.
func recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic in handler",
					zap.Any("panic", rec),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				apierror.Write(w, apierror.Internal(nil))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
