// Package api monta o roteador HTTP do gateway: /convert e /batch passam pelo
// pipeline de admissão; /docs, /health, /metrics e /stats são somente leitura.
package api

import (
	"net/http"

	"address-gateway/address"
	"address-gateway/metrics"
	"address-gateway/middleware/admission"
	"address-gateway/middleware/apierror"
	"address-gateway/middleware/ratelimit"
	"address-gateway/middleware/ratelimit/domain"
	"address-gateway/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Deps struct {
	Pipeline *admission.Pipeline
	Codec    address.Codec
	// Policies alimenta a documentação estática.
	Policies domain.Policies
	Resolve  ratelimit.KeyFunc
	Metrics  *metrics.Collector
	// Stats, quando não nil, é servido em GET /stats.
	Stats        infra.StatsReader
	Logger       *zap.Logger
	CORSOrigins  []string
	BatchWorkers int
}

func NewRouter(d Deps) chi.Router {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Resolve == nil {
		d.Resolve = ratelimit.HeaderKeyFunc(ratelimit.DefaultClientIPHeaders, false)
	}
	if d.Policies == nil {
		d.Policies = domain.DefaultPolicies()
	}
	if d.Codec == nil {
		d.Codec = address.NewBCH(address.Mainnet)
	}
	if d.Pipeline == nil {
		d.Pipeline = admission.New(admission.Options{Resolve: d.Resolve, Logger: d.Logger, Observer: d.Metrics})
	}
	if len(d.CORSOrigins) == 0 {
		d.CORSOrigins = []string{"*"}
	}

	convert, batch := docPolicy(d.Policies, domain.EndpointConvert), docPolicy(d.Policies, domain.EndpointBatch)
	h := &Handler{
		pipeline:   d.Pipeline,
		codec:      d.Codec,
		metrics:    d.Metrics,
		logger:     d.Logger,
		workers:    d.BatchWorkers,
		convertDoc: convertDoc(convert),
		batchDoc:   batchDoc(batch),
		apiDoc:     apiDoc(convert, batch),
	}

	router := chi.NewRouter()

	// middleware.RealIP não entra: reescreveria RemoteAddr com outra precedência.
	router.Use(middleware.RequestID)
	router.Use(requestLogger(d.Logger, d.Resolve, d.Metrics))
	router.Use(recoverer(d.Logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{
			ratelimit.HeaderLimit,
			ratelimit.HeaderRemaining,
			ratelimit.HeaderReset,
			ratelimit.HeaderRetryAfter,
		},
		MaxAge: 300,
	}))

	// todos os métodos chegam ao handler: o pipeline responde 405 com Allow.
	router.HandleFunc("/convert", h.Convert)
	router.HandleFunc("/batch", h.Batch)

	router.Get("/docs", h.Docs)
	router.Get("/health", Health)
	if d.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	if d.Stats != nil {
		router.Get("/stats", statsHandler(d.Stats, d.Logger))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierror.WriteJSON(w, http.StatusNotFound, apierror.Body{Error: "Endpoint not found"})
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", http.MethodGet)
		apierror.WriteJSON(w, http.StatusMethodNotAllowed, apierror.Body{Error: "Method not allowed"})
	})

	return router
}

func docPolicy(p domain.Policies, ep domain.Endpoint) policyInfo {
	pol := p[ep]
	return policyInfo{Max: pol.MaxRequests, Window: pol.Window.String()}
}

func statsHandler(s infra.StatsReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.Snapshot(r.Context())
		if err != nil {
			logger.Warn("stats snapshot failed", zap.Error(err))
			apierror.Write(w, apierror.Internal(err))
			return
		}
		apierror.WriteJSON(w, http.StatusOK, snap)
	}
}
