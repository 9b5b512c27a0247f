// Package admission encadeia as checagens que toda request de conversão
// atravessa antes de chegar ao codec.
//
// Ordem fixa, parando na primeira falha:
//
//	método -> (GET: leitura, admitido) -> chave do cliente -> cota -> validação
//
// O Pipeline não guarda estado mutável; o único estado compartilhado é o
// QuotaStore por trás do Limiter.
package admission

import (
	"fmt"
	"net/http"

	"address-gateway/middleware/apierror"
	"address-gateway/middleware/ratelimit"
	"address-gateway/middleware/ratelimit/domain"
	"address-gateway/middleware/validation"

	"go.uber.org/zap"
)

// AllowedMethods vai no header Allow das respostas 405.
const AllowedMethods = "POST, GET"

// OutcomeAdmitted é o label de métrica das requests admitidas.
const OutcomeAdmitted = "admitted"

// Observer recebe o desfecho de cada admissão (ex.: *metrics.Collector).
type Observer interface {
	ObserveAdmission(ep domain.Endpoint, outcome string)
}

type Options struct {
	Resolve   ratelimit.KeyFunc
	Limiter   *ratelimit.Limiter
	Validator *validation.Validator
	Logger    *zap.Logger
	Observer  Observer
}

type Pipeline struct {
	resolve   ratelimit.KeyFunc
	limiter   *ratelimit.Limiter
	validator *validation.Validator
	logger    *zap.Logger
	observer  Observer
}

func New(opts Options) *Pipeline {
	if opts.Resolve == nil {
		opts.Resolve = ratelimit.HeaderKeyFunc(ratelimit.DefaultClientIPHeaders, false)
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewLimiter(ratelimit.Options{Logger: opts.Logger})
	}
	if opts.Validator == nil {
		opts.Validator = validation.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pipeline{
		resolve:   opts.Resolve,
		limiter:   opts.Limiter,
		validator: opts.Validator,
		logger:    opts.Logger,
		observer:  opts.Observer,
	}
}

// Admission é o estado alcançado pelo pipeline.
//
// Em rejeição, Admit também devolve a Admission parcial: Decision fica
// preenchida se o estágio de cota rodou, para que os headers X-RateLimit-*
// sejam escritos mesmo no 429/400.
type Admission struct {
	Endpoint domain.Endpoint
	ReadOnly bool
	Client   domain.Key
	Decision *domain.Decision
	Request  *validation.Request
}

// Annotate escreve os headers de cota quando há decisão.
func (a *Admission) Annotate(h http.Header) {
	if a == nil || a.Decision == nil {
		return
	}
	ratelimit.Annotate(h, *a.Decision)
}

// Admit roda o pipeline para ep. err, quando não nil, é sempre *apierror.Error.
func (p *Pipeline) Admit(r *http.Request, ep domain.Endpoint) (*Admission, error) {
	adm := &Admission{Endpoint: ep}
	if !ep.Valid() {
		return adm, p.reject(adm, apierror.Internal(fmt.Errorf("unknown endpoint %q", ep)))
	}

	switch r.Method {
	case http.MethodGet:
		adm.ReadOnly = true
		p.logger.Debug("read-only request admitted", zap.String("endpoint", string(ep)))
		return adm, nil
	case http.MethodPost:
	default:
		e := apierror.New(apierror.KindMethodNotAllowed, "Method not allowed")
		e.Allow = AllowedMethods
		return adm, p.reject(adm, e)
	}

	adm.Client = domain.Key(p.resolve(r))

	dec, err := p.limiter.Check(r, adm.Client, ep)
	adm.Decision = dec
	if err != nil {
		return adm, p.reject(adm, err)
	}

	req, err := p.validator.Validate(r, ep)
	if err != nil {
		return adm, p.reject(adm, err)
	}
	adm.Request = req

	p.logger.Debug("request admitted",
		zap.String("endpoint", string(ep)),
		zap.String("client", string(adm.Client)),
		zap.Int("items", req.Len()),
	)
	p.observe(ep, OutcomeAdmitted)
	return adm, nil
}

func (p *Pipeline) reject(adm *Admission, err error) error {
	e := apierror.As(err)
	fields := []zap.Field{
		zap.String("endpoint", string(adm.Endpoint)),
		zap.String("client", string(adm.Client)),
		zap.String("kind", e.Kind.String()),
		zap.Int("status", e.Status()),
	}
	if e.Kind == apierror.KindInternal {
		p.logger.Error("admission failed", append(fields, zap.Error(e))...)
	} else {
		p.logger.Info("request rejected", append(fields, zap.String("reason", e.Message))...)
	}
	p.observe(adm.Endpoint, e.Kind.String())
	return e
}

func (p *Pipeline) observe(ep domain.Endpoint, outcome string) {
	if p.observer != nil {
		p.observer.ObserveAdmission(ep, outcome)
	}
}
