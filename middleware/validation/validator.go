package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"

	"address-gateway/middleware/apierror"
	"address-gateway/middleware/ratelimit/domain"
)

// Request é o corpo já validado e sanitizado. Imutável: os acessores não
// expõem o slice interno.
type Request struct {
	endpoint  domain.Endpoint
	addresses []string
}

func (r *Request) Endpoint() domain.Endpoint { return r.endpoint }

// Address retorna o endereço de um request de convert.
func (r *Request) Address() string {
	if len(r.addresses) == 0 {
		return ""
	}
	return r.addresses[0]
}

func (r *Request) Len() int { return len(r.addresses) }

func (r *Request) At(i int) string { return r.addresses[i] }

func (r *Request) Addresses() []string { return slices.Clone(r.addresses) }

type Validator struct {
	rules map[domain.Endpoint]Rules
}

func New(rules map[domain.Endpoint]Rules) *Validator {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Validator{rules: rules}
}

// Validate roda, em ordem e parando na primeira falha: Content-Type, tamanho,
// sintaxe, estrutura e sanitização. Erros são sempre *apierror.Error.
func (v *Validator) Validate(r *http.Request, ep domain.Endpoint) (*Request, error) {
	rules, ok := v.rules[ep]
	if !ok {
		return nil, apierror.Internal(fmt.Errorf("no validation rules for endpoint %q", ep))
	}
	if err := CheckContentType(r.Header.Get("Content-Type")); err != nil {
		return nil, err
	}
	body, err := ReadBody(r.Body, r.ContentLength, rules.MaxBodyBytes)
	if err != nil {
		return nil, err
	}
	return Parse(body, ep, rules)
}

// CheckContentType aceita application/json e tipos com sufixo +json.
func CheckContentType(ct string) error {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || !(mt == "application/json" || strings.HasSuffix(mt, "+json")) {
		return apierror.New(apierror.KindUnsupportedMediaType, "Invalid Content-Type. Expected application/json")
	}
	return nil
}

// ReadBody lê o corpo cru respeitando o teto. Content-Length declarado acima
// do teto é recusado sem ler nada.
func ReadBody(body io.Reader, declared, limit int64) ([]byte, error) {
	if declared > limit {
		return nil, tooLarge(limit)
	}
	if body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		e := apierror.New(apierror.KindMalformedBody, "Invalid request format")
		e.Err = err
		return nil, e
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(limit)
	}
	return data, nil
}

func tooLarge(limit int64) error {
	return apierror.New(apierror.KindPayloadTooLarge,
		"Request body too large. Maximum size is "+humanSize(limit))
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// Parse valida sintaxe, estrutura e sanitiza cada endereço.
func Parse(body []byte, ep domain.Endpoint, rules Rules) (*Request, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		var typeErr *json.UnmarshalTypeError
		if err == nil || errors.As(err, &typeErr) {
			return nil, apierror.New(apierror.KindMalformedBody, "Request body must be a JSON object")
		}
		e := apierror.New(apierror.KindMalformedBody, "Invalid JSON in request body")
		e.Err = err
		return nil, e
	}

	if rules.Batch {
		return parseBatch(obj, ep, rules)
	}
	return parseSingle(obj, ep, rules)
}

func parseSingle(obj map[string]json.RawMessage, ep domain.Endpoint, rules Rules) (*Request, error) {
	raw, ok := obj[rules.Field]
	if !ok || isNull(raw) {
		return nil, schema("Address parameter is required", rules.Field)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, schema("Address must be a string", rules.Field)
	}
	clean, err := Sanitize(s)
	if err != nil {
		return nil, schema(clientMessage(err), rules.Field)
	}
	return &Request{endpoint: ep, addresses: []string{clean}}, nil
}

func parseBatch(obj map[string]json.RawMessage, ep domain.Endpoint, rules Rules) (*Request, error) {
	raw, ok := obj[rules.Field]
	if !ok || isNull(raw) {
		return nil, schema("Addresses array is required", rules.Field)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, schema("Addresses array is required", rules.Field)
	}
	if len(items) == 0 {
		return nil, schema("Addresses array cannot be empty", rules.Field)
	}
	if len(items) > rules.MaxItems {
		return nil, schema(fmt.Sprintf("Batch size exceeds maximum of %d addresses", rules.MaxItems), rules.Field)
	}

	out := make([]string, len(items))
	for i, item := range items {
		var s string
		if isNull(item) || json.Unmarshal(item, &s) != nil {
			return nil, schema(fmt.Sprintf("Address at index %d must be a string", i), rules.Field).WithIndex(i)
		}
		clean, err := Sanitize(s)
		if err != nil {
			return nil, schema(fmt.Sprintf("Invalid address at index %d: %s", i, clientMessage(err)), rules.Field).WithIndex(i)
		}
		out[i] = clean
	}
	return &Request{endpoint: ep, addresses: out}, nil
}

func schema(msg, field string) *apierror.Error {
	return apierror.New(apierror.KindSchemaViolation, msg).WithField(field)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
