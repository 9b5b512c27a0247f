// Package apierror define a taxonomia de rejeições da API e o writer JSON que a
// traduz para status + corpo seguro (sem detalhes internos).
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

type Kind int

const (
	KindInternal Kind = iota
	KindMethodNotAllowed
	KindRateLimitExceeded
	KindUnsupportedMediaType
	KindPayloadTooLarge
	KindMalformedBody
	KindSchemaViolation
	KindConversionFailure
	KindOverloaded
)

var kindNames = map[Kind]string{
	KindInternal:             "internal_error",
	KindMethodNotAllowed:     "method_not_allowed",
	KindRateLimitExceeded:    "rate_limit_exceeded",
	KindUnsupportedMediaType: "unsupported_media_type",
	KindPayloadTooLarge:      "payload_too_large",
	KindMalformedBody:        "malformed_body",
	KindSchemaViolation:      "schema_violation",
	KindConversionFailure:    "conversion_failure",
	KindOverloaded:           "overloaded",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Status mapeia o tipo para o status HTTP.
// UnsupportedMediaType responde 400 (e não 415), como o restante dos erros de entrada.
func (k Kind) Status() int {
	switch k {
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindRateLimitExceeded:
		return http.StatusTooManyRequests
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnsupportedMediaType, KindMalformedBody, KindSchemaViolation, KindConversionFailure:
		return http.StatusBadRequest
	case KindOverloaded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error é uma rejeição classificada. Message/Detail/Field/Index vão para o
// cliente; Err é a causa interna e só aparece em log.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Field   string
	Index   *int

	RetryAfter time.Duration
	Allow      string

	Err error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Internal embrulha uma falha inesperada com a mensagem genérica.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

func (e *Error) WithIndex(i int) *Error {
	e.Index = &i
	return e
}

func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + e.Message
	if e.Index != nil {
		msg += fmt.Sprintf(" (index %d)", *e.Index)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int { return e.Kind.Status() }

// Body é o corpo JSON de erro.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Index   *int   `json:"index,omitempty"`
	Success *bool  `json:"success,omitempty"`
}

func (e *Error) Body() Body {
	b := Body{Error: e.Message, Message: e.Detail, Field: e.Field, Index: e.Index}
	if e.Kind == KindConversionFailure {
		f := false
		b.Success = &f
	}
	return b
}

// As extrai um *Error de err; qualquer outro erro vira Internal.
func As(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// Write responde com o status e corpo do erro (Retry-After/Allow quando houver).
func Write(w http.ResponseWriter, err error) {
	e := As(err)
	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(e.RetryAfter/time.Second)))
	}
	if e.Allow != "" {
		w.Header().Set("Allow", e.Allow)
	}
	WriteJSON(w, e.Status(), e.Body())
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
