// utilitário pequeno para formatação consistente dos headers de cota.
//    X-RateLimit-Reset usa ISO-8601 UTC com milissegundos (ex: 2026-10-19T12:00:00.000Z).

package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"address-gateway/middleware/ratelimit/domain"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"

	resetLayout = "2006-01-02T15:04:05.000Z07:00"
)

func formatInt(v int) string { return strconv.Itoa(v) }

func formatReset(t time.Time) string { return t.UTC().Format(resetLayout) }

// Annotate escreve os headers de cota da decisão em h.
func Annotate(h http.Header, dec domain.Decision) {
	h.Set(HeaderLimit, formatInt(dec.Limit))
	h.Set(HeaderRemaining, formatInt(max(0, dec.Remaining)))
	h.Set(HeaderReset, formatReset(dec.ResetAt))
}
