package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc resolve a identidade (advisory) do cliente. Nunca retorna vazio.
type KeyFunc func(r *http.Request) string

// UnknownClient é o sentinel quando nenhum header identifica o cliente.
const UnknownClient = "unknown"

// DefaultClientIPHeaders: header da borda confiável (CDN) > real IP genérico > XFF.
var DefaultClientIPHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// HeaderKeyFunc percorre `headers` em ordem e usa o primeiro valor não vazio.
//
// De cada header só vale a primeira entrada (mais à esquerda) da lista separada
// por vírgula: o resto do X-Forwarded-For pode ter sido anexado pelo cliente.
// Com fallbackRemoteAddr, o host de r.RemoteAddr é tentado antes do sentinel.
func HeaderKeyFunc(headers []string, fallbackRemoteAddr bool) KeyFunc {
	hs := make([]string, 0, len(headers))
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			hs = append(hs, http.CanonicalHeaderKey(h))
		}
	}

	return func(r *http.Request) string {
		for _, h := range hs {
			if v := firstEntry(r.Header.Get(h)); v != "" {
				return v
			}
		}

		if fallbackRemoteAddr {
			host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
			if err == nil && host != "" {
				return host
			}
			if v := strings.TrimSpace(r.RemoteAddr); v != "" {
				return v
			}
		}
		return UnknownClient
	}
}

func firstEntry(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
