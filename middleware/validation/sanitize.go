package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxAddressLength cobre CashAddr com prefixo (~54 chars) com folga.
const MaxAddressLength = 100

var (
	ErrEmptyAddress      = errors.New("address cannot be empty")
	ErrAddressTooLong    = errors.New("address exceeds maximum length of 100 characters")
	ErrSuspiciousAddress = errors.New("invalid address format")
)

// Denylist de injeção de script. Filtro de defesa em profundidade para valores
// que podem ser renderizados numa UI, não cobertura completa de XSS.
var suspiciousPatterns = []*regexp.Regexp{
	// tags / comentários de markup
	regexp.MustCompile(`(?i)<\s*/?\s*[a-z!?]`),
	// URI de script
	regexp.MustCompile(`(?i)(?:java|vb|live)script\s*:`),
	regexp.MustCompile(`(?i)data\s*:\s*text/(?:html|javascript)`),
	// atributos de evento: onclick=, onerror = ...
	regexp.MustCompile(`(?i)on\w+\s*=`),
}

// Sanitize normaliza um endereço: remove espaços nas pontas, limita o tamanho
// (em code points) e rejeita padrões de injeção. O retorno é o valor canônico.
//
// Sanitize(Sanitize(s)) == Sanitize(s) para qualquer s aceito.
func Sanitize(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", ErrEmptyAddress
	}
	if utf8.RuneCountInString(trimmed) > MaxAddressLength {
		return "", ErrAddressTooLong
	}
	for _, p := range suspiciousPatterns {
		if p.MatchString(trimmed) {
			return "", ErrSuspiciousAddress
		}
	}
	return trimmed, nil
}

// clientMessage capitaliza a mensagem do erro para o corpo da resposta.
func clientMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
