package validation

import "address-gateway/middleware/ratelimit/domain"

const (
	MaxConvertBodyBytes = 1 << 20
	MaxBatchBodyBytes   = 10 << 20
	MaxBatchItems       = 10000
)

// Rules descreve as regras estruturais e de tamanho de um endpoint.
type Rules struct {
	// MaxBodyBytes é o teto do corpo cru, antes do parse.
	MaxBodyBytes int64
	// Field é o campo obrigatório no objeto JSON.
	Field string
	// Batch indica que Field é um array de strings (1..MaxItems).
	Batch    bool
	MaxItems int
}

// DefaultRules é a tabela fechada endpoint -> regras.
func DefaultRules() map[domain.Endpoint]Rules {
	return map[domain.Endpoint]Rules{
		domain.EndpointConvert: {MaxBodyBytes: MaxConvertBodyBytes, Field: "address", MaxItems: 1},
		domain.EndpointBatch:   {MaxBodyBytes: MaxBatchBodyBytes, Field: "addresses", Batch: true, MaxItems: MaxBatchItems},
	}
}
