package api

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"address-gateway/address"

	"golang.org/x/sync/errgroup"
)

const (
	errInvalidAddress  = "Invalid address format"
	errConversionFails = "Conversion failed"
)

// BatchItem é um resultado por endereço; Index começa em 1.
type BatchItem struct {
	Index              int          `json:"index"`
	Input              string       `json:"input"`
	Legacy             string       `json:"legacy,omitempty"`
	CashAddrWithPrefix string       `json:"cashAddrWithPrefix,omitempty"`
	CashAddrNoPrefix   string       `json:"cashAddrNoPrefix,omitempty"`
	Kind               address.Kind `json:"addressType,omitempty"`
	Success            bool         `json:"success"`
	Error              string       `json:"error,omitempty"`

	// causa interna, só para log
	cause error
}

type BatchResponse struct {
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Results    []BatchItem `json:"results"`
}

// convertBatch converte em paralelo por blocos contíguos. Cada worker escreve
// só nos seus índices, então a ordem de entrada é preservada.
func convertBatch(ctx context.Context, codec address.Codec, addrs []string, workers int) (BatchResponse, error) {
	n := len(addrs)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, n)

	results := make([]BatchItem, n)
	if n == 0 {
		return BatchResponse{Results: results}, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				results[i] = convertOne(codec, i, addrs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResponse{}, err
	}

	resp := BatchResponse{Total: n, Results: results}
	for _, r := range results {
		if r.Success {
			resp.Successful++
		}
	}
	resp.Failed = n - resp.Successful
	return resp, nil
}

// convertOne classifica antes de converter e nunca entra em pânico: falhas
// viram item com success=false.
func convertOne(codec address.Codec, i int, in string) (item BatchItem) {
	item = BatchItem{Index: i + 1, Input: in}
	defer func() {
		if rec := recover(); rec != nil {
			item = BatchItem{Index: i + 1, Input: in, Error: errConversionFails, cause: fmt.Errorf("panic: %v", rec)}
		}
	}()

	if !codec.Validate(in) {
		item.Error = errInvalidAddress
		return item
	}

	conv, err := codec.Convert(in)
	switch {
	case errors.Is(err, address.ErrInvalidAddress):
		item.Error = errInvalidAddress
		return item
	case err != nil:
		item.Error = errConversionFails
		item.cause = err
		return item
	}

	item.Legacy = conv.Legacy
	item.CashAddrWithPrefix = conv.CashAddrWithPrefix
	item.CashAddrNoPrefix = conv.CashAddrNoPrefix
	item.Kind = conv.Kind
	item.Success = true
	return item
}
