// Package address classifica e converte endereços Bitcoin Cash entre os
// formatos Legacy (Base58Check) e CashAddr.
package address

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAddress: a entrada não é válida em nenhum dos dois formatos.
var ErrInvalidAddress = errors.New("invalid BCH address format")

type Format string

const (
	FormatLegacy   Format = "Legacy Format"
	FormatCashAddr Format = "CashAddr Format"
)

type Kind string

const (
	KindP2PKH Kind = "P2PKH"
	KindP2SH  Kind = "P2SH"
)

// Conversion é o resultado de uma conversão bem-sucedida.
type Conversion struct {
	Original           string `json:"original"`
	OriginalFormat     Format `json:"originalType"`
	Legacy             string `json:"legacy"`
	CashAddrWithPrefix string `json:"cashAddrWithPrefix"`
	CashAddrNoPrefix   string `json:"cashAddrNoPrefix"`
	Kind               Kind   `json:"addressType"`
}

// Codec é o contrato consumido pelos handlers.
type Codec interface {
	// Validate nunca entra em pânico.
	Validate(s string) bool
	// Convert falha com ErrInvalidAddress fora dos formatos suportados.
	Convert(s string) (Conversion, error)
}

// Network agrupa o prefixo CashAddr e os version bytes Legacy de uma rede.
type Network struct {
	Name   string
	Prefix string
	P2PKH  byte
	P2SH   byte
}

var (
	Mainnet = Network{Name: "mainnet", Prefix: "bitcoincash", P2PKH: 0x00, P2SH: 0x05}
	Testnet = Network{Name: "testnet", Prefix: "bchtest", P2PKH: 0x6f, P2SH: 0xc4}
	Regtest = Network{Name: "regtest", Prefix: "bchreg", P2PKH: 0x6f, P2SH: 0xc4}
)

var networks = []Network{Mainnet, Testnet, Regtest}

// NetworkByName aceita "mainnet", "testnet" e "regtest" (sem diferenciar caixa).
func NetworkByName(name string) (Network, error) {
	for _, n := range networks {
		if strings.EqualFold(n.Name, strings.TrimSpace(name)) {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("unknown BCH network %q", name)
}

func networkByPrefix(prefix string) (Network, bool) {
	for _, n := range networks {
		if n.Prefix == prefix {
			return n, true
		}
	}
	return Network{}, false
}
