package address

import (
	"errors"
	"strings"
)

const cashAlphabet = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

const checksumLen = 8

// tipos no version byte (bits 3..6); bits 0..2 = tamanho, 0 = 160 bits
const (
	cashTypeP2PKH byte = 0
	cashTypeP2SH  byte = 1
)

var cashRev = func() [128]int8 {
	var t [128]int8
	for i := range t {
		t[i] = -1
	}
	for i, c := range cashAlphabet {
		t[c] = int8(i)
	}
	return t
}()

var (
	errCashCase     = errors.New("cashaddr: mixed case")
	errCashPrefix   = errors.New("cashaddr: unknown prefix")
	errCashChar     = errors.New("cashaddr: invalid character")
	errCashChecksum = errors.New("cashaddr: checksum mismatch")
	errCashPayload  = errors.New("cashaddr: invalid payload")
)

// polymod é o checksum BCH de 40 bits do formato CashAddr.
func polymod(v []byte) uint64 {
	c := uint64(1)
	for _, d := range v {
		c0 := byte(c >> 35)
		c = ((c & 0x07ffffffff) << 5) ^ uint64(d)
		if c0&0x01 != 0 {
			c ^= 0x98f2bc8e61
		}
		if c0&0x02 != 0 {
			c ^= 0x79b76d99e2
		}
		if c0&0x04 != 0 {
			c ^= 0xf33e5fb3c4
		}
		if c0&0x08 != 0 {
			c ^= 0xae2eabe2a8
		}
		if c0&0x10 != 0 {
			c ^= 0x1e4f43e470
		}
	}
	return c ^ 1
}

// prefixData: 5 bits baixos de cada caractere do prefixo + separador zero.
func prefixData(prefix string) []byte {
	out := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		out = append(out, prefix[i]&0x1f)
	}
	return append(out, 0)
}

func cashChecksum(prefix string, data []byte) []byte {
	v := append(prefixData(prefix), data...)
	v = append(v, make([]byte, checksumLen)...)
	mod := polymod(v)
	out := make([]byte, checksumLen)
	for i := range out {
		out[i] = byte(mod>>(5*(checksumLen-1-i))) & 0x1f
	}
	return out
}

// convertBits reagrupa data de `from` para `to` bits por elemento.
func convertBits(data []byte, from, to uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<to - 1
	maxAcc := uint32(1)<<(from+to-1) - 1
	out := make([]byte, 0, len(data)*int(from)/int(to)+1)
	for _, v := range data {
		if uint32(v)>>from != 0 {
			return nil, errCashPayload
		}
		acc = ((acc << from) | uint32(v)) & maxAcc
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte((acc>>bits)&maxv))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(to-bits))&maxv))
		}
	} else if bits >= from || (acc<<(to-bits))&maxv != 0 {
		return nil, errCashPayload
	}
	return out, nil
}

// encodeCash devolve "prefix:payload" em minúsculas.
func encodeCash(prefix string, typ byte, hash []byte) (string, error) {
	payload := make([]byte, 0, len(hash)+1)
	payload = append(payload, typ<<3)
	payload = append(payload, hash...)
	data, err := convertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	data = append(data, cashChecksum(prefix, data)...)

	var b strings.Builder
	b.Grow(len(prefix) + 1 + len(data))
	b.WriteString(prefix)
	b.WriteByte(':')
	for _, d := range data {
		b.WriteByte(cashAlphabet[d])
	}
	return b.String(), nil
}

// decodeCash valida "prefix:payload" e devolve prefixo, tipo e hash de 20 bytes.
func decodeCash(s string) (prefix string, typ byte, hash []byte, err error) {
	lower, upper := strings.ToLower(s), strings.ToUpper(s)
	if s != lower && s != upper {
		return "", 0, nil, errCashCase
	}
	s = lower

	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return "", 0, nil, errCashPrefix
	}
	prefix, body := s[:i], s[i+1:]
	if _, ok := networkByPrefix(prefix); !ok {
		return "", 0, nil, errCashPrefix
	}
	if len(body) <= checksumLen {
		return "", 0, nil, errCashPayload
	}

	data := make([]byte, len(body))
	for j := 0; j < len(body); j++ {
		c := body[j]
		if c >= 128 || cashRev[c] < 0 {
			return "", 0, nil, errCashChar
		}
		data[j] = byte(cashRev[c])
	}
	if polymod(append(prefixData(prefix), data...)) != 0 {
		return "", 0, nil, errCashChecksum
	}

	payload, err := convertBits(data[:len(data)-checksumLen], 5, 8, false)
	if err != nil {
		return "", 0, nil, err
	}
	if len(payload) != 21 {
		return "", 0, nil, errCashPayload
	}
	version := payload[0]
	if version&0x80 != 0 || version&0x07 != 0 {
		return "", 0, nil, errCashPayload
	}
	typ = version >> 3
	if typ != cashTypeP2PKH && typ != cashTypeP2SH {
		return "", 0, nil, errCashPayload
	}
	return prefix, typ, payload[1:], nil
}
