package address

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// BCH é o Codec concreto. Network define o prefixo assumido quando a entrada
// CashAddr vem sem prefixo e a rede dos endereços Legacy de teste.
type BCH struct {
	net Network
}

var _ Codec = (*BCH)(nil)

func NewBCH(net Network) *BCH {
	if net.Prefix == "" {
		net = Mainnet
	}
	return &BCH{net: net}
}

// Validate só classifica: decodifica e confere checksum sem reencodar.
func (c *BCH) Validate(s string) bool {
	_, err := c.decode(s)
	return err == nil
}

func (c *BCH) Convert(s string) (Conversion, error) {
	d, err := c.decode(s)
	if err != nil {
		return Conversion{}, err
	}

	cash, err := encodeCash(d.net.Prefix, d.typ, d.hash)
	if err != nil {
		return Conversion{}, fmt.Errorf("encode cashaddr: %w", err)
	}

	legacy := d.in
	if d.format == FormatCashAddr {
		version := d.net.P2PKH
		if d.typ == cashTypeP2SH {
			version = d.net.P2SH
		}
		legacy = base58.CheckEncode(d.hash, version)
	}
	return Conversion{
		Original:           d.in,
		OriginalFormat:     d.format,
		Legacy:             legacy,
		CashAddrWithPrefix: cash,
		CashAddrNoPrefix:   stripPrefix(cash),
		Kind:               kindOf(d.typ),
	}, nil
}

type decoded struct {
	in     string
	format Format
	net    Network
	typ    byte
	hash   []byte
}

func (c *BCH) decode(s string) (decoded, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return decoded{}, ErrInvalidAddress
	}

	if net, typ, hash, ok := c.decodeLegacy(in); ok {
		return decoded{in: in, format: FormatLegacy, net: net, typ: typ, hash: hash}, nil
	}

	full := in
	if !strings.Contains(full, ":") {
		full = c.net.Prefix + ":" + full
	}
	prefix, typ, hash, err := decodeCash(full)
	if err != nil {
		return decoded{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	net, _ := networkByPrefix(prefix)
	return decoded{in: in, format: FormatCashAddr, net: net, typ: typ, hash: hash}, nil
}

// decodeLegacy reconhece Base58Check com hash de 20 bytes e version byte de
// mainnet ou testnet. Testnet e regtest compartilham os version bytes; vale a
// rede configurada quando ela for regtest.
func (c *BCH) decodeLegacy(s string) (Network, byte, []byte, bool) {
	hash, version, err := base58.CheckDecode(s)
	if err != nil || len(hash) != 20 {
		return Network{}, 0, nil, false
	}
	test := Testnet
	if c.net.Name == Regtest.Name {
		test = Regtest
	}
	switch version {
	case Mainnet.P2PKH:
		return Mainnet, cashTypeP2PKH, hash, true
	case Mainnet.P2SH:
		return Mainnet, cashTypeP2SH, hash, true
	case test.P2PKH:
		return test, cashTypeP2PKH, hash, true
	case test.P2SH:
		return test, cashTypeP2SH, hash, true
	}
	return Network{}, 0, nil, false
}

func stripPrefix(cash string) string {
	if i := strings.LastIndexByte(cash, ':'); i >= 0 {
		return cash[i+1:]
	}
	return cash
}

func kindOf(typ byte) Kind {
	if typ == cashTypeP2SH {
		return KindP2SH
	}
	return KindP2PKH
}
