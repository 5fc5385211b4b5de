package classgroup

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

// ErrInvalidDiscriminant is returned when a discriminant buffer does not
// describe a negative prime D = 1 (mod 4).
var ErrInvalidDiscriminant = errors.New("classgroup: invalid discriminant")

// Discriminant is a validated negative prime discriminant together with its
// fixed-length big-endian magnitude encoding.
type Discriminant struct {
	raw []byte
	d   *big.Int
}

// NewDiscriminant validates raw as the magnitude of a discriminant. The
// magnitude must fill its buffer, be 3 (mod 4) and pass Baillie-PSW.
func NewDiscriminant(raw []byte) (*Discriminant, error) {
	d, err := parseDiscriminant(raw)
	if err != nil {
		return nil, err
	}
	if raw[0] == 0 {
		return nil, fmt.Errorf("%w: leading zero byte", ErrInvalidDiscriminant)
	}
	if !new(big.Int).Neg(d).ProbablyPrime(0) {
		return nil, fmt.Errorf("%w: magnitude is not prime", ErrInvalidDiscriminant)
	}
	return &Discriminant{raw: append([]byte(nil), raw...), d: d}, nil
}

// CreateDiscriminant derives a bits-long discriminant from seed with the
// default engine.
func CreateDiscriminant(seed []byte, bits int) (*Discriminant, error) {
	raw, err := New().CreateDiscriminant(seed, bits)
	if err != nil {
		return nil, err
	}
	return &Discriminant{raw: raw, d: new(big.Int).Neg(new(big.Int).SetBytes(raw))}, nil
}

// parseDiscriminant performs the cheap structural checks the engine applies
// to every call.
func parseDiscriminant(raw []byte) (*big.Int, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidDiscriminant)
	}
	d := new(big.Int).SetBytes(raw)
	if d.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero", ErrInvalidDiscriminant)
	}
	d.Neg(d)
	if new(big.Int).Mod(d, bigFour).Cmp(bigOne) != 0 {
		return nil, fmt.Errorf("%w: not 1 mod 4", ErrInvalidDiscriminant)
	}
	return d, nil
}

// createDiscriminant returns the magnitude of a negative prime discriminant
// with the low three bits and the top bit forced, so D = 1 (mod 8).
func createDiscriminant(exp Expander, bits int) ([]byte, error) {
	p, err := hashPrime(exp, bits, []int{0, 1, 2, bits - 1})
	if err != nil {
		return nil, err
	}
	return p.FillBytes(make([]byte, bits/8)), nil
}

// Bytes returns a copy of the big-endian magnitude.
func (d *Discriminant) Bytes() []byte { return append([]byte(nil), d.raw...) }

// Int returns a copy of D (negative).
func (d *Discriminant) Int() *big.Int { return new(big.Int).Set(d.d) }

// Bits is the encoded size in bits; it fixes the form encoding size.
func (d *Discriminant) Bits() int { return 8 * len(d.raw) }

// BitLen is the bit length of |D|.
func (d *Discriminant) BitLen() int { return d.d.BitLen() }

// FormSize is the size of a serialized form under this discriminant.
func (d *Discriminant) FormSize() int { return FormSize(d.Bits()) }

func (d *Discriminant) String() string { return hex.EncodeToString(d.raw) }
