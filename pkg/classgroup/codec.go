package classgroup

import (
	"errors"
	"fmt"
	"math/big"
)

const negativeB = 0x01

var errMalformedForm = errors.New("malformed form")

// FormSize returns the size of a serialized form for a discriminant encoded
// on discBits bits: one flag byte followed by a and |b|, each on
// ceil(discBits/16) bytes. Reduced forms satisfy |b| <= a < sqrt(|D|).
func FormSize(discBits int) int {
	return 1 + 2*coefficientSize(discBits)
}

func coefficientSize(discBits int) int {
	return (discBits + 15) / 16
}

func encodeForm(f *Form, discBits int) []byte {
	n := coefficientSize(discBits)
	absB := new(big.Int).Abs(f.b)
	if f.a.BitLen() > 8*n || absB.BitLen() > 8*n {
		// Reduced forms never exceed the bound.
		panic(fmt.Errorf("form does not fit %d-byte coefficients", n))
	}
	buf := make([]byte, 1+2*n)
	if f.b.Sign() < 0 {
		buf[0] = negativeB
	}
	f.a.FillBytes(buf[1 : 1+n])
	absB.FillBytes(buf[1+n:])
	return buf
}

// decodeForm parses a canonical encoding. Only reduced, primitive forms of
// discriminant d are accepted, so byte equality is class equality.
func decodeForm(d *big.Int, discBits int, buf []byte) (*Form, error) {
	n := coefficientSize(discBits)
	if len(buf) != 1+2*n {
		return nil, fmt.Errorf("%w: length %d, want %d", errMalformedForm, len(buf), 1+2*n)
	}
	flag := buf[0]
	if flag&^negativeB != 0 {
		return nil, fmt.Errorf("%w: unknown flags %#x", errMalformedForm, flag)
	}
	a := new(big.Int).SetBytes(buf[1 : 1+n])
	b := new(big.Int).SetBytes(buf[1+n:])
	if flag == negativeB {
		if b.Sign() == 0 {
			return nil, fmt.Errorf("%w: negative zero", errMalformedForm)
		}
		b.Neg(b)
	}
	f, ok := newFormFromDiscriminant(a, b, d)
	if !ok {
		return nil, fmt.Errorf("%w: coefficients do not match discriminant", errMalformedForm)
	}
	if !f.isReduced() {
		return nil, fmt.Errorf("%w: not reduced", errMalformedForm)
	}
	if allInputValueGCD(allInputValueGCD(f.a, f.b), f.c).Cmp(bigOne) != 0 {
		return nil, fmt.Errorf("%w: not primitive", errMalformedForm)
	}
	return f, nil
}

// ParseForm decodes a serialized form under disc.
func ParseForm(disc *Discriminant, buf []byte) (*Form, error) {
	f, err := decodeForm(disc.d, disc.Bits(), buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	return f, nil
}
