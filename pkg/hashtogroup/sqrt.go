package hashtogroup

import "math/big"

var (
	bigOne   = big.NewInt(1)
	bigTwo   = big.NewInt(2)
	bigThree = big.NewInt(3)
)

// SqrtMod returns x with x^2 = a (mod p) for an odd prime p, reduced into
// [0, p). The primality of p is not checked. With checkLegendre the residuosity
// of a is verified first; without it a non-residue yields an unspecified value.
// Algorithm 2.3.8 of Crandall & Pomerance.
func SqrtMod(a, p *big.Int, checkLegendre bool) (*big.Int, bool) {
	if p.Sign() <= 0 || p.Bit(0) == 0 || p.Cmp(bigOne) == 0 {
		return nil, false
	}
	r := new(big.Int).Mod(a, p)
	if r.Sign() == 0 {
		return new(big.Int), true
	}
	if checkLegendre && big.Jacobi(r, p) != 1 {
		return nil, false
	}

	switch p.Bits()[0] & 7 {
	case 3, 7:
		e := new(big.Int).Add(p, bigOne)
		return new(big.Int).Exp(r, e.Rsh(e, 2), p), true
	case 5:
		e := new(big.Int).Add(p, bigThree)
		x := new(big.Int).Exp(r, e.Rsh(e, 3), p)
		if new(big.Int).Exp(x, bigTwo, p).Cmp(r) != 0 {
			e = new(big.Int).Sub(p, bigOne)
			x.Mul(x, new(big.Int).Exp(bigTwo, e.Rsh(e, 2), p))
			x.Mod(x, p)
		}
		return x, true
	default:
		return tonelliShanks(r, p)
	}
}

// tonelliShanks handles p = 1 (mod 8). The non-residue search is bounded by
// p and fails closed.
func tonelliShanks(a, p *big.Int) (*big.Int, bool) {
	d := big.NewInt(2)
	for big.Jacobi(d, p) != -1 {
		d.Add(d, bigOne)
		if d.Cmp(p) >= 0 {
			return nil, false
		}
	}

	pMinusOne := new(big.Int).Sub(p, bigOne)
	s := pMinusOne.TrailingZeroBits()
	t := new(big.Int).Rsh(pMinusOne, s)

	at := new(big.Int).Exp(a, t, p)
	dt := new(big.Int).Exp(d, t, p)
	m := new(big.Int)
	lhs := new(big.Int)
	for i := uint(0); i < s; i++ {
		lhs.Exp(dt, m, p)
		lhs.Mul(lhs, at)
		lhs.Exp(lhs, new(big.Int).Lsh(bigOne, s-1-i), p)
		if lhs.Cmp(pMinusOne) == 0 {
			m.SetBit(m, int(i), 1)
		}
	}

	e := new(big.Int).Add(t, bigOne)
	x := new(big.Int).Exp(a, e.Rsh(e, 1), p)
	x.Mul(x, new(big.Int).Exp(dt, new(big.Int).Rsh(m, 1), p))
	return x.Mod(x, p), true
}
