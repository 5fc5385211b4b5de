package classgroup

import (
	"errors"
	"math/big"
)

var (
	bigOne   = big.NewInt(1)
	bigTwo   = big.NewInt(2)
	bigFour  = big.NewInt(4)
	bigEight = big.NewInt(8)
)

// errUnsolvable is raised (as a panic) when a composition step meets a
// congruence without solution. This only happens for malformed forms; the
// engine boundary recovers it into ErrEngine.
var errUnsolvable = errors.New("congruence has no solution")

// Form is a binary quadratic form (a, b, c) of discriminant b^2 - 4ac.
// Forms handed out by this package are reduced.
type Form struct {
	a *big.Int
	b *big.Int
	c *big.Int
	d *big.Int
}

func newForm(a, b, c *big.Int) *Form {
	return &Form{a: a, b: b, c: c}
}

// newFormFromDiscriminant completes (a, b) into a form of discriminant d.
// It reports false when 4a does not divide b^2 - d.
func newFormFromDiscriminant(a, b, d *big.Int) (*Form, bool) {
	if a.Sign() <= 0 {
		return nil, false
	}
	z := new(big.Int).Sub(new(big.Int).Mul(b, b), d)
	c, r := new(big.Int).QuoRem(z, new(big.Int).Mul(a, bigFour), new(big.Int))
	if r.Sign() != 0 {
		return nil, false
	}
	f := newForm(new(big.Int).Set(a), new(big.Int).Set(b), c)
	f.d = new(big.Int).Set(d)
	return f, true
}

func identityForDiscriminant(d *big.Int) *Form {
	f, _ := newFormFromDiscriminant(bigOne, bigOne, d)
	return f
}

// A returns a copy of the first coefficient.
func (f *Form) A() *big.Int { return new(big.Int).Set(f.a) }

// B returns a copy of the second coefficient.
func (f *Form) B() *big.Int { return new(big.Int).Set(f.b) }

// C returns a copy of the third coefficient.
func (f *Form) C() *big.Int { return new(big.Int).Set(f.c) }

// Equal reports whether both forms have identical coefficients.
func (f *Form) Equal(g *Form) bool {
	return f.a.Cmp(g.a) == 0 && f.b.Cmp(g.b) == 0 && f.c.Cmp(g.c) == 0
}

func (f *Form) discriminant() *big.Int {
	if f.d == nil {
		d := new(big.Int).Mul(f.b, f.b)
		ac := new(big.Int).Mul(f.a, f.c)
		ac.Mul(ac, bigFour)
		f.d = d.Sub(d, ac)
	}
	return f.d
}

func (f *Form) identity() *Form {
	return identityForDiscriminant(f.discriminant())
}

// isReduced reports whether f is the canonical reduced representative of
// its class: -a < b <= a <= c, and b >= 0 when a == c.
func (f *Form) isReduced() bool {
	if f.a.Sign() <= 0 {
		return false
	}
	if f.b.Cmp(new(big.Int).Neg(f.a)) <= 0 || f.b.Cmp(f.a) > 0 {
		return false
	}
	switch f.a.Cmp(f.c) {
	case 1:
		return false
	case 0:
		return f.b.Sign() >= 0
	}
	return true
}

func (f *Form) normalized() *Form {
	if f.b.Cmp(new(big.Int).Neg(f.a)) == 1 && f.b.Cmp(f.a) < 1 {
		return f
	}
	a := new(big.Int).Set(f.a)
	b := new(big.Int).Set(f.b)
	c := new(big.Int).Set(f.c)

	r := floorDivision(new(big.Int).Sub(a, b), new(big.Int).Mul(a, bigTwo))
	ar := new(big.Int).Mul(a, r)
	c.Add(c, new(big.Int).Mul(ar, r))
	c.Add(c, new(big.Int).Mul(b, r))
	b.Add(b, ar.Mul(ar, bigTwo))
	g := newForm(a, b, c)
	g.d = f.d
	return g
}

func (f *Form) reduced() *Form {
	f = f.normalized()
	a := new(big.Int).Set(f.a)
	b := new(big.Int).Set(f.b)
	c := new(big.Int).Set(f.c)
	for a.Cmp(c) == 1 || (a.Cmp(c) == 0 && b.Sign() == -1) {
		s := floorDivision(new(big.Int).Add(c, b), new(big.Int).Add(c, c))
		oldA, oldB := a, b

		a = new(big.Int).Set(c)
		b = new(big.Int).Mul(s, c)
		b.Mul(b, bigTwo)
		b.Sub(b, oldB)

		nc := new(big.Int).Mul(c, s)
		nc.Mul(nc, s)
		nc.Sub(nc, new(big.Int).Mul(oldB, s))
		c = nc.Add(nc, oldA)
	}
	g := newForm(a, b, c).normalized()
	g.d = f.d
	return g
}

// multiply composes two forms of the same discriminant.
func (f *Form) multiply(g *Form) *Form {
	x := f.reduced()
	y := g.reduced()

	gg := floorDivision(new(big.Int).Add(x.b, y.b), bigTwo)
	h := floorDivision(new(big.Int).Sub(y.b, x.b), bigTwo)
	w := allInputValueGCD(x.a, allInputValueGCD(y.a, gg))

	s := floorDivision(x.a, w)
	t := floorDivision(y.a, w)
	u := floorDivision(gg, w)
	st := new(big.Int).Mul(s, t)
	sc := new(big.Int).Mul(s, x.c)

	kTemp, constantFactor, ok := solveMod(new(big.Int).Mul(t, u), new(big.Int).Add(new(big.Int).Mul(h, u), sc), st)
	if !ok {
		panic(errUnsolvable)
	}
	n, _, ok := solveMod(new(big.Int).Mul(t, constantFactor), new(big.Int).Sub(h, new(big.Int).Mul(t, kTemp)), s)
	if !ok {
		panic(errUnsolvable)
	}
	k := new(big.Int).Add(kTemp, new(big.Int).Mul(constantFactor, n))
	l := floorDivision(new(big.Int).Sub(new(big.Int).Mul(t, k), h), s)

	tuk := new(big.Int).Mul(t, u)
	tuk.Mul(tuk, k)
	tuk.Sub(tuk, new(big.Int).Mul(h, u))
	tuk.Sub(tuk, sc)
	m := floorDivision(tuk, st)

	a3 := st
	b3 := new(big.Int).Mul(w, u)
	b3.Sub(b3, new(big.Int).Add(new(big.Int).Mul(k, t), new(big.Int).Mul(l, s)))
	c3 := new(big.Int).Mul(k, l)
	c3.Sub(c3, new(big.Int).Mul(w, m))

	r := newForm(a3, b3, c3)
	r.d = x.d
	return r.reduced()
}

func (f *Form) square() *Form {
	u, _, ok := solveMod(f.b, f.c, f.a)
	if !ok {
		panic(errUnsolvable)
	}
	A := new(big.Int).Mul(f.a, f.a)
	au := new(big.Int).Mul(f.a, u)
	B := new(big.Int).Sub(f.b, au.Mul(au, bigTwo))
	m := new(big.Int).Mul(f.b, u)
	m.Sub(m, f.c)
	m = floorDivision(m, f.a)
	C := new(big.Int).Mul(u, u)
	C.Sub(C, m)
	r := newForm(A, B, C)
	r.d = f.d
	return r.reduced()
}

// pow raises f to a non-negative exponent by square-and-multiply.
func (f *Form) pow(e *big.Int) *Form {
	acc := f.identity()
	x := f
	n := e.BitLen()
	for i := 0; i < n; i++ {
		if e.Bit(i) == 1 {
			acc = acc.multiply(x)
		}
		if i+1 < n {
			x = x.square()
		}
	}
	return acc
}

// repeatedSquare returns f^(2^t).
func (f *Form) repeatedSquare(t uint64) *Form {
	x := f
	for i := uint64(0); i < t; i++ {
		x = x.square()
	}
	return x
}

func floorDivision(x, y *big.Int) *big.Int {
	var r big.Int
	q, _ := new(big.Int).QuoRem(x, y, &r)
	if (r.Sign() == 1 && y.Sign() == -1) || (r.Sign() == -1 && y.Sign() == 1) {
		q.Sub(q, bigOne)
	}
	return q
}

func allInputValueGCD(a, b *big.Int) *big.Int {
	if a.Sign() == 0 {
		return new(big.Int).Abs(b)
	}
	if b.Sign() == 0 {
		return new(big.Int).Abs(a)
	}
	return new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
}

// solveMod solves a*x = b (mod m) for m > 0. It returns a solution s and the
// period t such that every solution is s + k*t.
func solveMod(a, b, m *big.Int) (s, t *big.Int, solvable bool) {
	g, d, _ := extendedGCD(a, m)
	q, r := new(big.Int).QuoRem(b, g, new(big.Int))
	if r.Sign() != 0 {
		return nil, nil, false
	}
	q.Mul(q, d)
	s = q.Mod(q, m)
	t = floorDivision(m, g)
	return s, t, true
}

// extendedGCD returns (g, x, y) with a*x + b*y = g. For b > 0 the gcd is
// positive.
func extendedGCD(a, b *big.Int) (*big.Int, *big.Int, *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)
	for r.Sign() != 0 {
		q := floorDivision(oldR, r)
		oldR, r = r, new(big.Int).Sub(oldR, new(big.Int).Mul(q, r))
		oldS, s = s, new(big.Int).Sub(oldS, new(big.Int).Mul(q, s))
		oldT, t = t, new(big.Int).Sub(oldT, new(big.Int).Mul(q, t))
	}
	return oldR, oldS, oldT
}
