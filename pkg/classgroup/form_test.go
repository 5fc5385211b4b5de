package classgroup

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroup(t *testing.T) *classGroup {
	d := testDiscriminant(t)
	return &classGroup{d: d.Int(), bits: d.Bits(), expand: NewSproutExpander}
}

func testGenerator(t *testing.T, g *classGroup) *Form {
	f, ok := g.generator()
	require.True(t, ok)
	return f
}

func TestFormGroupLaws(t *testing.T) {
	assert := assert.New(t)
	g := testGroup(t)
	gen := testGenerator(t, g)
	id := g.identity()

	assert.True(gen.isReduced())
	assert.True(id.isReduced())
	assert.True(gen.multiply(id).Equal(gen))
	assert.True(id.multiply(gen).Equal(gen))
	assert.True(gen.multiply(gen).Equal(gen.square()))

	x := gen.pow(big.NewInt(12345))
	y := gen.pow(big.NewInt(678))
	z := gen.pow(big.NewInt(91011))

	assert.True(x.multiply(y).Equal(y.multiply(x)))
	assert.True(x.multiply(y).multiply(z).Equal(x.multiply(y.multiply(z))))
	assert.True(x.multiply(y).Equal(gen.pow(big.NewInt(12345 + 678))))
	assert.True(x.pow(big.NewInt(3)).Equal(x.multiply(x).multiply(x)))
	assert.True(x.pow(big.NewInt(0)).Equal(id))
	assert.True(x.repeatedSquare(5).Equal(x.pow(big.NewInt(32))))

	for _, f := range []*Form{x, y, z} {
		assert.True(f.isReduced())
		assert.Equal(0, f.discriminant().Cmp(g.d))
	}
}

func TestFormInverse(t *testing.T) {
	assert := assert.New(t)
	g := testGroup(t)
	x := testGenerator(t, g).pow(big.NewInt(4242))

	// (a, -b, c) is the inverse class.
	inv := newForm(x.A(), new(big.Int).Neg(x.B()), x.C()).reduced()
	assert.True(x.multiply(inv).Equal(g.identity()))
}

func TestFormCodec(t *testing.T) {
	assert := assert.New(t)
	g := testGroup(t)
	x := testGenerator(t, g).pow(big.NewInt(987654321))

	buf := g.encode(x)
	assert.Equal(FormSize(1024), len(buf))
	assert.Equal(129, len(buf))

	back, err := g.decode(buf)
	assert.NoError(err)
	assert.True(back.Equal(x))

	_, err = g.decode(buf[:len(buf)-1])
	assert.Error(err)

	bad := append([]byte(nil), buf...)
	bad[0] = 0x80
	_, err = g.decode(bad)
	assert.Error(err)

	// (1, 3, c) is a valid form of the identity class but not reduced.
	un, ok := newFormFromDiscriminant(big.NewInt(1), big.NewInt(3), g.d)
	require.True(t, ok)
	assert.False(un.isReduced())
	assert.True(un.reduced().Equal(g.identity()))
	raw := make([]byte, len(buf))
	n := coefficientSize(g.bits)
	raw[n] = 1
	raw[len(raw)-1] = 3
	_, err = g.decode(raw)
	assert.Error(err)
	raw[len(raw)-1] = 1
	back, err = g.decode(raw)
	assert.NoError(err)
	assert.True(back.Equal(g.identity()))

	zero := make([]byte, len(buf))
	_, err = g.decode(zero)
	assert.Error(err)
}

func TestSolveModAndGCD(t *testing.T) {
	assert := assert.New(t)

	s, period, ok := solveMod(big.NewInt(3), big.NewInt(4), big.NewInt(7))
	assert.True(ok)
	assert.Equal(int64(6), s.Int64())
	assert.Equal(int64(7), period.Int64())

	_, _, ok = solveMod(big.NewInt(2), big.NewInt(3), big.NewInt(4))
	assert.False(ok)

	gcd, x, y := extendedGCD(big.NewInt(-30), big.NewInt(42))
	assert.Equal(int64(6), gcd.Int64())
	lhs := new(big.Int).Add(new(big.Int).Mul(big.NewInt(-30), x), new(big.Int).Mul(big.NewInt(42), y))
	assert.Equal(int64(6), lhs.Int64())

	assert.Equal(int64(-4), floorDivision(big.NewInt(-7), big.NewInt(2)).Int64())
	assert.Equal(int64(3), floorDivision(big.NewInt(7), big.NewInt(2)).Int64())
}

func TestIterateSquaringsCheckpoints(t *testing.T) {
	assert := assert.New(t)
	g := testGroup(t)
	x := testGenerator(t, g).pow(big.NewInt(31337))

	// 23 squarings with checkpoints every 5: at 0, 5, 10, 15 and 20.
	y, checkpoints := iterateSquarings(x, 23, 5)
	assert.True(y.Equal(x.pow(new(big.Int).Lsh(bigOne, 23))))
	require.Len(t, checkpoints, 5)
	for i, c := range checkpoints {
		assert.True(c.Equal(x.repeatedSquare(uint64(5*i))), "checkpoint %d", i)
	}

	y, checkpoints = iterateSquarings(x, 10, 5)
	assert.True(y.Equal(x.repeatedSquare(10)))
	assert.Len(checkpoints, 2)
}
