package classgroup

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIterations = 300

func testInput(t *testing.T, e *Native, disc []byte) []byte {
	gen, err := e.Generator(disc)
	require.NoError(t, err)
	x, err := e.Power(disc, gen, []byte("evaluation input"))
	require.NoError(t, err)
	return x
}

func TestEvaluateVerify(t *testing.T) {
	assert := assert.New(t)
	e := New()
	disc := testDiscriminant(t).Bytes()
	x := testInput(t, e, disc)

	y, proof, err := e.Evaluate(disc, x, testIterations)
	require.NoError(t, err)
	assert.Equal(FormSize(1024), len(y))
	assert.Equal(FormSize(1024), len(proof))
	assert.True(e.Verify(disc, x, y, proof, testIterations))

	// y = x^(2^T) computed independently.
	fx, err := ParseForm(testDiscriminant(t), x)
	require.NoError(t, err)
	want := fx.pow(new(big.Int).Lsh(big.NewInt(1), testIterations))
	assert.Equal(encodeForm(want, 1024), y)

	assert.False(e.Verify(disc, x, y, proof, testIterations+1))
	assert.False(e.Verify(disc, y, y, proof, testIterations))
	assert.False(e.Verify(disc, x, x, proof, testIterations))
	assert.False(e.Verify(disc, x, y, y, testIterations))
	assert.False(e.Verify(disc, x, y, proof, 0))

	flipped := append([]byte(nil), y...)
	flipped[len(flipped)-1] ^= 0x01
	assert.False(e.Verify(disc, x, flipped, proof, testIterations))
}

func TestProveMatchesEvaluate(t *testing.T) {
	assert := assert.New(t)
	e := New()
	disc := testDiscriminant(t).Bytes()
	x := testInput(t, e, disc)

	y, proof, err := e.Evaluate(disc, x, testIterations)
	require.NoError(t, err)

	direct, err := e.Prove(disc, x, y, testIterations)
	assert.NoError(err)
	assert.Equal(proof, direct)

	cy, checkpoints, err := e.EvaluateCheckpoints(disc, x, testIterations)
	require.NoError(t, err)
	assert.Equal(y, cy)
	assert.Equal(0, len(checkpoints)%FormSize(1024))

	fromCheckpoints, err := e.ProveWithCheckpoints(disc, x, y, checkpoints, testIterations)
	assert.NoError(err)
	assert.Equal(proof, fromCheckpoints)

	_, err = e.ProveWithCheckpoints(disc, x, y, checkpoints[:len(checkpoints)-1], testIterations)
	assert.ErrorIs(err, ErrEngine)
}

func TestShortEvaluationHasIdentityProof(t *testing.T) {
	assert := assert.New(t)
	e := New()
	disc := testDiscriminant(t).Bytes()
	x := testInput(t, e, disc)
	id, err := e.Identity(disc)
	require.NoError(t, err)

	// 2^T < B, so the quotient is zero.
	y, proof, err := e.Evaluate(disc, x, 10)
	assert.NoError(err)
	assert.Equal(id, proof)
	assert.True(e.Verify(disc, x, y, proof, 10))
}

func TestVerifyRecursive(t *testing.T) {
	assert := assert.New(t)
	e := New()
	disc := testDiscriminant(t).Bytes()
	x := testInput(t, e, disc)

	y1, p1, err := e.Evaluate(disc, x, 100)
	require.NoError(t, err)
	y, p2, err := e.Evaluate(disc, y1, 200)
	require.NoError(t, err)

	blob := append(append([]byte(nil), y...), p2...)
	var iters [8]byte
	binary.BigEndian.PutUint64(iters[:], 100)
	blob = append(blob, iters[:]...)
	blob = append(blob, y1...)
	blob = append(blob, p1...)

	assert.True(e.VerifyRecursive(disc, x, blob, 300, 1))
	assert.False(e.VerifyRecursive(disc, x, blob, 301, 1))
	assert.False(e.VerifyRecursive(disc, x, blob, 300, 0))
	assert.False(e.VerifyRecursive(disc, x, blob[:len(blob)-1], 300, 1))

	_, p, err := e.Evaluate(disc, x, 300)
	require.NoError(t, err)
	flat := append(append([]byte(nil), y...), p...)
	assert.True(e.VerifyRecursive(disc, x, flat, 300, 0))
}

func TestEngineRejectsMalformedInput(t *testing.T) {
	assert := assert.New(t)
	e := New()
	disc := testDiscriminant(t).Bytes()
	x := testInput(t, e, disc)
	garbage := make([]byte, len(x))
	for i := range garbage {
		garbage[i] = 0x5a
	}

	_, err := e.Multiply(disc, x, garbage)
	assert.ErrorIs(err, ErrEngine)
	_, err = e.Power(disc, garbage, []byte{3})
	assert.ErrorIs(err, ErrEngine)
	_, err = e.Power([]byte{0x02}, x, []byte{3})
	assert.ErrorIs(err, ErrEngine)
	_, _, err = e.Evaluate(disc, x, 0)
	assert.ErrorIs(err, ErrEngine)
	_, err = e.Prove(disc, x, garbage, 10)
	assert.ErrorIs(err, ErrEngine)
	_, err = e.FromAB(disc, big.NewInt(2), big.NewInt(2))
	assert.ErrorIs(err, ErrEngine)
	_, err = e.FromAB(disc, big.NewInt(0), big.NewInt(1))
	assert.ErrorIs(err, ErrEngine)

	assert.False(e.Verify(disc, x, garbage, garbage, 10))
	assert.False(e.Verify(nil, x, x, x, 10))
	assert.False(e.VerifyRecursive(disc, x, nil, 10, -1))
}

func TestEngineArithmetic(t *testing.T) {
	assert := assert.New(t)
	e := New()
	disc := testDiscriminant(t).Bytes()
	x := testInput(t, e, disc)
	id, err := e.Identity(disc)
	require.NoError(t, err)

	xid, err := e.Multiply(disc, x, id)
	assert.NoError(err)
	assert.Equal(x, xid)

	x2, err := e.Multiply(disc, x, x)
	assert.NoError(err)
	p2, err := e.Power(disc, x, []byte{2})
	assert.NoError(err)
	assert.Equal(x2, p2)

	p0, err := e.Power(disc, x, nil)
	assert.NoError(err)
	assert.Equal(id, p0)

	fx, err := ParseForm(testDiscriminant(t), x)
	require.NoError(t, err)
	ab, err := e.FromAB(disc, fx.A(), fx.B())
	assert.NoError(err)
	assert.Equal(x, ab)
}

type zeroExpander struct{}

func (zeroExpander) Next(p []byte) {
	for i := range p {
		p[i] = 0
	}
}

func TestWithExpander(t *testing.T) {
	assert := assert.New(t)
	e := New(WithExpander(func([]byte) Expander { return zeroExpander{} }))

	out, err := e.HashInt([]byte("seed"), 64)
	assert.NoError(err)
	assert.Equal(make([]byte, 8), out)

	// Every candidate is 2^127.
	_, err = e.HashPrime([]byte("seed"), 128)
	assert.ErrorIs(err, ErrEngine)
}
