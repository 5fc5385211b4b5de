package classgroup

import (
	"encoding/hex"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDiscOnce sync.Once
	testDisc     *Discriminant
)

// testDiscriminant is shared by the package tests; 1024 bits keeps the
// arithmetic fast.
func testDiscriminant(t *testing.T) *Discriminant {
	t.Helper()
	testDiscOnce.Do(func() {
		d, err := CreateDiscriminant([]byte("classgroup test discriminant"), 1024)
		if err != nil {
			panic(err)
		}
		testDisc = d
	})
	return testDisc
}

func TestCreateDiscriminantGoldenVector(t *testing.T) {
	assert := assert.New(t)

	seed, _ := hex.DecodeString("6c3b9aa767f785b537c0")
	raw, err := New().CreateDiscriminant(seed, 512)
	assert.NoError(err)
	assert.Equal(64, len(raw))
	assert.Equal("9a8eaf9c52d9a5f1db648cdf7bcd04b35cb1ac4f421c978fa61fe1344b97d4199dbff700d24e7cfc0b785e4b8b8023dc49f0e90227f74f54234032ac3381879f",
		hex.EncodeToString(raw))
}

func TestCreateDiscriminantProperties(t *testing.T) {
	assert := assert.New(t)

	d := testDiscriminant(t)
	assert.Equal(1024, d.Bits())
	assert.Equal(1024, d.BitLen())
	assert.Equal(-1, d.Int().Sign())
	assert.Equal(int64(1), new(big.Int).Mod(d.Int(), big.NewInt(8)).Int64())

	again, err := NewDiscriminant(d.Bytes())
	require.NoError(t, err)
	assert.Equal(d.String(), again.String())

	other, err := CreateDiscriminant([]byte("another seed"), 1024)
	require.NoError(t, err)
	assert.NotEqual(d.String(), other.String())
}

func TestNewDiscriminantRejects(t *testing.T) {
	assert := assert.New(t)

	_, err := NewDiscriminant(nil)
	assert.ErrorIs(err, ErrInvalidDiscriminant)

	_, err = NewDiscriminant([]byte{0, 0})
	assert.ErrorIs(err, ErrInvalidDiscriminant)

	// 13 = 1 mod 4, so -13 = 3 mod 4.
	_, err = NewDiscriminant([]byte{13})
	assert.ErrorIs(err, ErrInvalidDiscriminant)

	// 15 = 3 mod 4 but composite.
	_, err = NewDiscriminant([]byte{15})
	assert.ErrorIs(err, ErrInvalidDiscriminant)

	// 23 = 3 mod 4 and prime, but padded.
	_, err = NewDiscriminant([]byte{0, 23})
	assert.ErrorIs(err, ErrInvalidDiscriminant)

	d, err := NewDiscriminant([]byte{23})
	assert.NoError(err)
	assert.Equal(int64(-23), d.Int().Int64())
}

func TestCreateDiscriminantRejectsBadInput(t *testing.T) {
	assert := assert.New(t)
	e := New()

	_, err := e.CreateDiscriminant(nil, 512)
	assert.ErrorIs(err, ErrEngine)

	_, err = e.CreateDiscriminant([]byte("seed"), 500)
	assert.ErrorIs(err, ErrEngine)
}

func TestHashPrimeAndHashInt(t *testing.T) {
	assert := assert.New(t)
	e := New()

	p, err := e.HashPrime([]byte("prime seed"), 128)
	assert.NoError(err)
	assert.Equal(16, len(p))
	n := new(big.Int).SetBytes(p)
	assert.Equal(128, n.BitLen())
	assert.True(n.ProbablyPrime(0))

	again, err := e.HashPrime([]byte("prime seed"), 128)
	assert.NoError(err)
	assert.Equal(p, again)

	i1, err := e.HashInt([]byte("int seed"), 128)
	assert.NoError(err)
	assert.Equal(16, len(i1))
	i2, err := e.HashInt([]byte("int seed"), 128)
	assert.NoError(err)
	assert.Equal(i1, i2)

	// HashInt is the first block of the counter expansion.
	buf := make([]byte, 16)
	NewSproutExpander([]byte("int seed")).Next(buf)
	assert.Equal(buf, i1)

	_, err = e.HashInt([]byte("int seed"), 12)
	assert.ErrorIs(err, ErrEngine)
	_, err = e.HashPrime(nil, 128)
	assert.ErrorIs(err, ErrEngine)
}

func TestSproutIncrementCarries(t *testing.T) {
	assert := assert.New(t)

	s := &sprout{counter: []byte{0x01, 0xff, 0xff}}
	s.increment()
	assert.Equal([]byte{0x02, 0x00, 0x00}, s.counter)

	s = &sprout{counter: []byte{0xff}}
	s.increment()
	assert.Equal([]byte{0x00}, s.counter)
}
