package hashtogroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(DefaultParams().Validate())
	assert.Equal(448, DefaultParams().productBits())

	for _, mutate := range []func(*Params){
		func(p *Params) { p.SecurityBits = 0 },
		func(p *Params) { p.SecurityBits = 100 },
		func(p *Params) { p.FactorBits = 12 },
		func(p *Params) { p.Factors = 0 },
		func(p *Params) { p.MaxAttempts = 0 },
		func(p *Params) { p.MinDiscriminantBits = -1 },
		// 128-bit factors carry fewer than 128 bits of prime entropy.
		func(p *Params) { p.FactorBits = 128 },
	} {
		p := DefaultParams()
		mutate(&p)
		assert.ErrorIs(p.Validate(), ErrInvalidParams)
	}
}

func TestPrimeBounds(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(153.2, primeCountBits(160), 0.1)
	// 2^256 * (ln 2^256 + ln ln 2^256) is about 2^263.5.
	assert.Equal(264, primeUpperBound(256).BitLen())
}
