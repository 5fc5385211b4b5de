// Package hashtogroup maps arbitrary seeds to class-group elements whose
// first coefficient is a product of hashed primes, so that the image is large
// enough to be collision resistant and no element can be precomputed.
package hashtogroup

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

var (
	// ErrDiscriminantTooSmall is returned when no secure parameters exist
	// for the discriminant.
	ErrDiscriminantTooSmall = errors.New("hashtogroup: discriminant too small")
	// ErrInsecureDiscriminant is returned when the sampled element could not
	// be reduced, or the image would be too small, under the discriminant.
	ErrInsecureDiscriminant = errors.New("hashtogroup: parameters insecure for discriminant")
	// ErrInvalidParams is returned by Params.Validate.
	ErrInvalidParams = errors.New("hashtogroup: invalid parameters")
	// ErrInvariantViolation reports a broken internal guarantee, typically a
	// composite discriminant.
	ErrInvariantViolation = errors.New("hashtogroup: invariant violation")
	// ErrSamplingExhausted is returned when MaxAttempts candidates yield no
	// usable prime.
	ErrSamplingExhausted = errors.New("hashtogroup: prime sampling exhausted")
)

// Params are the hash-to-group parameters. The zero value is not usable; start
// from DefaultParams.
type Params struct {
	// SecurityBits is the size of the first prime factor and the target
	// collision resistance.
	SecurityBits int `yaml:"securitybits"`
	// FactorBits is the size of the remaining prime factors.
	FactorBits int `yaml:"factorbits"`
	// Factors is the number of FactorBits primes.
	Factors             int `yaml:"factors"`
	MinDiscriminantBits int `yaml:"mindiscriminantbits"`
	// MaxAttempts bounds the candidates drawn per factor.
	MaxAttempts int `yaml:"maxattempts"`
}

// DefaultParams gives 128-bit security with two 160-bit factors.
func DefaultParams() Params {
	return Params{
		SecurityBits:        128,
		FactorBits:          160,
		Factors:             2,
		MinDiscriminantBits: 600,
		MaxAttempts:         1 << 16,
	}
}

// Validate checks the parameters independently of any discriminant.
func (p Params) Validate() error {
	switch {
	case p.SecurityBits <= 0 || p.SecurityBits%8 != 0:
		return fmt.Errorf("%w: security bits %d", ErrInvalidParams, p.SecurityBits)
	case p.FactorBits <= 0 || p.FactorBits%8 != 0:
		return fmt.Errorf("%w: factor bits %d", ErrInvalidParams, p.FactorBits)
	case p.Factors < 1:
		return fmt.Errorf("%w: %d factors", ErrInvalidParams, p.Factors)
	case p.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts %d", ErrInvalidParams, p.MaxAttempts)
	case p.MinDiscriminantBits < 0:
		return fmt.Errorf("%w: min discriminant bits %d", ErrInvalidParams, p.MinDiscriminantBits)
	}
	entropy := primeCountBits(p.FactorBits)
	if entropy < float64(p.SecurityBits) {
		return fmt.Errorf("%w: %d-bit factors can be precomputed", ErrInvalidParams, p.FactorBits)
	}
	if float64(p.Factors)*entropy < float64(p.SecurityBits) {
		return fmt.Errorf("%w: image smaller than 2^%d", ErrInvalidParams, p.SecurityBits)
	}
	return nil
}

// productBits bounds the bit length of the product of all factors.
func (p Params) productBits() int {
	return p.SecurityBits + p.Factors*p.FactorBits
}

// primeCountBits approximates log2 of the number of primes below 2^n.
func primeCountBits(n int) float64 {
	f := float64(n)
	return f - math.Log2(f) - math.Log2(math.Ln2)
}

// primeUpperBound returns an upper bound on the n-th prime for n = 2^logN,
// n(ln n + ln ln n), rounded up.
func primeUpperBound(logN int) *big.Int {
	lnN := float64(logN) * math.Ln2
	factor := new(big.Float).SetFloat64(math.Ceil((lnN + math.Log(lnN)) * 1e6))
	bound := new(big.Float).SetMantExp(factor, logN)
	bound.Quo(bound, big.NewFloat(1e6))
	out, _ := bound.Int(nil)
	return out.Add(out, big.NewInt(1))
}
