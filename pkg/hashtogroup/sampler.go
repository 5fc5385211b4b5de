package hashtogroup

import (
	"fmt"
	"math/big"

	"github.com/korthochain/classvdf/pkg/classgroup"
)

// smallPrimes are the odd primes below 100, tried as divisors before the
// Jacobi symbol and the primality test.
var smallPrimes = [...]uint{3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97}

// Sampler draws distinct primes p for which D is a non-zero square mod p.
type Sampler struct {
	engine      classgroup.Engine
	d           *big.Int
	chain       SeedChain
	maxAttempts int
	attempts    int
	factors     []*big.Int
}

func NewSampler(engine classgroup.Engine, d *big.Int, chain SeedChain, maxAttempts int) *Sampler {
	return &Sampler{
		engine:      engine,
		d:           d,
		chain:       chain,
		maxAttempts: maxAttempts,
	}
}

// Next returns the next accepted bits-long prime. The chain advances once per
// candidate whether or not it is accepted.
func (s *Sampler) Next(bits int) (*big.Int, error) {
	for i := 0; i < s.maxAttempts; i++ {
		raw, err := s.engine.HashPrime(s.chain.Seed(), bits)
		s.chain.Advance()
		s.attempts++
		if err != nil {
			return nil, err
		}
		p := new(big.Int).SetBytes(raw)
		if s.accept(p) {
			s.factors = append(s.factors, p)
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no %d-bit factor in %d attempts", ErrSamplingExhausted, bits, s.maxAttempts)
}

func (s *Sampler) accept(p *big.Int) bool {
	if p.Sign() <= 0 || p.Bit(0) == 0 {
		return false
	}
	for _, f := range s.factors {
		if f.Cmp(p) == 0 {
			return false
		}
	}
	// Candidates have their top bit set and are at least 128.
	var q, r big.Int
	for _, sp := range smallPrimes {
		if r.Mod(p, q.SetUint64(uint64(sp))).Sign() == 0 {
			return false
		}
	}
	return big.Jacobi(s.d, p) == 1 && p.ProbablyPrime(0)
}

// Factors returns the accepted primes in sampling order.
func (s *Sampler) Factors() []*big.Int {
	return append([]*big.Int(nil), s.factors...)
}

// Attempts is the number of candidates drawn so far.
func (s *Sampler) Attempts() int {
	return s.attempts
}
