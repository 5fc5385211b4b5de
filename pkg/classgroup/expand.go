package classgroup

import (
	"crypto/sha256"
	"errors"
	"math/big"
)

// maxPrimeCandidates bounds hashPrime. Candidates are dense enough that the
// bound is only reached for degenerate seeds whose counter space cycles.
const maxPrimeCandidates = 1 << 16

var errEmptySeed = errors.New("empty seed")

// Expander produces a deterministic byte stream from a seed. Each call to
// Next yields a fresh block; output left over from a block is discarded.
type Expander interface {
	Next(p []byte)
}

// NewExpanderFunc builds the Expander used for a seed.
type NewExpanderFunc func(seed []byte) Expander

// sprout is the counter-mode expansion used by the chiavdf engine: the seed
// is treated as a big-endian counter, incremented before every SHA-256.
type sprout struct {
	counter []byte
}

// NewSproutExpander is the default Expander.
func NewSproutExpander(seed []byte) Expander {
	return &sprout{counter: append([]byte(nil), seed...)}
}

func (s *sprout) increment() {
	for i := len(s.counter) - 1; i >= 0; i-- {
		s.counter[i]++
		if s.counter[i] != 0 {
			break
		}
	}
}

func (s *sprout) Next(p []byte) {
	for off := 0; off < len(p); off += sha256.Size {
		s.increment()
		sum := sha256.Sum256(s.counter)
		copy(p[off:], sum[:])
	}
}

// hashPrime draws bits-long candidates from exp, forces the bits listed in
// mask and returns the first Baillie-PSW probable prime.
func hashPrime(exp Expander, bits int, mask []int) (*big.Int, error) {
	if bits <= 0 || bits%8 != 0 {
		return nil, errors.New("bit length must be a positive multiple of 8")
	}
	buf := make([]byte, bits/8)
	p := new(big.Int)
	for i := 0; i < maxPrimeCandidates; i++ {
		exp.Next(buf)
		p.SetBytes(buf)
		for _, b := range mask {
			p.SetBit(p, b, 1)
		}
		if p.ProbablyPrime(0) {
			return p, nil
		}
	}
	return nil, errors.New("no prime found within candidate bound")
}

// hashInt returns a bits-long integer derived from exp.
func hashInt(exp Expander, bits int) ([]byte, error) {
	if bits <= 0 || bits%8 != 0 {
		return nil, errors.New("bit length must be a positive multiple of 8")
	}
	buf := make([]byte, bits/8)
	exp.Next(buf)
	return buf, nil
}
