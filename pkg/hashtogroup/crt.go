package hashtogroup

import (
	"errors"
	"fmt"
	"math/big"
)

var ErrModuliNotCoprime = errors.New("hashtogroup: moduli are not pairwise coprime")

// Combine solves x = roots[i] (mod moduli[i]) for pairwise coprime positive
// moduli. It returns x in [0, M) and M, the product of the moduli.
func Combine(roots, moduli []*big.Int) (*big.Int, *big.Int, error) {
	if len(roots) != len(moduli) {
		return nil, nil, fmt.Errorf("%w: %d roots for %d moduli", ErrInvalidParams, len(roots), len(moduli))
	}
	x := new(big.Int)
	m := big.NewInt(1)
	for i, n := range moduli {
		if n.Sign() <= 0 {
			return nil, nil, fmt.Errorf("%w: modulus %d is not positive", ErrInvalidParams, i)
		}
		// x + m*k = r (mod n)  =>  k = (r - x) * m^-1 (mod n)
		inv := new(big.Int).ModInverse(new(big.Int).Mod(m, n), n)
		if inv == nil {
			return nil, nil, fmt.Errorf("%w: modulus %d", ErrModuliNotCoprime, i)
		}
		k := new(big.Int).Sub(roots[i], x)
		k.Mul(k, inv)
		k.Mod(k, n)
		x.Add(x, k.Mul(k, m))
		m.Mul(m, n)
	}
	return x.Mod(x, m), m, nil
}
