package classgroup

import (
	"math"
	"math/big"
)

// challengeBits is the size of the Fiat-Shamir prime of a Wesolowski proof.
const challengeBits = 264

// classGroup binds the arithmetic to one discriminant.
type classGroup struct {
	d      *big.Int
	bits   int
	expand NewExpanderFunc
}

func (g *classGroup) identity() *Form {
	return identityForDiscriminant(g.d)
}

// generator returns the form (2, 1, c); 2 splits because D = 1 (mod 8).
func (g *classGroup) generator() (*Form, bool) {
	if new(big.Int).Mod(g.d, bigEight).Cmp(bigOne) != 0 {
		return nil, false
	}
	return newFormFromDiscriminant(bigTwo, bigOne, g.d)
}

func (g *classGroup) decode(buf []byte) (*Form, error) {
	return decodeForm(g.d, g.bits, buf)
}

func (g *classGroup) encode(f *Form) []byte {
	return encodeForm(f, g.bits)
}

// challenge derives the prime B from the serialized input and output.
func (g *classGroup) challenge(x, y []byte) (*big.Int, error) {
	seed := make([]byte, 0, len(x)+len(y))
	seed = append(append(seed, x...), y...)
	return hashPrime(g.expand(seed), challengeBits, []int{challengeBits - 1})
}

// approximateParameters picks the checkpoint spacing k*l that keeps the
// prover's memory bounded (roughly 10^7 stored forms).
func approximateParameters(T uint64) (l, k int) {
	logMemory := math.Log(10000000) / math.Log(2)
	logT := math.Log2(float64(T))
	l = 1
	if logT-logMemory > 0.000001 {
		l = int(math.Ceil(math.Pow(2, logMemory-20)))
	}
	intermediate := float64(T) * math.Ln2 / float64(2*l)
	kf := math.Round(math.Log(intermediate) - math.Log(math.Log(intermediate)) + 0.25)
	if math.IsNaN(kf) || kf < 1 {
		kf = 1
	}
	return l, int(kf)
}

// iterateSquarings computes x^(2^T) and keeps x^(2^(i*kl)) for every
// i < ceil(T/kl).
func iterateSquarings(x *Form, T, kl uint64) (*Form, []*Form) {
	checkpoints := make([]*Form, 0, (T+kl-1)/kl)
	y := x
	for done := uint64(0); done < T; done += kl {
		checkpoints = append(checkpoints, y)
		step := kl
		if T-done < step {
			step = T - done
		}
		y = y.repeatedSquare(step)
	}
	return y, checkpoints
}

func getBlock(i uint64, k int, T uint64, B *big.Int) int {
	res := new(big.Int).Exp(bigTwo, new(big.Int).SetUint64(T-uint64(k)*(i+1)), B)
	res.Lsh(res, uint(k))
	res.Div(res, B)
	return int(res.Int64())
}

// generateProof computes x^floor(2^T / B) from the checkpoints produced by
// iterateSquarings, without redoing the T squarings.
func (g *classGroup) generateProof(B *big.Int, T uint64, k, l int, checkpoints []*Form) *Form {
	k1 := k / 2
	k0 := k - k1
	kl := uint64(k * l)
	identity := g.identity()

	acc := identity
	for j := l - 1; j >= 0; j-- {
		acc = acc.repeatedSquare(uint64(k))

		ys := make([]*Form, 1<<uint(k))
		for b := range ys {
			ys[b] = identity
		}
		for i := uint64(0); i < (T+kl-1)/kl; i++ {
			if T < uint64(k)*(i*uint64(l)+uint64(j)+1) {
				continue
			}
			b := getBlock(i*uint64(l)+uint64(j), k, T, B)
			ys[b] = ys[b].multiply(checkpoints[i])
		}

		for b1 := 0; b1 < 1<<uint(k1); b1++ {
			z := identity
			for b0 := 0; b0 < 1<<uint(k0); b0++ {
				z = z.multiply(ys[b1<<uint(k0)+b0])
			}
			acc = acc.multiply(z.pow(big.NewInt(int64(b1 << uint(k0)))))
		}
		for b0 := 0; b0 < 1<<uint(k0); b0++ {
			z := identity
			for b1 := 0; b1 < 1<<uint(k1); b1++ {
				z = z.multiply(ys[b1<<uint(k0)+b0])
			}
			acc = acc.multiply(z.pow(big.NewInt(int64(b0))))
		}
	}
	return acc
}

// proveDirect computes x^floor(2^T / B) by plain exponentiation.
func proveDirect(x *Form, B *big.Int, T uint64) *Form {
	e := new(big.Int).Lsh(bigOne, uint(T))
	e.Div(e, B)
	return x.pow(e)
}

// verifyProof checks proof^B * x^(2^T mod B) == y.
func verifyProof(x, y, proof *Form, B *big.Int, T uint64) bool {
	r := new(big.Int).Exp(bigTwo, new(big.Int).SetUint64(T), B)
	return proof.pow(B).multiply(x.pow(r)).Equal(y)
}
