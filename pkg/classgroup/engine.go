// Package classgroup is the class-group engine: quadratic-form arithmetic
// over imaginary quadratic orders, discriminant generation and Wesolowski
// proofs of exponentiation. Every input and output crosses the Engine
// boundary as bytes, and every failure is reported as ErrEngine or false.
package classgroup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// ErrEngine is wrapped by every error the engine returns.
var ErrEngine = errors.New("classgroup: engine failure")

// Engine is the primitive operation set the accumulator and the hasher are
// built on. Forms and proofs are opaque byte strings whose layout is fixed
// by the discriminant size (see FormSize).
type Engine interface {
	CreateDiscriminant(seed []byte, bits int) ([]byte, error)

	Identity(disc []byte) ([]byte, error)
	Generator(disc []byte) ([]byte, error)
	Power(disc, x, e []byte) ([]byte, error)
	Multiply(disc, x, y []byte) ([]byte, error)
	FromAB(disc []byte, a, b *big.Int) ([]byte, error)

	HashPrime(seed []byte, bits int) ([]byte, error)
	HashInt(seed []byte, bits int) ([]byte, error)

	Evaluate(disc, x []byte, iterations uint64) (y, proof []byte, err error)
	EvaluateCheckpoints(disc, x []byte, iterations uint64) (y, checkpoints []byte, err error)
	Prove(disc, x, y []byte, iterations uint64) ([]byte, error)
	ProveWithCheckpoints(disc, x, y, checkpoints []byte, iterations uint64) ([]byte, error)
	Verify(disc, x, y, proof []byte, iterations uint64) bool
	VerifyRecursive(disc, x, blob []byte, iterations uint64, depth int) bool
}

// Native is the pure-Go Engine.
type Native struct {
	expand NewExpanderFunc
}

var _ Engine = (*Native)(nil)

// Option configures a Native engine.
type Option func(*Native)

// WithExpander replaces the counter-mode SHA-256 expansion used for
// discriminants, hash-to-prime and hash-to-int.
func WithExpander(fn NewExpanderFunc) Option {
	return func(n *Native) {
		n.expand = fn
	}
}

// New returns the pure-Go engine.
func New(opts ...Option) *Native {
	n := &Native{expand: NewSproutExpander}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func engineError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrEngine, op, err)
}

// recoverInto turns an arithmetic panic into an engine error.
func recoverInto(op string, err *error) {
	if r := recover(); r != nil {
		*err = engineError(op, fmt.Errorf("%v", r))
	}
}

func recoverFalse(ok *bool) {
	if r := recover(); r != nil {
		*ok = false
	}
}

func (n *Native) group(disc []byte) (*classGroup, error) {
	d, err := parseDiscriminant(disc)
	if err != nil {
		return nil, err
	}
	return &classGroup{d: d, bits: 8 * len(disc), expand: n.expand}, nil
}

// CreateDiscriminant returns the bits/8-byte magnitude of a negative prime
// discriminant derived from seed.
func (n *Native) CreateDiscriminant(seed []byte, bits int) (out []byte, err error) {
	defer recoverInto("create_discriminant", &err)
	if len(seed) == 0 {
		return nil, engineError("create_discriminant", errEmptySeed)
	}
	if bits < 8 {
		return nil, engineError("create_discriminant", errors.New("bit length too small"))
	}
	out, err = createDiscriminant(n.expand(seed), bits)
	if err != nil {
		return nil, engineError("create_discriminant", err)
	}
	return out, nil
}

// Identity returns the neutral element (1, 1, (1-D)/4).
func (n *Native) Identity(disc []byte) (out []byte, err error) {
	defer recoverInto("identity", &err)
	g, err := n.group(disc)
	if err != nil {
		return nil, engineError("identity", err)
	}
	return g.encode(g.identity()), nil
}

// Generator returns the form (2, 1, (1-D)/8).
func (n *Native) Generator(disc []byte) (out []byte, err error) {
	defer recoverInto("generator", &err)
	g, err := n.group(disc)
	if err != nil {
		return nil, engineError("generator", err)
	}
	f, ok := g.generator()
	if !ok {
		return nil, engineError("generator", errors.New("discriminant is not 1 mod 8"))
	}
	return g.encode(f), nil
}

// Power returns x^e with e a big-endian unsigned integer.
func (n *Native) Power(disc, x, e []byte) (out []byte, err error) {
	defer recoverInto("power", &err)
	g, err := n.group(disc)
	if err != nil {
		return nil, engineError("power", err)
	}
	f, err := g.decode(x)
	if err != nil {
		return nil, engineError("power", err)
	}
	return g.encode(f.pow(new(big.Int).SetBytes(e))), nil
}

// Multiply returns the composition x*y.
func (n *Native) Multiply(disc, x, y []byte) (out []byte, err error) {
	defer recoverInto("multiply", &err)
	g, err := n.group(disc)
	if err != nil {
		return nil, engineError("multiply", err)
	}
	fx, err := g.decode(x)
	if err != nil {
		return nil, engineError("multiply", err)
	}
	fy, err := g.decode(y)
	if err != nil {
		return nil, engineError("multiply", err)
	}
	return g.encode(fx.multiply(fy)), nil
}

// FromAB builds the reduced form of the class containing (a, b, c), c being
// determined by D. b^2 must be D modulo 4a.
func (n *Native) FromAB(disc []byte, a, b *big.Int) (out []byte, err error) {
	defer recoverInto("from_ab", &err)
	g, err := n.group(disc)
	if err != nil {
		return nil, engineError("from_ab", err)
	}
	f, ok := newFormFromDiscriminant(a, b, g.d)
	if !ok {
		return nil, engineError("from_ab", errors.New("b^2 != D mod 4a"))
	}
	return g.encode(f.reduced()), nil
}

// HashPrime returns a bits-long probable prime with the top bit set.
func (n *Native) HashPrime(seed []byte, bits int) (out []byte, err error) {
	defer recoverInto("hash_prime", &err)
	if len(seed) == 0 {
		return nil, engineError("hash_prime", errEmptySeed)
	}
	p, err := hashPrime(n.expand(seed), bits, []int{bits - 1})
	if err != nil {
		return nil, engineError("hash_prime", err)
	}
	return p.FillBytes(make([]byte, bits/8)), nil
}

// HashInt returns bits/8 bytes of expanded output.
func (n *Native) HashInt(seed []byte, bits int) (out []byte, err error) {
	defer recoverInto("hash_int", &err)
	out, err = hashInt(n.expand(seed), bits)
	if err != nil {
		return nil, engineError("hash_int", err)
	}
	return out, nil
}

func checkIterations(iterations uint64) error {
	if iterations == 0 {
		return errors.New("zero iterations")
	}
	return nil
}

// Evaluate computes y = x^(2^T) and its proof.
func (n *Native) Evaluate(disc, x []byte, iterations uint64) (y, proof []byte, err error) {
	defer recoverInto("evaluate", &err)
	if err := checkIterations(iterations); err != nil {
		return nil, nil, engineError("evaluate", err)
	}
	g, err := n.group(disc)
	if err != nil {
		return nil, nil, engineError("evaluate", err)
	}
	fx, err := g.decode(x)
	if err != nil {
		return nil, nil, engineError("evaluate", err)
	}
	l, k := approximateParameters(iterations)
	fy, checkpoints := iterateSquarings(fx, iterations, uint64(k*l))
	y = g.encode(fy)
	B, err := g.challenge(x, y)
	if err != nil {
		return nil, nil, engineError("evaluate", err)
	}
	return y, g.encode(g.generateProof(B, iterations, k, l, checkpoints)), nil
}

// EvaluateCheckpoints computes y = x^(2^T) and returns the intermediate forms
// ProveWithCheckpoints needs, concatenated.
func (n *Native) EvaluateCheckpoints(disc, x []byte, iterations uint64) (y, checkpoints []byte, err error) {
	defer recoverInto("evaluate_checkpoints", &err)
	if err := checkIterations(iterations); err != nil {
		return nil, nil, engineError("evaluate_checkpoints", err)
	}
	g, err := n.group(disc)
	if err != nil {
		return nil, nil, engineError("evaluate_checkpoints", err)
	}
	fx, err := g.decode(x)
	if err != nil {
		return nil, nil, engineError("evaluate_checkpoints", err)
	}
	l, k := approximateParameters(iterations)
	fy, forms := iterateSquarings(fx, iterations, uint64(k*l))
	checkpoints = make([]byte, 0, len(forms)*FormSize(g.bits))
	for _, f := range forms {
		checkpoints = append(checkpoints, g.encode(f)...)
	}
	return g.encode(fy), checkpoints, nil
}

// Prove computes the proof for a claimed y = x^(2^T) directly, without
// checkpoints.
func (n *Native) Prove(disc, x, y []byte, iterations uint64) (out []byte, err error) {
	defer recoverInto("prove", &err)
	if err := checkIterations(iterations); err != nil {
		return nil, engineError("prove", err)
	}
	g, err := n.group(disc)
	if err != nil {
		return nil, engineError("prove", err)
	}
	fx, err := g.decode(x)
	if err != nil {
		return nil, engineError("prove", err)
	}
	if _, err := g.decode(y); err != nil {
		return nil, engineError("prove", err)
	}
	B, err := g.challenge(x, y)
	if err != nil {
		return nil, engineError("prove", err)
	}
	return g.encode(proveDirect(fx, B, iterations)), nil
}

// ProveWithCheckpoints computes the proof from the output of
// EvaluateCheckpoints.
func (n *Native) ProveWithCheckpoints(disc, x, y, checkpoints []byte, iterations uint64) (out []byte, err error) {
	defer recoverInto("prove_with_checkpoints", &err)
	if err := checkIterations(iterations); err != nil {
		return nil, engineError("prove_with_checkpoints", err)
	}
	g, err := n.group(disc)
	if err != nil {
		return nil, engineError("prove_with_checkpoints", err)
	}
	if _, err := g.decode(x); err != nil {
		return nil, engineError("prove_with_checkpoints", err)
	}
	if _, err := g.decode(y); err != nil {
		return nil, engineError("prove_with_checkpoints", err)
	}
	l, k := approximateParameters(iterations)
	kl := uint64(k * l)
	size := FormSize(g.bits)
	want := (iterations + kl - 1) / kl
	if uint64(len(checkpoints)) != want*uint64(size) {
		return nil, engineError("prove_with_checkpoints", fmt.Errorf("want %d checkpoints", want))
	}
	forms := make([]*Form, 0, want)
	for off := 0; off < len(checkpoints); off += size {
		f, err := g.decode(checkpoints[off : off+size])
		if err != nil {
			return nil, engineError("prove_with_checkpoints", err)
		}
		forms = append(forms, f)
	}
	B, err := g.challenge(x, y)
	if err != nil {
		return nil, engineError("prove_with_checkpoints", err)
	}
	return g.encode(g.generateProof(B, iterations, k, l, forms)), nil
}

// Verify checks a Wesolowski proof that y = x^(2^T).
func (n *Native) Verify(disc, x, y, proof []byte, iterations uint64) (ok bool) {
	defer recoverFalse(&ok)
	if iterations == 0 {
		return false
	}
	g, err := n.group(disc)
	if err != nil {
		return false
	}
	return g.verify(x, y, proof, iterations)
}

func (g *classGroup) verify(x, y, proof []byte, iterations uint64) bool {
	fx, err := g.decode(x)
	if err != nil {
		return false
	}
	fy, err := g.decode(y)
	if err != nil {
		return false
	}
	fp, err := g.decode(proof)
	if err != nil {
		return false
	}
	B, err := g.challenge(x, y)
	if err != nil {
		return false
	}
	return verifyProof(fx, fy, fp, B, iterations)
}

// VerifyRecursive checks a chain of depth intermediate segments followed by
// a final proof. The blob is y || proof for the last stretch, then depth
// segments of (big-endian uint64 iterations || y_i || proof_i). Segments are
// consumed from the end of the blob, each starting where the previous one
// stopped.
func (n *Native) VerifyRecursive(disc, x, blob []byte, iterations uint64, depth int) (ok bool) {
	defer recoverFalse(&ok)
	if depth < 0 {
		return false
	}
	g, err := n.group(disc)
	if err != nil {
		return false
	}
	size := FormSize(g.bits)
	segment := 8 + 2*size
	if len(blob) != 2*size+depth*segment {
		return false
	}
	current := x
	for i := len(blob) - segment; i >= 2*size; i -= segment {
		segmentIters := binary.BigEndian.Uint64(blob[i : i+8])
		if segmentIters == 0 || segmentIters >= iterations {
			return false
		}
		y := blob[i+8 : i+8+size]
		proof := blob[i+8+size : i+segment]
		if !g.verify(current, y, proof, segmentIters) {
			return false
		}
		current = y
		iterations -= segmentIters
	}
	return g.verify(current, blob[:size], blob[size:2*size], iterations)
}
