// Package accumulator folds many VDF evaluations (x_i, y_i = x_i^(2^T)) into
// a single pair (AccX, AccY) that is proven and verified as one VDF instance.
// Each element is weighted by a 128-bit exponent derived from a hash chain
// over the outputs, so the pair can only satisfy AccY = AccX^(2^T) if every
// y_i is correct.
package accumulator

import (
	"crypto/sha256"
	"fmt"

	"github.com/korthochain/classvdf/pkg/classgroup"
	"github.com/korthochain/classvdf/pkg/logger"
	"go.uber.org/zap"
)

// exponentBits is the size of the random exponent of every folded element.
const exponentBits = 128

// State is the running accumulator. It is treated as immutable; Update
// returns a new value.
type State struct {
	X     []byte `cbor:"1,keyasint"`
	Y     []byte `cbor:"2,keyasint"`
	Seed  []byte `cbor:"3,keyasint"`
	Count uint64 `cbor:"4,keyasint"`
}

func (s *State) clone() *State {
	return &State{
		X:     append([]byte(nil), s.X...),
		Y:     append([]byte(nil), s.Y...),
		Seed:  append([]byte(nil), s.Seed...),
		Count: s.Count,
	}
}

type Config struct {
	Engine       classgroup.Engine
	Discriminant *classgroup.Discriminant
	Logger       *zap.Logger
}

type Accumulator struct {
	engine classgroup.Engine
	disc   *classgroup.Discriminant
	logger *zap.Logger
}

func New(cfg Config) *Accumulator {
	engine := cfg.Engine
	if engine == nil {
		engine = classgroup.New()
	}
	return &Accumulator{
		engine: engine,
		disc:   cfg.Discriminant,
		logger: logger.Named(cfg.Logger, "accumulator"),
	}
}

func (a *Accumulator) Discriminant() *classgroup.Discriminant {
	return a.disc
}

// InitialSeed is SHA-256 over the ordered concatenation of every input.
func InitialSeed(xs [][]byte) []byte {
	h := sha256.New()
	for _, x := range xs {
		h.Write(x)
	}
	return h.Sum(nil)
}

// Init returns the state before any element is folded: both accumulators
// are the identity and the chain starts at InitialSeed(xs).
func (a *Accumulator) Init(xs [][]byte) (*State, error) {
	id, err := a.engine.Identity(a.disc.Bytes())
	if err != nil {
		return nil, err
	}
	return &State{
		X:    id,
		Y:    append([]byte(nil), id...),
		Seed: InitialSeed(xs),
	}, nil
}

// Update folds (x, y) into st: with next = SHA-256(seed || y) and
// e = HashInt(next), AccX *= x^e and AccY *= y^e.
func (a *Accumulator) Update(st *State, x, y []byte) (*State, error) {
	h := sha256.New()
	h.Write(st.Seed)
	h.Write(y)
	next := h.Sum(nil)

	e, err := a.engine.HashInt(next, exponentBits)
	if err != nil {
		return nil, err
	}
	disc := a.disc.Bytes()
	accX, err := a.fold(disc, st.X, x, e)
	if err != nil {
		return nil, fmt.Errorf("fold x[%d]: %w", st.Count, err)
	}
	accY, err := a.fold(disc, st.Y, y, e)
	if err != nil {
		return nil, fmt.Errorf("fold y[%d]: %w", st.Count, err)
	}
	a.logger.Debug("folded element", zap.Uint64("index", st.Count))
	return &State{X: accX, Y: accY, Seed: next, Count: st.Count + 1}, nil
}

func (a *Accumulator) fold(disc, acc, v, e []byte) ([]byte, error) {
	ve, err := a.engine.Power(disc, v, e)
	if err != nil {
		return nil, err
	}
	return a.engine.Multiply(disc, acc, ve)
}

// Prove returns the Wesolowski proof that st.Y = st.X^(2^iterations).
func (a *Accumulator) Prove(st *State, iterations uint64) ([]byte, error) {
	return a.engine.Prove(a.disc.Bytes(), st.X, st.Y, iterations)
}

func (a *Accumulator) Verify(st *State, proof []byte, iterations uint64) bool {
	return a.engine.Verify(a.disc.Bytes(), st.X, st.Y, proof, iterations)
}
