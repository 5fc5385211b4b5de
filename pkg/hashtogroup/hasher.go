package hashtogroup

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/bluele/gcache"
	"github.com/korthochain/classvdf/pkg/classgroup"
	"github.com/korthochain/classvdf/pkg/logger"
	"go.uber.org/zap"
)

// Sample is the full result of hashing a seed: the form and the values it
// was built from.
type Sample struct {
	// A is the product of Factors; B is odd with B^2 = D (mod 4A).
	A       *big.Int
	B       *big.Int
	Factors []*big.Int
	Roots   []*big.Int
	Form    []byte
}

// Hasher maps seeds to class-group elements of a given discriminant.
type Hasher struct {
	engine   classgroup.Engine
	params   Params
	newChain func(seed []byte) SeedChain
	cache    gcache.Cache
	logger   *zap.Logger
}

type Option func(*Hasher)

func WithLogger(l *zap.Logger) Option {
	return func(h *Hasher) {
		h.logger = l
	}
}

// WithCache keeps the last size results. Hash is deterministic, so a hit
// returns exactly what a recomputation would.
func WithCache(size int) Option {
	return func(h *Hasher) {
		if size > 0 {
			h.cache = gcache.New(size).LRU().Build()
		}
	}
}

// WithSeedChain replaces the SHA-256 rehash chain.
func WithSeedChain(fn func(seed []byte) SeedChain) Option {
	return func(h *Hasher) {
		h.newChain = fn
	}
}

func NewHasher(engine classgroup.Engine, params Params, opts ...Option) (*Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	h := &Hasher{
		engine:   engine,
		params:   params,
		newChain: NewSHA256Chain,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logger.Named(h.logger, "hashtogroup")
	return h, nil
}

func (h *Hasher) Params() Params {
	return h.params
}

// CheckDiscriminant reports whether the parameters give reduced, collision
// resistant outputs under disc.
func (h *Hasher) CheckDiscriminant(disc *classgroup.Discriminant) error {
	if disc.BitLen() <= h.params.MinDiscriminantBits {
		return fmt.Errorf("%w: %d bits, need more than %d", ErrDiscriminantTooSmall, disc.BitLen(), h.params.MinDiscriminantBits)
	}
	half := new(big.Int).Sqrt(new(big.Int).Neg(disc.Int()))
	half.Rsh(half, 1)
	if half.BitLen() <= h.params.productBits() {
		return fmt.Errorf("%w: %d-bit products exceed sqrt(|D|)/2", ErrInsecureDiscriminant, h.params.productBits())
	}
	if half.Cmp(primeUpperBound(2*h.params.SecurityBits)) <= 0 {
		return fmt.Errorf("%w: image bound exceeds sqrt(|D|)/2", ErrInsecureDiscriminant)
	}
	return nil
}

// Hash returns the serialized form for seed under disc.
func (h *Hasher) Hash(seed []byte, disc *classgroup.Discriminant) ([]byte, error) {
	var key string
	if h.cache != nil {
		key = cacheKey(seed, disc)
		if v, err := h.cache.Get(key); err == nil {
			return append([]byte(nil), v.([]byte)...), nil
		}
	}
	s, err := h.Sample(seed, disc)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		h.cache.Set(key, append([]byte(nil), s.Form...))
	}
	return s.Form, nil
}

// Sample draws the factors for seed, combines their square roots of D and
// builds the form (a, b).
func (h *Hasher) Sample(seed []byte, disc *classgroup.Discriminant) (*Sample, error) {
	if err := h.CheckDiscriminant(disc); err != nil {
		return nil, err
	}
	d := disc.Int()
	sampler := NewSampler(h.engine, d, h.newChain(seed), h.params.MaxAttempts)

	sizes := make([]int, 0, 1+h.params.Factors)
	sizes = append(sizes, h.params.SecurityBits)
	for i := 0; i < h.params.Factors; i++ {
		sizes = append(sizes, h.params.FactorBits)
	}

	roots := make([]*big.Int, 0, len(sizes))
	for _, bits := range sizes {
		p, err := sampler.Next(bits)
		if err != nil {
			h.logger.Warn("prime sampling failed", zap.Int("bits", bits), zap.Int("attempts", sampler.Attempts()), zap.Error(err))
			return nil, err
		}
		root, ok := SqrtMod(d, p, false)
		if !ok || new(big.Int).Exp(root, bigTwo, p).Cmp(new(big.Int).Mod(d, p)) != 0 {
			return nil, h.violation("no square root of D modulo an accepted factor", zap.String("factor", p.Text(16)))
		}
		roots = append(roots, root)
	}

	factors := sampler.Factors()
	b, a, err := Combine(roots, factors)
	if err != nil {
		return nil, h.violation(err.Error())
	}
	if b.Bit(0) == 0 {
		b.Sub(b, a)
	}

	form, err := h.engine.FromAB(disc.Bytes(), a, b)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("hashed to class group",
		zap.String("seed", hex.EncodeToString(seed)),
		zap.Int("attempts", sampler.Attempts()),
		zap.Int("abits", a.BitLen()))
	return &Sample{A: a, B: b, Factors: factors, Roots: roots, Form: form}, nil
}

func (h *Hasher) violation(msg string, fields ...zap.Field) error {
	h.logger.Error(msg, fields...)
	return fmt.Errorf("%w: %s", ErrInvariantViolation, msg)
}

func cacheKey(seed []byte, disc *classgroup.Discriminant) string {
	raw := disc.Bytes()
	key := make([]byte, 4, 4+len(raw)+len(seed))
	binary.BigEndian.PutUint32(key, uint32(len(raw)))
	key = append(key, raw...)
	return string(append(key, seed...))
}
