// Package session keeps accumulator sessions in a store.DB so that
// elements can be folded across requests and process restarts.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/korthochain/classvdf/pkg/accumulator"
	"github.com/korthochain/classvdf/pkg/classgroup"
	"github.com/korthochain/classvdf/pkg/clock"
	"github.com/korthochain/classvdf/pkg/logger"
	"github.com/korthochain/classvdf/pkg/storage/store"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

var keyPrefix = []byte("session/")

var (
	ErrNotFound     = errors.New("session: not found")
	ErrInvalidInput = errors.New("session: invalid input")
)

type Config struct {
	DB     store.DB
	Engine classgroup.Engine
	// Clock stamps new sessions; nil means the local clock.
	Clock  clock.Clock
	Logger *zap.Logger
}

type Manager struct {
	// mu guards locks only. Each record's read-modify-write cycle holds
	// that record's entry, so work on one session never blocks another.
	mu     sync.Mutex
	locks  map[string]*recordLock
	db     store.DB
	engine classgroup.Engine
	clock  clock.Clock
	logger *zap.Logger
}

func NewManager(cfg Config) *Manager {
	engine := cfg.Engine
	if engine == nil {
		engine = classgroup.New()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Local()
	}
	return &Manager{
		locks:  make(map[string]*recordLock),
		db:     cfg.DB,
		engine: engine,
		clock:  clk,
		logger: logger.Named(cfg.Logger, "session"),
	}
}

type recordLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the lock of session id and returns its release.
func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &recordLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

func newID() (string, error) {
	u, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return base58.Encode(u.Bytes()), nil
}

func recordKey(id string) ([]byte, error) {
	raw, err := base58.Decode(id)
	if err != nil || len(raw) != uuid.Size {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return append(append([]byte(nil), keyPrefix...), id...), nil
}

// Create validates the discriminant and inputs and stores a fresh session.
func (m *Manager) Create(disc []byte, xs [][]byte, iterations uint64) (string, *Record, error) {
	d, err := classgroup.NewDiscriminant(disc)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if iterations == 0 {
		return "", nil, fmt.Errorf("%w: zero iterations", ErrInvalidInput)
	}
	for i, x := range xs {
		if _, err := classgroup.ParseForm(d, x); err != nil {
			return "", nil, fmt.Errorf("%w: input %d: %v", ErrInvalidInput, i, err)
		}
	}

	st, err := m.accumulator(d).Init(xs)
	if err != nil {
		return "", nil, err
	}
	id, err := newID()
	if err != nil {
		return "", nil, err
	}
	r := &Record{
		Discriminant: d.Bytes(),
		Inputs:       xs,
		Iterations:   iterations,
		State:        st,
		Created:      m.clock.Now().Unix(),
	}

	if err := m.put(id, r); err != nil {
		return "", nil, err
	}
	m.logger.Info("session created", zap.String("id", id), zap.Int("elements", len(xs)), zap.Uint64("iterations", iterations))
	return id, r, nil
}

func (m *Manager) accumulator(d *classgroup.Discriminant) *accumulator.Accumulator {
	return accumulator.New(accumulator.Config{Engine: m.engine, Discriminant: d, Logger: m.logger})
}

// Get reads the stored record. Writers replace records whole, so it needs
// no lock.
func (m *Manager) Get(id string) (*Record, error) {
	return m.get(id)
}

func (m *Manager) get(id string) (*Record, error) {
	key, err := recordKey(id)
	if err != nil {
		return nil, err
	}
	buf, err := m.db.Get(key)
	if errors.Is(err, store.NotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(buf)
}

func (m *Manager) put(id string, r *Record) error {
	key, err := recordKey(id)
	if err != nil {
		return err
	}
	buf, err := encodeRecord(r)
	if err != nil {
		return err
	}
	return m.db.Set(key, buf)
}

// Fold applies y as the output of input index. Folds must arrive in order.
func (m *Manager) Fold(id string, index uint64, y []byte) (*Record, error) {
	defer m.lock(id)()

	r, err := m.get(id)
	if err != nil {
		return nil, err
	}
	s, d, err := m.resume(r)
	if err != nil {
		return nil, err
	}
	if _, err := classgroup.ParseForm(d, y); err != nil {
		return nil, fmt.Errorf("%w: output %d: %v", ErrInvalidInput, index, err)
	}
	st, err := s.Fold(index, y)
	if err != nil {
		return nil, err
	}
	r.State = st
	if err := m.put(id, r); err != nil {
		return nil, err
	}
	m.logger.Debug("session folded", zap.String("id", id), zap.Uint64("index", index))
	return r, nil
}

func (m *Manager) resume(r *Record) (*accumulator.Session, *classgroup.Discriminant, error) {
	d, err := classgroup.NewDiscriminant(r.Discriminant)
	if err != nil {
		return nil, nil, err
	}
	s, err := m.accumulator(d).ResumeSession(r.Inputs, r.Iterations, r.State)
	if err != nil {
		return nil, nil, err
	}
	return s, d, nil
}

// Prove returns the aggregate proof of a complete session. The proof is
// stored with the session and returned as is on later calls.
func (m *Manager) Prove(id string) ([]byte, error) {
	defer m.lock(id)()

	r, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if len(r.Proof) > 0 {
		return r.Proof, nil
	}
	s, _, err := m.resume(r)
	if err != nil {
		return nil, err
	}
	proof, err := s.Prove()
	if err != nil {
		return nil, err
	}
	r.Proof = proof
	if err := m.put(id, r); err != nil {
		return nil, err
	}
	m.logger.Info("session proven", zap.String("id", id))
	return proof, nil
}

// Verify checks proof against the session's accumulators.
func (m *Manager) Verify(id string, proof []byte) (bool, error) {
	r, err := m.Get(id)
	if err != nil {
		return false, err
	}
	return m.engine.Verify(r.Discriminant, r.State.X, r.State.Y, proof, r.Iterations), nil
}

func (m *Manager) Delete(id string) error {
	defer m.lock(id)()

	key, err := recordKey(id)
	if err != nil {
		return err
	}
	if ok, err := m.db.Has(key); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return m.db.Del(key)
}

// List returns the ids of all stored sessions.
func (m *Manager) List() ([]string, error) {
	itr := m.db.NewIterator(keyPrefix, nil)
	defer itr.Release()

	var ids []string
	for itr.Next() {
		ids = append(ids, string(bytes.TrimPrefix(itr.Key(), keyPrefix)))
	}
	return ids, itr.Error()
}
