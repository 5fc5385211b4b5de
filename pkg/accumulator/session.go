package accumulator

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrOutOfOrder        = errors.New("accumulator: element folded out of order")
	ErrSessionComplete   = errors.New("accumulator: every element is already folded")
	ErrSessionIncomplete = errors.New("accumulator: elements left to fold")
)

// Session tracks one accumulation over a fixed, ordered list of inputs.
// Folds are serialized and must arrive in input order.
type Session struct {
	mu         sync.Mutex
	acc        *Accumulator
	xs         [][]byte
	iterations uint64
	state      *State
}

func (a *Accumulator) NewSession(xs [][]byte, iterations uint64) (*Session, error) {
	st, err := a.Init(xs)
	if err != nil {
		return nil, err
	}
	return a.ResumeSession(xs, iterations, st)
}

// ResumeSession continues from a previously saved state.
func (a *Accumulator) ResumeSession(xs [][]byte, iterations uint64, st *State) (*Session, error) {
	if st.Count > uint64(len(xs)) {
		return nil, fmt.Errorf("%w: state has %d elements, session %d", ErrOutOfOrder, st.Count, len(xs))
	}
	return &Session{
		acc:        a,
		xs:         xs,
		iterations: iterations,
		state:      st.clone(),
	}, nil
}

// Fold applies y as the output for input index.
func (s *Session) Fold(index uint64, y []byte) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Count == uint64(len(s.xs)) {
		return nil, ErrSessionComplete
	}
	if index != s.state.Count {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrOutOfOrder, index, s.state.Count)
	}
	st, err := s.acc.Update(s.state, s.xs[index], y)
	if err != nil {
		return nil, err
	}
	s.state = st
	return st.clone(), nil
}

// Next returns the index and input of the next element to fold.
func (s *Session) Next() (uint64, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Count == uint64(len(s.xs)) {
		return s.state.Count, nil, false
	}
	return s.state.Count, s.xs[s.state.Count], true
}

func (s *Session) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Session) Len() int {
	return len(s.xs)
}

func (s *Session) Iterations() uint64 {
	return s.iterations
}

// Prove proves the aggregate once every element has been folded.
func (s *Session) Prove() ([]byte, error) {
	st := s.State()
	if st.Count != uint64(len(s.xs)) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSessionIncomplete, st.Count, len(s.xs))
	}
	return s.acc.Prove(st, s.iterations)
}

func (s *Session) Verify(proof []byte) bool {
	return s.acc.Verify(s.State(), proof, s.iterations)
}
