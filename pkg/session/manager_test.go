package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/korthochain/classvdf/pkg/accumulator"
	"github.com/korthochain/classvdf/pkg/classgroup"
	"github.com/korthochain/classvdf/pkg/hashtogroup"
	"github.com/korthochain/classvdf/pkg/storage/store/ldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIterations = 200

var (
	testDiscOnce sync.Once
	testDisc     *classgroup.Discriminant
)

func testDiscriminant() *classgroup.Discriminant {
	testDiscOnce.Do(func() {
		d, err := classgroup.CreateDiscriminant([]byte("session test discriminant"), 1024)
		if err != nil {
			panic(err)
		}
		testDisc = d
	})
	return testDisc
}

func testManager(t *testing.T) *Manager {
	db, err := ldb.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewManager(Config{DB: db})
}

func testElements(t *testing.T, n int) ([][]byte, [][]byte) {
	e := classgroup.New()
	disc := testDiscriminant()
	h, err := hashtogroup.NewHasher(e, hashtogroup.DefaultParams())
	require.NoError(t, err)
	xs := make([][]byte, n)
	ys := make([][]byte, n)
	for i := range xs {
		xs[i], err = h.Hash([]byte(fmt.Sprintf("session-%d", i)), disc)
		require.NoError(t, err)
		ys[i], _, err = e.Evaluate(disc.Bytes(), xs[i], testIterations)
		require.NoError(t, err)
	}
	return xs, ys
}

func TestSessionLifecycle(t *testing.T) {
	assert := assert.New(t)
	m := testManager(t)
	xs, ys := testElements(t, 2)

	id, r, err := m.Create(testDiscriminant().Bytes(), xs, testIterations)
	require.NoError(t, err)
	assert.NotEmpty(id)
	assert.False(r.Complete())
	assert.Equal(accumulator.InitialSeed(xs), r.State.Seed)

	_, err = m.Prove(id)
	assert.ErrorIs(err, accumulator.ErrSessionIncomplete)

	_, err = m.Fold(id, 1, ys[1])
	assert.ErrorIs(err, accumulator.ErrOutOfOrder)

	for i := range ys {
		r, err = m.Fold(id, uint64(i), ys[i])
		require.NoError(t, err)
	}
	assert.True(r.Complete())

	_, err = m.Fold(id, 2, ys[0])
	assert.ErrorIs(err, accumulator.ErrSessionComplete)

	proof, err := m.Prove(id)
	require.NoError(t, err)
	ok, err := m.Verify(id, proof)
	assert.NoError(err)
	assert.True(ok)

	again, err := m.Prove(id)
	assert.NoError(err)
	assert.Equal(proof, again)

	stored, err := m.Get(id)
	assert.NoError(err)
	assert.Equal(proof, stored.Proof)
	assert.Equal(r.State, stored.State)

	// The same state computed without the store.
	acc := accumulator.New(accumulator.Config{Discriminant: testDiscriminant()})
	st, want, err := acc.Accumulate(context.Background(), xs, testIterations, 1)
	require.NoError(t, err)
	assert.Equal(st, stored.State)
	assert.Equal(want, proof)

	ids, err := m.List()
	assert.NoError(err)
	assert.Equal([]string{id}, ids)

	assert.NoError(m.Delete(id))
	_, err = m.Get(id)
	assert.ErrorIs(err, ErrNotFound)
	assert.ErrorIs(m.Delete(id), ErrNotFound)
}

func TestSessionsSurviveManagers(t *testing.T) {
	assert := assert.New(t)
	db, err := ldb.NewMemory()
	require.NoError(t, err)
	defer db.Close()
	xs, ys := testElements(t, 1)

	first := NewManager(Config{DB: db})
	id1, _, err := first.Create(testDiscriminant().Bytes(), xs, testIterations)
	require.NoError(t, err)
	id2, _, err := first.Create(testDiscriminant().Bytes(), xs, testIterations)
	require.NoError(t, err)
	assert.NotEqual(id1, id2)

	second := NewManager(Config{DB: db})
	r, err := second.Fold(id1, 0, ys[0])
	assert.NoError(err)
	assert.True(r.Complete())

	ids, err := second.List()
	assert.NoError(err)
	sort.Strings(ids)
	want := []string{id1, id2}
	sort.Strings(want)
	assert.Equal(want, ids)
}

func TestCreateRejectsInput(t *testing.T) {
	assert := assert.New(t)
	m := testManager(t)
	xs, _ := testElements(t, 1)
	disc := testDiscriminant().Bytes()

	_, _, err := m.Create([]byte{15}, xs, testIterations)
	assert.ErrorIs(err, ErrInvalidInput)
	_, _, err = m.Create(disc, xs, 0)
	assert.ErrorIs(err, ErrInvalidInput)
	_, _, err = m.Create(disc, [][]byte{{1, 2, 3}}, testIterations)
	assert.ErrorIs(err, ErrInvalidInput)

	id, _, err := m.Create(disc, xs, testIterations)
	require.NoError(t, err)
	_, err = m.Fold(id, 0, []byte{1, 2, 3})
	assert.ErrorIs(err, ErrInvalidInput)
}

func TestUnknownSession(t *testing.T) {
	assert := assert.New(t)
	m := testManager(t)

	_, err := m.Get("not-base58-0OIl")
	assert.ErrorIs(err, ErrNotFound)

	id, err := newID()
	require.NoError(t, err)
	_, err = m.Get(id)
	assert.ErrorIs(err, ErrNotFound)
	_, err = m.Fold(id, 0, nil)
	assert.ErrorIs(err, ErrNotFound)
}

func TestRecordEncoding(t *testing.T) {
	assert := assert.New(t)

	r := &Record{
		Discriminant: []byte{23},
		Inputs:       [][]byte{{1}, {2}},
		Iterations:   9,
		State:        &accumulator.State{X: []byte{1}, Y: []byte{2}, Seed: []byte{3}, Count: 1},
		Created:      1700000000,
	}
	buf, err := encodeRecord(r)
	require.NoError(t, err)
	assert.Equal(recordVersion, buf[0])

	back, err := decodeRecord(buf)
	assert.NoError(err)
	assert.Equal(r, back)

	buf[0] = 0x7f
	_, err = decodeRecord(buf)
	assert.Error(err)
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestCreateUsesClock(t *testing.T) {
	db, err := ldb.NewMemory()
	require.NoError(t, err)
	defer db.Close()
	xs, _ := testElements(t, 1)

	m := NewManager(Config{DB: db, Clock: fixedClock(time.Unix(1234567890, 0))})
	_, r, err := m.Create(testDiscriminant().Bytes(), xs, testIterations)
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890), r.Created)
}

// gatedEngine parks Prove until release is closed.
type gatedEngine struct {
	classgroup.Engine
	entered chan struct{}
	release chan struct{}
}

func (e *gatedEngine) Prove(disc, x, y []byte, iterations uint64) ([]byte, error) {
	close(e.entered)
	<-e.release
	return e.Engine.Prove(disc, x, y, iterations)
}

func TestProveDoesNotBlockOtherSessions(t *testing.T) {
	assert := assert.New(t)
	db, err := ldb.NewMemory()
	require.NoError(t, err)
	defer db.Close()
	xs, ys := testElements(t, 1)
	disc := testDiscriminant().Bytes()

	engine := &gatedEngine{Engine: classgroup.New(), entered: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(Config{DB: db, Engine: engine})

	slow, _, err := m.Create(disc, xs, testIterations)
	require.NoError(t, err)
	_, err = m.Fold(slow, 0, ys[0])
	require.NoError(t, err)
	other, _, err := m.Create(disc, xs, testIterations)
	require.NoError(t, err)

	proved := make(chan error, 1)
	go func() {
		_, err := m.Prove(slow)
		proved <- err
	}()
	<-engine.entered

	done := make(chan error, 1)
	go func() {
		if _, err := m.Get(other); err != nil {
			done <- err
			return
		}
		if _, err := m.Fold(other, 0, ys[0]); err != nil {
			done <- err
			return
		}
		_, _, err := m.Create(disc, xs, testIterations)
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(10 * time.Second):
		t.Fatal("other session blocked behind a running proof")
	}

	// A second fold on the proving session waits for the proof.
	folded := make(chan error, 1)
	go func() {
		_, err := m.Fold(slow, 1, ys[0])
		folded <- err
	}()
	select {
	case <-folded:
		t.Fatal("fold ran while the same session was proving")
	case <-time.After(50 * time.Millisecond):
	}

	close(engine.release)
	assert.NoError(<-proved)
	assert.ErrorIs(<-folded, accumulator.ErrSessionComplete)

	r, err := m.Get(slow)
	assert.NoError(err)
	assert.NotEmpty(r.Proof)
	assert.Empty(m.locks)
}
