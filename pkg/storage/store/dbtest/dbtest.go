// Package dbtest holds the behaviour every store.DB backend must share.
package dbtest

import (
	"testing"

	"github.com/korthochain/classvdf/pkg/storage/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises db and closes it.
func Run(t *testing.T, db store.DB) {
	assert := assert.New(t)
	defer func() {
		assert.NoError(db.Close())
	}()

	_, err := db.Get([]byte("missing"))
	assert.ErrorIs(err, store.NotExist)
	ok, err := db.Has([]byte("missing"))
	assert.NoError(err)
	assert.False(ok)

	require.NoError(t, db.Set([]byte("a/1"), []byte("one")))
	require.NoError(t, db.Set([]byte("a/2"), []byte("two")))
	require.NoError(t, db.Set([]byte("a/3"), []byte("three")))
	require.NoError(t, db.Set([]byte("b/1"), []byte("other")))

	v, err := db.Get([]byte("a/2"))
	assert.NoError(err)
	assert.Equal([]byte("two"), v)
	ok, err = db.Has([]byte("a/2"))
	assert.NoError(err)
	assert.True(ok)

	assert.Equal([]string{"a/1", "a/2", "a/3"}, keys(t, db.NewIterator([]byte("a/"), nil)))
	assert.Equal([]string{"a/2", "a/3"}, keys(t, db.NewIterator([]byte("a/"), []byte("a/2"))))
	assert.Equal([]string{"b/1"}, keys(t, db.NewIterator([]byte("b/"), nil)))

	itr := db.NewIterator([]byte("a/"), []byte("a/3"))
	assert.True(itr.Next())
	assert.Equal([]byte("three"), itr.Value())
	assert.False(itr.Next())
	assert.NoError(itr.Error())
	itr.Release()

	require.NoError(t, db.Set([]byte("a/2"), []byte("deux")))
	v, err = db.Get([]byte("a/2"))
	assert.NoError(err)
	assert.Equal([]byte("deux"), v)

	require.NoError(t, db.Del([]byte("a/2")))
	_, err = db.Get([]byte("a/2"))
	assert.ErrorIs(err, store.NotExist)
	assert.Equal([]string{"a/1", "a/3"}, keys(t, db.NewIterator([]byte("a/"), nil)))

	assert.NoError(db.Sync())
}

func keys(t *testing.T, itr store.Iterator) []string {
	defer itr.Release()
	var out []string
	for itr.Next() {
		out = append(out, string(itr.Key()))
	}
	assert.NoError(t, itr.Error())
	return out
}
