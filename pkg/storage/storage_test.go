package storage

import (
	"path/filepath"
	"testing"

	"github.com/korthochain/classvdf/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestOpen(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	for _, backend := range []string{"badger", "leveldb", "memory"} {
		db, err := Open(&config.StoreConfig{Backend: backend, Path: filepath.Join(dir, backend)}, nil)
		if assert.NoError(err, backend) {
			assert.NoError(db.Set([]byte("k"), []byte("v")))
			assert.NoError(db.Close())
		}
	}

	_, err := Open(&config.StoreConfig{Backend: "redis"}, nil)
	assert.Error(err)
}
