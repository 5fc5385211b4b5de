// Package bg is the badger backend of store.DB.
package bg

import (
	"errors"

	"github.com/dgraph-io/badger"
	"github.com/korthochain/classvdf/pkg/logger"
	"github.com/korthochain/classvdf/pkg/storage/store"
	"go.uber.org/zap"
)

// New opens (or creates) a badger database in dir.
func New(dir string, log *zap.Logger) (store.DB, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{logger.Named(log, "badger").Sugar()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &bgStore{db: db}, nil
}

func (db *bgStore) Sync() error {
	return db.db.Sync()
}

func (db *bgStore) Close() error {
	return db.db.Close()
}

func (db *bgStore) Del(k []byte) error {
	return db.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(k)
	})
}

func (db *bgStore) Set(k, v []byte) error {
	return db.db.Update(func(tx *badger.Txn) error {
		return tx.Set(k, v)
	})
}

func (db *bgStore) Get(k []byte) ([]byte, error) {
	var v []byte
	err := db.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(k)
		if err != nil {
			return err
		}
		v, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.NotExist
	}
	return v, err
}

func (db *bgStore) Has(k []byte) (bool, error) {
	_, err := db.Get(k)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.NotExist):
		return false, nil
	}
	return false, err
}
