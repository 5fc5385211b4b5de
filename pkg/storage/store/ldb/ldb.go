// Package ldb is the goleveldb backend of store.DB.
package ldb

import (
	"errors"

	"github.com/korthochain/classvdf/pkg/storage/store"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type ldbStore struct {
	db *leveldb.DB
}

type ldbIterator struct {
	started bool
	start   []byte
	itr     iterator.Iterator
}

// New opens (or creates) a leveldb database in dir.
func New(dir string) (store.DB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &ldbStore{db: db}, nil
}

// NewMemory returns a database that lives in memory only.
func NewMemory() (store.DB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &ldbStore{db: db}, nil
}

// Sync forces pending writes to disk by writing an empty synced batch.
func (db *ldbStore) Sync() error {
	return db.db.Write(new(leveldb.Batch), &opt.WriteOptions{Sync: true})
}

func (db *ldbStore) Close() error {
	return db.db.Close()
}

func (db *ldbStore) Del(k []byte) error {
	return db.db.Delete(k, nil)
}

func (db *ldbStore) Set(k, v []byte) error {
	return db.db.Put(k, v, nil)
}

func (db *ldbStore) Get(k []byte) ([]byte, error) {
	v, err := db.db.Get(k, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, store.NotExist
	}
	return v, err
}

func (db *ldbStore) Has(k []byte) (bool, error) {
	return db.db.Has(k, nil)
}

func (db *ldbStore) NewIterator(prefix []byte, start []byte) store.Iterator {
	return &ldbIterator{
		start: start,
		itr:   db.db.NewIterator(util.BytesPrefix(prefix), nil),
	}
}

func (itr *ldbIterator) Next() bool {
	if !itr.started && len(itr.start) > 0 {
		itr.started = true
		return itr.itr.Seek(itr.start)
	}
	itr.started = true
	return itr.itr.Next()
}

func (itr *ldbIterator) Error() error {
	return itr.itr.Error()
}

func (itr *ldbIterator) Key() []byte {
	return append([]byte(nil), itr.itr.Key()...)
}

func (itr *ldbIterator) Value() []byte {
	return append([]byte(nil), itr.itr.Value()...)
}

func (itr *ldbIterator) Release() {
	itr.itr.Release()
}
