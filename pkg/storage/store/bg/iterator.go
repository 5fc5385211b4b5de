package bg

import (
	"github.com/dgraph-io/badger"
	"github.com/korthochain/classvdf/pkg/storage/store"
)

func (db *bgStore) NewIterator(prefix []byte, start []byte) store.Iterator {
	opt := badger.DefaultIteratorOptions
	opt.Prefix = prefix
	opt.PrefetchValues = false
	tx := db.db.NewTransaction(false)
	if len(start) == 0 {
		start = prefix
	}
	return &bgIterator{
		tx:    tx,
		itr:   tx.NewIterator(opt),
		start: start,
	}
}

func (itr *bgIterator) Next() bool {
	if !itr.started {
		itr.started = true
		itr.itr.Seek(itr.start)
		return itr.itr.Valid()
	}
	if !itr.itr.Valid() {
		return false
	}
	itr.itr.Next()
	return itr.itr.Valid()
}

func (itr *bgIterator) Error() error {
	return itr.err
}

func (itr *bgIterator) Key() []byte {
	return itr.itr.Item().KeyCopy(nil)
}

func (itr *bgIterator) Value() []byte {
	v, err := itr.itr.Item().ValueCopy(nil)
	if err != nil {
		itr.err = err
		return nil
	}
	return v
}

func (itr *bgIterator) Release() {
	itr.itr.Close()
	itr.tx.Discard()
}
