package bg

import (
	"github.com/dgraph-io/badger"
	"go.uber.org/zap"
)

type bgStore struct {
	db *badger.DB
}

type bgIterator struct {
	err     error
	started bool
	start   []byte
	tx      *badger.Txn
	itr     *badger.Iterator
}

// badgerLogger routes badger's logs through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
