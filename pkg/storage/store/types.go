package store

import "errors"

var NotExist = errors.New("NotExist")

// DB is the key-value store behind the session manager.
type DB interface {
	Sync() error

	Close() error
	// kv
	Del([]byte) error
	Set([]byte, []byte) error
	Get([]byte) ([]byte, error)
	Has([]byte) (bool, error)

	// NewIterator walks the keys with the given prefix in ascending order,
	// starting at start (or the first key after it).
	NewIterator(prefix []byte, start []byte) Iterator
}

// Iterator must be advanced with Next before the first Key/Value and
// released after use.
type Iterator interface {
	Next() bool

	Error() error

	Key() []byte

	Value() []byte

	Release()
}
