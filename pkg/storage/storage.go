// Package storage opens the configured store.DB backend.
package storage

import (
	"fmt"
	"strings"

	"github.com/korthochain/classvdf/pkg/config"
	"github.com/korthochain/classvdf/pkg/storage/store"
	"github.com/korthochain/classvdf/pkg/storage/store/bg"
	"github.com/korthochain/classvdf/pkg/storage/store/ldb"
	"go.uber.org/zap"
)

// Open returns the backend named by cfg: "badger", "leveldb", or "memory"
// (leveldb on in-memory storage, Path ignored).
func Open(cfg *config.StoreConfig, log *zap.Logger) (store.DB, error) {
	switch strings.ToLower(cfg.Backend) {
	case "badger", "":
		return bg.New(cfg.Path, log)
	case "leveldb":
		return ldb.New(cfg.Path)
	case "memory":
		return ldb.NewMemory()
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
