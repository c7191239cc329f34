// Package backend opens a store.DB by backend name.
package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/krazyTry/nft-amm-go/store"
	"github.com/krazyTry/nft-amm-go/store/bbolt"
	"github.com/krazyTry/nft-amm-go/store/leveldb"
	"github.com/krazyTry/nft-amm-go/store/pebble"
)

const (
	Memory  = "memory"
	Pebble  = "pebble"
	Bbolt   = "bbolt"
	LevelDB = "leveldb"
)

// Names lists the supported backends.
var Names = []string{Memory, Pebble, Bbolt, LevelDB}

// Open opens the named backend rooted at path. The memory backend ignores
// path.
func Open(name, path string) (store.DB, error) {
	if name != Memory {
		if path == "" {
			return nil, fmt.Errorf("backend %s requires a path", name)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}
	}

	var (
		db  store.DB
		err error
	)
	switch name {
	case Memory:
		db = store.NewMemDB()
	case Pebble:
		db, err = openPebble(filepath.Join(path, "pebble"))
	case Bbolt:
		db, err = openBbolt(filepath.Join(path, "accounts.db"))
	case LevelDB:
		db, err = openLevelDB(filepath.Join(path, "leveldb"))
	default:
		return nil, fmt.Errorf("unknown store backend %q", name)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

func openPebble(dir string) (store.DB, error) {
	db, err := pebble.Open(dir, nil)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func openBbolt(path string) (store.DB, error) {
	db, err := bbolt.Open(path, bbolt.DefaultBucket)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func openLevelDB(dir string) (store.DB, error) {
	db, err := leveldb.Open(dir)
	if err != nil {
		return nil, err
	}
	return db, nil
}
