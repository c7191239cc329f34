package leveldb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/krazyTry/nft-amm-go/store"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// DB is a persistent store using LevelDB.
type DB struct {
	db *leveldb.DB
}

// Open creates or opens a LevelDB database at the specified path.
func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb store %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

func (l *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if l.db == nil {
		return nil, store.ErrDBClosed
	}
	value, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, store.ErrKeyNotFound
	}
	return value, err
}

func (l *DB) Write(ctx context.Context, key []byte, value []byte) error {
	if l.db == nil {
		return store.ErrDBClosed
	}
	return l.db.Put(key, value, &opt.WriteOptions{Sync: true})
}

func (l *DB) Delete(ctx context.Context, key []byte) error {
	if l.db == nil {
		return store.ErrDBClosed
	}
	return l.db.Delete(key, &opt.WriteOptions{Sync: true})
}

func (l *DB) Batch(ctx context.Context, ops []store.BatchOperation) error {
	if l.db == nil {
		return store.ErrDBClosed
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case store.BatchPut:
			batch.Put(op.Key, op.Value)
		case store.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("%w: %d", store.ErrUnknownBatchOp, op.Type)
		}
	}
	return l.db.Write(batch, &opt.WriteOptions{Sync: true})
}

func (l *DB) Iterator(ctx context.Context, start, end []byte) (store.Iterator, error) {
	if l.db == nil {
		return nil, store.ErrDBClosed
	}
	return &Iterator{iter: l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)}, nil
}

// Close closes the database connection.
func (l *DB) Close() error {
	if l.db == nil {
		return store.ErrDBClosed
	}
	err := l.db.Close()
	l.db = nil
	return err
}

type Iterator struct {
	iter iterator.Iterator
}

func (it *Iterator) Next() bool {
	return it.iter.Next()
}

func (it *Iterator) Key() []byte {
	return bytes.Clone(it.iter.Key())
}

func (it *Iterator) Value() []byte {
	return bytes.Clone(it.iter.Value())
}

func (it *Iterator) Error() error {
	return it.iter.Error()
}

func (it *Iterator) Close() error {
	it.iter.Release()
	return nil
}
