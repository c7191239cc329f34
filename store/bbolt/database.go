package bbolt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/krazyTry/nft-amm-go/store"
	"go.etcd.io/bbolt"
)

// DefaultBucket holds program accounts.
var DefaultBucket = []byte("accounts")

type DB struct {
	db     *bbolt.DB
	bucket []byte
}

// Open opens or creates a bbolt file at path with bucket ready for use.
func Open(path string, bucket []byte) (*DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt store %s: %w", path, err)
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", string(bucket), err)
	}
	return NewDB(db, bucket), nil
}

func NewDB(db *bbolt.DB, bucket []byte) *DB {
	return &DB{
		db:     db,
		bucket: bucket,
	}
}

func (b *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if b.db == nil {
		return nil, store.ErrDBClosed
	}

	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", string(b.bucket))
		}

		v := bucket.Get(key)
		if v == nil {
			return store.ErrKeyNotFound
		}
		// bbolt values are only valid during the transaction
		value = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *DB) Write(ctx context.Context, key []byte, value []byte) error {
	return b.Batch(ctx, []store.BatchOperation{{Type: store.BatchPut, Key: key, Value: value}})
}

func (b *DB) Delete(ctx context.Context, key []byte) error {
	return b.Batch(ctx, []store.BatchOperation{{Type: store.BatchDelete, Key: key}})
}

func (b *DB) Batch(ctx context.Context, ops []store.BatchOperation) error {
	if b.db == nil {
		return store.ErrDBClosed
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", string(b.bucket))
		}

		for _, op := range ops {
			var err error
			switch op.Type {
			case store.BatchPut:
				err = bucket.Put(op.Key, op.Value)
			case store.BatchDelete:
				err = bucket.Delete(op.Key)
			default:
				return fmt.Errorf("%w: %d", store.ErrUnknownBatchOp, op.Type)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *DB) Close() error {
	if b.db == nil {
		return store.ErrDBClosed
	}
	err := b.db.Close()
	b.db = nil
	return err
}

type Iterator struct {
	tx      *bbolt.Tx
	cursor  *bbolt.Cursor
	current struct {
		key, value []byte
	}
	start, end []byte
	started    bool
}

func (b *DB) Iterator(ctx context.Context, start, end []byte) (store.Iterator, error) {
	if b.db == nil {
		return nil, store.ErrDBClosed
	}

	tx, err := b.db.Begin(false) // Read-only transaction
	if err != nil {
		return nil, err
	}

	bucket := tx.Bucket(b.bucket)
	if bucket == nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("bucket %s not found", string(b.bucket))
	}

	return &Iterator{
		tx:     tx,
		cursor: bucket.Cursor(),
		start:  start,
		end:    end,
	}, nil
}

func (it *Iterator) Next() bool {
	var k, v []byte
	if !it.started {
		it.started = true
		if it.start == nil {
			k, v = it.cursor.First()
		} else {
			k, v = it.cursor.Seek(it.start)
		}
	} else {
		k, v = it.cursor.Next()
	}

	if k == nil || (it.end != nil && bytes.Compare(k, it.end) >= 0) {
		it.current.key = nil
		it.current.value = nil
		return false
	}

	it.current.key = bytes.Clone(k)
	it.current.value = bytes.Clone(v)
	return true
}

func (it *Iterator) Key() []byte {
	return it.current.key
}

func (it *Iterator) Value() []byte {
	return it.current.value
}

func (it *Iterator) Error() error {
	return nil
}

func (it *Iterator) Close() error {
	return it.tx.Rollback()
}
