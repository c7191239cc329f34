package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemDB is an in-memory DB for tests and simulations.
type MemDB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemDB() *MemDB {
	return &MemDB{data: make(map[string][]byte)}
}

func (m *MemDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrDBClosed
	}
	value, ok := m.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(value), nil
}

func (m *MemDB) Write(ctx context.Context, key []byte, value []byte) error {
	return m.Batch(ctx, []BatchOperation{{Type: BatchPut, Key: key, Value: value}})
}

func (m *MemDB) Delete(ctx context.Context, key []byte) error {
	return m.Batch(ctx, []BatchOperation{{Type: BatchDelete, Key: key}})
}

func (m *MemDB) Batch(ctx context.Context, ops []BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrDBClosed
	}
	for _, op := range ops {
		if op.Type != BatchPut && op.Type != BatchDelete {
			return fmt.Errorf("%w: %d", ErrUnknownBatchOp, op.Type)
		}
	}
	for _, op := range ops {
		if op.Type == BatchPut {
			m.data[string(op.Key)] = bytes.Clone(op.Value)
		} else {
			delete(m.data, string(op.Key))
		}
	}
	return nil
}

func (m *MemDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrDBClosed
	}

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if start != nil && k < string(start) {
			continue
		}
		if end != nil && k >= string(end) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	it := &memIterator{pos: -1, keys: keys, values: make([][]byte, len(keys))}
	for i, k := range keys {
		it.values[i] = bytes.Clone(m.data[k])
	}
	return it, nil
}

func (m *MemDB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Len is the number of stored keys.
func (m *MemDB) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

type memIterator struct {
	pos    int
	keys   []string
	values [][]byte
}

func (it *memIterator) Next() bool {
	if it.pos+1 >= len(it.keys) {
		it.pos = len(it.keys)
		return false
	}
	it.pos++
	return true
}

func (it *memIterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return nil
	}
	return []byte(it.keys[it.pos])
}

func (it *memIterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return nil
	}
	return it.values[it.pos]
}

func (it *memIterator) Error() error { return nil }

func (it *memIterator) Close() error { return nil }
