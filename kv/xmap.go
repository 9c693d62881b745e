package kv

import (
	"github.com/puzpuzpuz/xsync/v3"
)

type XMap[K comparable, V any] struct {
	m *xsync.MapOf[K, V]
}

func NewXMap[K comparable, V any]() *XMap[K, V] {
	return &XMap[K, V]{m: xsync.NewMapOf[K, V]()}
}

var _ KVS[string, any] = (*XMap[string, any])(nil)

// Get implements KVS
func (m *XMap[K, V]) Get(key K) (V, bool) {
	return m.m.Load(key)
}

// Set implements KVS
func (m *XMap[K, V]) Set(key K, value V) {
	m.m.Store(key, value)
}

// LoadOrCompute returns the cached value or stores the result of compute.
func (m *XMap[K, V]) LoadOrCompute(key K, compute func() V) (V, bool) {
	return m.m.LoadOrCompute(key, compute)
}

func (m *XMap[K, V]) Range(f func(key K, value V) bool) {
	m.m.Range(f)
}

func (m *XMap[K, V]) Len() int {
	return m.m.Size()
}

func (m *XMap[K, V]) Close() {
	m.m.Clear()
}
