// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mem

import (
	"cmp"
	"slices"
	"sort"

	"golang.org/x/exp/constraints"
)

// TreeMap is a sorted map backed by a slice. It is meant for small maps that
// are built once and then read many times.
type TreeMap[K constraints.Ordered, V any] struct {
	entries []treeMapEntry[K, V]
}

type treeMapEntry[K constraints.Ordered, V any] struct {
	key   K
	value V
}

func (m *TreeMap[K, V]) find(key K) (int, bool) {
	return sort.Find(len(m.entries), func(i int) int {
		return cmp.Compare(key, m.entries[i].key)
	})
}

// Insert sets key to value and reports whether the key was new.
func (m *TreeMap[K, V]) Insert(key K, value V) bool {
	idx, ok := m.find(key)
	if ok {
		m.entries[idx].value = value
		return false
	}
	m.entries = slices.Insert(m.entries, idx, treeMapEntry[K, V]{key, value})
	return true
}

func (m *TreeMap[K, V]) Get(key K) (V, bool) {
	if idx, ok := m.find(key); ok {
		return m.entries[idx].value, true
	} else {
		return *new(V), false
	}
}

func (m *TreeMap[K, V]) Len() int { return len(m.entries) }
