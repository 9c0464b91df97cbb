// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package schema

import (
	"fmt"
	"iter"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// ChangeTracker records which fields of one schema were edited since the
// last cook.
type ChangeTracker struct {
	mu     sync.Mutex
	schema *Schema
	set    *bitset.BitSet
}

func NewChangeTracker(s *Schema) *ChangeTracker {
	t := &ChangeTracker{}
	t.Reset(s)
	return t
}

// Reset binds the tracker to s and forgets all marks.
func (t *ChangeTracker) Reset(s *Schema) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.schema = s
	t.set = bitset.New(uint(s.Len()))
}

// MarkChanged adds f to the change set. Marking a field twice has no
// further effect.
func (t *ChangeTracker) MarkChanged(f *Field) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.schema.Owns(f) {
		return fmt.Errorf("%w: mark of %s", ErrStaleSchema, f.Name)
	}
	t.set.Set(uint(f.Index))
	return nil
}

// Unmark removes f from the change set, for edits that restored the cooked
// value.
func (t *ChangeTracker) Unmark(f *Field) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.schema.Owns(f) {
		t.set.Clear(uint(f.Index))
	}
}

func (t *ChangeTracker) IsChanged(f *Field) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.schema.Owns(f) && t.set.Test(uint(f.Index))
}

func (t *ChangeTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int(t.set.Count())
}

// Drain returns the current change set and clears it.
func (t *ChangeTracker) Drain() ChangeSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs := ChangeSet{schema: t.schema, set: t.set}
	t.set = bitset.New(uint(t.schema.Len()))
	return cs
}

// Restore merges a drained change set back into the tracker, for recook
// requests that weren't accepted. Sets drained from another schema are
// dropped.
func (t *ChangeTracker) Restore(cs ChangeSet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cs.schema != t.schema || cs.set == nil {
		return
	}
	t.set.InPlaceUnion(cs.set)
}

// ChangeSet is a set of fields of one schema.
type ChangeSet struct {
	schema *Schema
	set    *bitset.BitSet
}

func (cs ChangeSet) Len() int {
	if cs.set == nil {
		return 0
	}
	return int(cs.set.Count())
}

func (cs ChangeSet) Empty() bool { return cs.Len() == 0 }

func (cs ChangeSet) Schema() *Schema { return cs.schema }

func (cs ChangeSet) Has(f *Field) bool {
	return cs.set != nil && cs.schema.Owns(f) && cs.set.Test(uint(f.Index))
}

// Fields yields the changed fields in construction order.
func (cs ChangeSet) Fields() iter.Seq[*Field] {
	return func(yield func(*Field) bool) {
		if cs.set == nil {
			return
		}
		for i, ok := cs.set.NextSet(0); ok; i, ok = cs.set.NextSet(i + 1) {
			if !yield(cs.schema.fields[i]) {
				return
			}
		}
	}
}
