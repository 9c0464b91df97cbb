// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package schema

import (
	"fmt"
	"iter"
	"sync/atomic"

	"honnef.co/go/dynfield/mem"
)

// Schema is the ordered set of fields laid out for one scratch generation.
type Schema struct {
	generation uint32
	fields     []*Field
	byName     mem.TreeMap[string, int]
	used       int
	retired    atomic.Bool
}

// Empty returns a schema without fields for the given generation.
func Empty(generation uint32) *Schema {
	return &Schema{generation: generation}
}

func (s *Schema) Generation() uint32 { return s.generation }
func (s *Schema) Len() int { return len(s.fields) }

// Used returns the number of scratch bytes claimed by the schema, including
// alignment padding.
func (s *Schema) Used() int { return s.used }

func (s *Schema) Retired() bool { return s.retired.Load() }

func (s *Schema) Field(i int) *Field { return s.fields[i] }

// Fields yields the fields in construction order.
func (s *Schema) Fields() iter.Seq[*Field] {
	return func(yield func(*Field) bool) {
		for _, f := range s.fields {
			if !yield(f) {
				return
			}
		}
	}
}

func (s *Schema) Lookup(name string) (*Field, error) {
	if s.Retired() {
		return nil, fmt.Errorf("%w: lookup of %q", ErrStaleSchema, name)
	}
	idx, ok := s.byName.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return s.fields[idx], nil
}

// Owns reports whether f is one of s's fields.
func (s *Schema) Owns(f *Field) bool {
	return f != nil && f.schema == s && f.Index < len(s.fields) && s.fields[f.Index] == f
}

// Check verifies the layout invariants against a region of the given
// capacity: every field is in bounds, aligned and disjoint from the others.
func (s *Schema) Check(capacity int) error {
	end := 0
	for _, f := range s.fields {
		if int(f.Offset)%f.Align != 0 {
			return fmt.Errorf("field %s: offset %d not aligned to %d", f.Name, f.Offset, f.Align)
		}
		if int(f.Offset) < end {
			return fmt.Errorf("field %s: offset %d overlaps previous field ending at %d", f.Name, f.Offset, end)
		}
		end = f.End()
		if end > capacity {
			return fmt.Errorf("field %s: ends at %d, capacity %d", f.Name, end, capacity)
		}
	}
	if s.byName.Len() != len(s.fields) {
		return fmt.Errorf("%d names for %d fields", s.byName.Len(), len(s.fields))
	}
	return nil
}

func (s *Schema) add(f *Field) error {
	if s.has(f.Name) {
		return fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
	}
	s.byName.Insert(f.Name, len(s.fields))
	f.Index = len(s.fields)
	f.schema = s
	s.fields = append(s.fields, f)
	return nil
}

func (s *Schema) has(name string) bool {
	_, ok := s.byName.Get(name)
	return ok
}

func (s *Schema) retire() {
	s.retired.Store(true)
}
