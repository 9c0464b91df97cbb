// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package schema

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// TypeID identifies an owning type.
type TypeID = uuid.UUID

// Type is an owning type whose field set is replaced at run time. Readers
// always observe one complete schema.
type Type struct {
	id   TypeID
	name string

	// installMu serializes installers; readers don't take it.
	installMu sync.Mutex
	active    atomic.Pointer[Schema]
}

func newType(id TypeID, name string) *Type {
	t := &Type{id: id, name: name}
	t.active.Store(Empty(0))
	return t
}

func (t *Type) ID() TypeID { return t.id }
func (t *Type) Name() string { return t.name }
func (t *Type) Schema() *Schema { return t.active.Load() }

// Fields returns the fields of the active schema in construction order.
func (t *Type) Fields() []*Field {
	s := t.active.Load()
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Install makes s the active schema and retires the previous one, which is
// returned. Fields of the previous schema must not be used to access storage
// after this returns; the caller reclaims the scratch region in bulk.
func (t *Type) Install(s *Schema) *Schema {
	t.installMu.Lock()
	defer t.installMu.Unlock()
	prev := t.active.Swap(s)
	if prev != s {
		prev.retire()
	}
	return prev
}

// retireActive detaches the active schema, leaving an empty one.
func (t *Type) retireActive() {
	t.Install(Empty(t.Schema().Generation() + 1))
}

// Registry maps type identities to types.
type Registry struct {
	types cmap.ConcurrentMap[TypeID, *Type]
}

func NewRegistry() *Registry {
	return &Registry{
		types: cmap.NewWithCustomShardingFunction[TypeID, *Type](func(id TypeID) uint32 {
			return binary.LittleEndian.Uint32(id[:4])
		}),
	}
}

// DefaultRegistry is used by components that aren't given a registry.
var DefaultRegistry = NewRegistry()

// Register creates a new type with a fresh identity.
func (r *Registry) Register(name string) *Type {
	t := newType(uuid.New(), name)
	r.types.Set(t.id, t)
	return t
}

func (r *Registry) Get(id TypeID) (*Type, bool) {
	return r.types.Get(id)
}

// Remove unregisters the type and retires its active schema.
func (r *Registry) Remove(id TypeID) bool {
	t, ok := r.types.Pop(id)
	if ok {
		t.retireActive()
	}
	return ok
}

func (r *Registry) Len() int { return r.types.Count() }
