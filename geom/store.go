// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package geom

import (
	"fmt"
	"slices"
	"sync"

	"honnef.co/go/dynfield/mesh"
)

// Source is where presented geometry comes from.
type Source uint8

const (
	SourceNone Source = iota
	SourceDefault
	SourceCooked
)

func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceDefault:
		return "default"
	case SourceCooked:
		return "cooked"
	default:
		return fmt.Sprintf("Source(%d)", uint8(s))
	}
}

// Snapshot is a consistent copy of a store's contents.
type Snapshot struct {
	State     State
	Source    Source
	Triangles []mesh.Triangle
	Bounds    mesh.Bounds
	// Version counts replacements of the cooked mesh.
	Version uint64
}

// Store holds the cooked mesh and the readiness state of one instance. A
// single mutex guards both, so the state never disagrees with the mesh it
// declares. The lock is per instance.
type Store struct {
	mu sync.Mutex

	machine Machine

	cooked       []mesh.Triangle
	cookedBounds mesh.Bounds
	hasCooked    bool
	version      uint64

	placeholder       []mesh.Triangle
	placeholderBounds mesh.Bounds
}

// NewStore returns a store in state None. placeholder is presented as the
// default geometry; it may be nil.
func NewStore(placeholder []mesh.Triangle) *Store {
	return &Store{
		placeholder:       placeholder,
		placeholderBounds: mesh.ComputeBounds(placeholder),
	}
}

// HasCookedGeometry implements Context. The caller must hold s.mu.
func (s *Store) HasCookedGeometry() bool { return s.hasCooked }

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Handle applies ev to the readiness state. Clearing the asset drops the
// cooked mesh. EventCooked can only be applied through Publish.
func (s *Store) Handle(ev Event) (State, error) {
	if ev == EventCooked {
		return s.State(), fmt.Errorf("%w: %s must be published with a mesh", ErrInvalidTransition, ev)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.machine.Handle(s, ev)
	if err != nil {
		return next, err
	}
	if next == StateNone && s.hasCooked {
		s.cooked = nil
		s.cookedBounds = mesh.Bounds{}
		s.hasCooked = false
		s.version++
	}
	return next, nil
}

// Replace swaps in a new cooked mesh without touching the readiness state.
func (s *Store) Replace(tris []mesh.Triangle, bounds mesh.Bounds) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(tris, bounds)
}

func (s *Store) replace(tris []mesh.Triangle, bounds mesh.Bounds) uint64 {
	s.cooked = slices.Clone(tris)
	s.cookedBounds = bounds
	s.hasCooked = true
	s.version++
	return s.version
}

// Publish replaces the cooked mesh and moves to UsePreviewGeometry in one
// step. It fails, without replacing anything, unless a cook is pending.
func (s *Store) Publish(tris []mesh.Triangle, bounds mesh.Bounds) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.machine.Next(s, EventCooked)
	if err != nil {
		return s.version, err
	}
	v := s.replace(tris, bounds)
	s.machine.state = next
	return v, nil
}

func (s *Store) source() Source {
	switch s.machine.State() {
	case StateNone:
		return SourceNone
	case StateUseDefaultGeometry:
		return SourceDefault
	case StateUsePreviewGeometry:
		return SourceCooked
	case StateWaitForAssetInstantiation, StateWaitForAssetCooking:
		if s.hasCooked {
			return SourceCooked
		}
		return SourceDefault
	default:
		panic("unreachable")
	}
}

// Snapshot returns a copy of the presented geometry.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:   s.machine.State(),
		Source:  s.source(),
		Version: s.version,
	}
	switch snap.Source {
	case SourceDefault:
		snap.Triangles = slices.Clone(s.placeholder)
		snap.Bounds = s.placeholderBounds
	case SourceCooked:
		snap.Triangles = slices.Clone(s.cooked)
		snap.Bounds = s.cookedBounds
	}
	return snap
}

// Presenting reports whether any geometry is currently presented.
func (s *Store) Presenting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.source() {
	case SourceDefault:
		return len(s.placeholder) > 0
	case SourceCooked:
		return len(s.cooked) > 0
	default:
		return false
	}
}
