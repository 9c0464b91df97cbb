// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mem

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"honnef.co/go/dynfield/jmath"
	"honnef.co/go/safeish"
)

// ScratchMagic occupies the upper half of a scratch region's marker. The lower
// half holds the generation of the schema the region is laid out for.
const ScratchMagic uint64 = 0x48444153 << 32

var (
	ErrScratchSpaceExhausted = errors.New("scratch space exhausted")
	ErrCapacityMismatch      = errors.New("scratch capacity mismatch")
	ErrMarkerMismatch        = errors.New("scratch marker mismatch")
)

// Scratch is a fixed-capacity byte region with a single bump cursor. Storage
// is never freed piecemeal; the whole region is reclaimed by Reset or Commit.
//
// The backing store is allocated as 64-bit words so that every offset that is
// aligned relative to the region start is also aligned in memory.
type Scratch struct {
	marker uint64
	words  []uint64
	buf    []byte
	cursor int
}

func NewScratch(capacity int) *Scratch {
	if capacity <= 0 || capacity%8 != 0 || capacity > math.MaxInt32 {
		panic(fmt.Sprintf("invalid scratch capacity %d", capacity))
	}
	words := make([]uint64, capacity/8)
	return &Scratch{
		marker: ScratchMagic,
		words:  words,
		buf:    safeish.SliceCast[[]byte](words),
	}
}

func (s *Scratch) Cap() int { return len(s.buf) }
func (s *Scratch) Used() int { return s.cursor }
func (s *Scratch) Free() int { return len(s.buf) - s.cursor }
func (s *Scratch) Marker() uint64 { return s.marker }

func (s *Scratch) Generation() uint32 {
	return uint32(s.marker)
}

// Validate reports whether the region is laid out for the given generation.
func (s *Scratch) Validate(generation uint32) error {
	if s.marker&^math.MaxUint32 != ScratchMagic {
		return fmt.Errorf("%w: bad magic %#x", ErrMarkerMismatch, s.marker)
	}
	if uint32(s.marker) != generation {
		return fmt.Errorf("%w: region at generation %d, want %d", ErrMarkerMismatch, uint32(s.marker), generation)
	}
	return nil
}

// Reserve claims size bytes at the next offset aligned to align.
func (s *Scratch) Reserve(size, align int) (int32, error) {
	return reserve(&s.cursor, len(s.buf), size, align)
}

// Reset frees the whole region and zeroes it.
func (s *Scratch) Reset() {
	s.cursor = 0
	clear(s.words)
}

// Plan returns a detached cursor for laying out a new schema from offset zero.
// Nothing is claimed in the region until the layout is committed.
func (s *Scratch) Plan() Layout {
	return Layout{capacity: len(s.buf)}
}

// Commit replaces the region's contents with an empty region sized for l and
// stamps the marker with generation.
func (s *Scratch) Commit(l Layout, generation uint32) {
	if l.capacity != len(s.buf) {
		panic("committing layout planned for a different region")
	}
	s.Reset()
	s.cursor = l.cursor
	s.marker = ScratchMagic | uint64(generation)
}

func (s *Scratch) Bytes(off int32, size int) []byte {
	return s.buf[off : int(off)+size : int(off)+size]
}

// Snapshot returns a copy of the raw region, for persistence by the host.
func (s *Scratch) Snapshot() []byte {
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// Restore overwrites the region with data produced by Snapshot. The cursor
// and marker are left alone; the caller re-commits the matching layout first.
func (s *Scratch) Restore(data []byte) error {
	if len(data) != len(s.buf) {
		return fmt.Errorf("%w: have %d bytes, got %d", ErrCapacityMismatch, len(s.buf), len(data))
	}
	copy(s.buf, data)
	return nil
}

// View returns the n elements of type T stored at off.
func View[T any](s *Scratch, off int32, n int) []T {
	size := int(unsafe.Sizeof(*new(T)))
	return safeish.SliceCast[[]T](s.Bytes(off, n*size))
}

// Layout is a bump cursor that is not attached to any storage.
type Layout struct {
	capacity int
	cursor   int
}

func (l *Layout) Reserve(size, align int) (int32, error) {
	return reserve(&l.cursor, l.capacity, size, align)
}

func (l *Layout) Used() int { return l.cursor }
func (l *Layout) Cap() int { return l.capacity }

func reserve(cursor *int, capacity int, size, align int) (int32, error) {
	if !jmath.IsPow2(align) {
		panic(fmt.Sprintf("alignment %d isn't a power of two", align))
	}
	if size < 0 {
		panic(fmt.Sprintf("negative size %d", size))
	}
	off := jmath.AlignUp(*cursor, align)
	if off+size > capacity {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, capacity %d",
			ErrScratchSpaceExhausted, size, off, capacity)
	}
	*cursor = off + size
	return int32(off), nil
}
