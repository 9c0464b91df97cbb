// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package jmath

import (
	"math"

	"golang.org/x/exp/constraints"
)

// AlignUp rounds v up to the next multiple of alignment, which has to be a
// power of two.
func AlignUp[T constraints.Integer](v T, alignment T) T {
	return (v + alignment - 1) &^ (alignment - 1)
}

func IsPow2[T constraints.Integer](v T) bool {
	return v > 0 && v&(v-1) == 0
}

type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float32) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

func (v Vec3) Min(o Vec3) Vec3 {
	return Vec3{min(v.X, o.X), min(v.Y, o.Y), min(v.Z, o.Z)}
}

func (v Vec3) Max(o Vec3) Vec3 {
	return Vec3{max(v.X, o.X), max(v.Y, o.Y), max(v.Z, o.Z)}
}

func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Box is an axis-aligned bounding box. The zero value is an empty box.
type Box struct {
	Min, Max Vec3
	Valid    bool
}

func (b Box) Extend(p Vec3) Box {
	if !b.Valid {
		return Box{Min: p, Max: p, Valid: true}
	}
	return Box{Min: b.Min.Min(p), Max: b.Max.Max(p), Valid: true}
}

func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b Box) Extent() Vec3 {
	return b.Max.Sub(b.Min).Scale(0.5)
}
