// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package mesh

import (
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/dynfield/jmath"
)

type Triangle struct {
	Vertices [3]jmath.Vec3
	Normals  [3]jmath.Vec3
	// Colors are straight linear RGBA.
	Colors [3][4]float32
	UVs    [3]curve.Point
}

// Bounds is a bounding box and the sphere enclosing it, plus the extent of
// the texture coordinates.
type Bounds struct {
	Box    jmath.Box
	Origin jmath.Vec3
	Extent jmath.Vec3
	Radius float32
	UV     curve.Rect
}

func (b Bounds) IsEmpty() bool { return !b.Box.Valid }

func ComputeBounds(tris []Triangle) Bounds {
	var box jmath.Box
	uv := curve.Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for i := range tris {
		tri := &tris[i]
		for j := range 3 {
			box = box.Extend(tri.Vertices[j])
			p := tri.UVs[j]
			uv.X0 = min(uv.X0, p.X)
			uv.Y0 = min(uv.Y0, p.Y)
			uv.X1 = max(uv.X1, p.X)
			uv.Y1 = max(uv.Y1, p.Y)
		}
	}
	if !box.Valid {
		return Bounds{}
	}
	ext := box.Extent()
	return Bounds{
		Box:    box,
		Origin: box.Center(),
		Extent: ext,
		Radius: ext.Length(),
		UV:     uv,
	}
}

// DefaultMesh returns the placeholder shown while no cooked geometry is
// available: a cube with the given edge length, centered on the origin.
func DefaultMesh(size float32) []Triangle {
	h := size / 2
	type face struct {
		normal jmath.Vec3
		// corners in counter-clockwise order when seen from outside
		corners [4]jmath.Vec3
	}
	faces := [6]face{
		{jmath.Vec3{X: 1}, [4]jmath.Vec3{{X: h, Y: -h, Z: -h}, {X: h, Y: h, Z: -h}, {X: h, Y: h, Z: h}, {X: h, Y: -h, Z: h}}},
		{jmath.Vec3{X: -1}, [4]jmath.Vec3{{X: -h, Y: h, Z: -h}, {X: -h, Y: -h, Z: -h}, {X: -h, Y: -h, Z: h}, {X: -h, Y: h, Z: h}}},
		{jmath.Vec3{Y: 1}, [4]jmath.Vec3{{X: h, Y: h, Z: -h}, {X: -h, Y: h, Z: -h}, {X: -h, Y: h, Z: h}, {X: h, Y: h, Z: h}}},
		{jmath.Vec3{Y: -1}, [4]jmath.Vec3{{X: -h, Y: -h, Z: -h}, {X: h, Y: -h, Z: -h}, {X: h, Y: -h, Z: h}, {X: -h, Y: -h, Z: h}}},
		{jmath.Vec3{Z: 1}, [4]jmath.Vec3{{X: -h, Y: -h, Z: h}, {X: h, Y: -h, Z: h}, {X: h, Y: h, Z: h}, {X: -h, Y: h, Z: h}}},
		{jmath.Vec3{Z: -1}, [4]jmath.Vec3{{X: -h, Y: h, Z: -h}, {X: h, Y: h, Z: -h}, {X: h, Y: -h, Z: -h}, {X: -h, Y: -h, Z: -h}}},
	}
	uvs := [4]curve.Point{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	white := [4]float32{1, 1, 1, 1}

	out := make([]Triangle, 0, 12)
	for _, f := range faces {
		for _, idx := range [2][3]int{{0, 1, 2}, {0, 2, 3}} {
			var tri Triangle
			for j, k := range idx {
				tri.Vertices[j] = f.corners[k]
				tri.Normals[j] = f.normal
				tri.Colors[j] = white
				tri.UVs[j] = uvs[k]
			}
			out = append(out, tri)
		}
	}
	return out
}
