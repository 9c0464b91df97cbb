// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package schema

import "sync"

// StructInfo describes an aggregate element type.
type StructInfo struct {
	Name    string
	Size    int
	Align   int
	Members []Member
}

type Member struct {
	Name   string
	Type   ParamType
	Offset int
}

var (
	colorOnce   sync.Once
	colorStruct *StructInfo
)

// ColorStruct returns the aggregate shared by all color fields: four float32
// components in R, G, B, A order. It is built on first use.
func ColorStruct() *StructInfo {
	colorOnce.Do(func() {
		colorStruct = &StructInfo{
			Name:  "LinearColor",
			Size:  16,
			Align: 4,
			Members: []Member{
				{"R", ParamFloat, 0},
				{"G", ParamFloat, 4},
				{"B", ParamFloat, 8},
				{"A", ParamFloat, 12},
			},
		}
	})
	return colorStruct
}
