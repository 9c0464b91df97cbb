// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package schema turns the parameter lists produced by asset cooks into
// field descriptors laid out in an instance's scratch region, and publishes
// them on the owning type.
package schema

import (
	"fmt"
	"strings"
)

type ParamType uint8

const (
	ParamInt ParamType = iota + 1
	ParamFloat
	ParamToggle
	ParamColor
)

func (t ParamType) String() string {
	switch t {
	case ParamInt:
		return "int"
	case ParamFloat:
		return "float"
	case ParamToggle:
		return "toggle"
	case ParamColor:
		return "color"
	default:
		return fmt.Sprintf("ParamType(%d)", uint8(t))
	}
}

func ParseParamType(s string) (ParamType, error) {
	switch strings.ToLower(s) {
	case "int":
		return ParamInt, nil
	case "float":
		return ParamFloat, nil
	case "toggle":
		return ParamToggle, nil
	case "color":
		return ParamColor, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedParameterType, s)
	}
}

// ElemLayout returns the size and alignment of a single element of t.
// Toggles are stored as 32-bit integers.
func (t ParamType) ElemLayout() (size, align int, ok bool) {
	switch t {
	case ParamInt, ParamFloat, ParamToggle:
		return 4, 4, true
	case ParamColor:
		c := ColorStruct()
		return c.Size, c.Align, true
	default:
		return 0, 0, false
	}
}

// Parameter is one entry of a cook's parameter list. Int and toggle values
// live in Ints, float values in Floats, and color values in Floats as four
// components (R, G, B, A) per element. Missing values read as zero, extra
// values are ignored.
type Parameter struct {
	Name   string
	Type   ParamType
	Count  int
	Ints   []int32
	Floats []float32
}

// Layout returns the size and alignment of the storage p needs.
func (p *Parameter) Layout() (size, align int, err error) {
	elem, align, ok := p.Type.ElemLayout()
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s has type %s", ErrUnsupportedParameterType, p.Name, p.Type)
	}
	if p.Count <= 0 {
		return 0, 0, fmt.Errorf("%w: %s has %d elements", ErrInvalidElementCount, p.Name, p.Count)
	}
	return elem * p.Count, align, nil
}

func Int(name string, values ...int32) Parameter {
	return Parameter{Name: name, Type: ParamInt, Count: max(len(values), 1), Ints: values}
}

func Float(name string, values ...float32) Parameter {
	return Parameter{Name: name, Type: ParamFloat, Count: max(len(values), 1), Floats: values}
}

func Toggle(name string, values ...bool) Parameter {
	ints := make([]int32, len(values))
	for i, v := range values {
		if v {
			ints[i] = 1
		}
	}
	return Parameter{Name: name, Type: ParamToggle, Count: max(len(values), 1), Ints: ints}
}

func Color(name string, values ...[4]float32) Parameter {
	floats := make([]float32, 0, len(values)*4)
	for _, v := range values {
		floats = append(floats, v[:]...)
	}
	return Parameter{Name: name, Type: ParamColor, Count: max(len(values), 1), Floats: floats}
}
