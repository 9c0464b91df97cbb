// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package schema

import (
	"fmt"
)

// Field describes one dynamically exposed field. Fields are immutable once
// their schema has been installed; a changed parameter produces a new Field.
type Field struct {
	Name  string
	Type  ParamType
	Count int
	// Offset is the byte offset of the field's storage from the start of the
	// scratch region.
	Offset int32
	Size   int
	Align  int
	// Index is the field's position in its schema's construction order.
	Index int
	// Param is the position of the parameter the field was built from in
	// the cook's parameter list.
	Param int
	// Struct describes the element type of aggregate fields and is shared
	// between all fields of the same type. It is nil for scalar types.
	Struct *StructInfo

	schema *Schema
}

// Slot is a region of scratch storage reserved for one field.
type Slot struct {
	Offset int32
	Size   int
}

// NewField builds the descriptor for p, stored in slot. The slot must have
// been reserved with the size and alignment reported by p.Layout.
func NewField(p Parameter, index int, slot Slot) (*Field, error) {
	size, align, err := p.Layout()
	if err != nil {
		return nil, err
	}
	if slot.Size != size || int(slot.Offset)%align != 0 {
		panic(fmt.Sprintf("slot %+v doesn't fit field %s (size %d, align %d)", slot, p.Name, size, align))
	}

	f := &Field{
		Name:   p.Name,
		Type:   p.Type,
		Count:  p.Count,
		Offset: slot.Offset,
		Size:   size,
		Align:  align,
		Index:  index,
	}
	if p.Type == ParamColor {
		f.Struct = ColorStruct()
	}
	return f, nil
}

func (f *Field) ElemSize() int { return f.Size / f.Count }

// End returns the offset one past the field's last byte.
func (f *Field) End() int { return int(f.Offset) + f.Size }

// Schema returns the schema f belongs to.
func (f *Field) Schema() *Schema { return f.schema }

func (f *Field) String() string {
	if f.Count == 1 {
		return fmt.Sprintf("%s %s @%d", f.Name, f.Type, f.Offset)
	}
	return fmt.Sprintf("%s %s[%d] @%d", f.Name, f.Type, f.Count, f.Offset)
}
