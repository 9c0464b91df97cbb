// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package dynfield

import (
	"bytes"
	"fmt"
	"slices"

	"honnef.co/go/color"

	"honnef.co/go/dynfield/gfx"
	"honnef.co/go/dynfield/mem"
	"honnef.co/go/dynfield/schema"
)

// FieldValue is a field together with its storage. Ints holds the values of
// int and toggle fields, Floats those of float fields and, four components
// per element, color fields. Both alias the component's scratch region:
// writes through them must be followed by PostEditChange.
type FieldValue struct {
	*schema.Field
	Ints   []int32
	Floats []float32
}

func (v FieldValue) Bool(i int) bool { return v.Ints[i] != 0 }

func (v FieldValue) Color(i int) [4]float32 {
	return [4]float32(v.Floats[i*4 : i*4+4])
}

func (v FieldValue) clone() FieldValue {
	v.Ints = slices.Clone(v.Ints)
	v.Floats = slices.Clone(v.Floats)
	return v
}

func (c *Component) view(f *schema.Field) FieldValue {
	v := FieldValue{Field: f}
	switch f.Type {
	case schema.ParamInt, schema.ParamToggle:
		v.Ints = mem.View[int32](c.scratch, f.Offset, f.Count)
	case schema.ParamFloat:
		v.Floats = mem.View[float32](c.scratch, f.Offset, f.Count)
	case schema.ParamColor:
		v.Floats = mem.View[float32](c.scratch, f.Offset, f.Count*4)
	default:
		panic(fmt.Sprintf("unhandled parameter type %s", f.Type))
	}
	return v
}

func (c *Component) populate(f *schema.Field, p *schema.Parameter) {
	v := c.view(f)
	switch f.Type {
	case schema.ParamInt:
		copy(v.Ints, p.Ints)
	case schema.ParamToggle:
		for i := range min(len(v.Ints), len(p.Ints)) {
			if p.Ints[i] != 0 {
				v.Ints[i] = 1
			}
		}
	case schema.ParamFloat, schema.ParamColor:
		copy(v.Floats, p.Floats)
	}
}

func (c *Component) activeSchema() (*schema.Schema, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	s := c.typ.Schema()
	if err := c.scratch.Validate(s.Generation()); err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrStaleSchema, err)
	}
	return s, nil
}

// Fields enumerates the installed fields with their current values, in
// construction order.
func (c *Component) Fields() ([]FieldValue, error) {
	s, err := c.activeSchema()
	if err != nil {
		return nil, err
	}
	out := make([]FieldValue, 0, s.Len())
	for f := range s.Fields() {
		out = append(out, c.view(f))
	}
	return out, nil
}

func (c *Component) Field(name string) (FieldValue, error) {
	s, err := c.activeSchema()
	if err != nil {
		return FieldValue{}, err
	}
	f, err := s.Lookup(name)
	if err != nil {
		return FieldValue{}, err
	}
	return c.view(f), nil
}

// PostEditChange must be called by the host after it modified the value of
// the named field. The field joins the change set if its value now differs
// from the last cooked value, and leaves it otherwise.
func (c *Component) PostEditChange(name string) error {
	v, err := c.Field(name)
	if err != nil {
		return err
	}
	if c.differsFromCooked(v.Field) {
		return c.changes.MarkChanged(v.Field)
	}
	c.changes.Unmark(v.Field)
	return nil
}

func (c *Component) differsFromCooked(f *schema.Field) bool {
	cur := c.scratch.Bytes(f.Offset, f.Size)
	if f.End() > len(c.cooked) {
		return true
	}
	return !bytes.Equal(cur, c.cooked[f.Offset:f.End()])
}

func (c *Component) editable(name string, typ schema.ParamType, idx int) (FieldValue, error) {
	v, err := c.Field(name)
	if err != nil {
		return FieldValue{}, err
	}
	if v.Type != typ {
		return FieldValue{}, fmt.Errorf("%w: %s is %s, not %s", ErrTypeMismatch, name, v.Type, typ)
	}
	if idx < 0 || idx >= v.Count {
		return FieldValue{}, fmt.Errorf("%w: %s[%d], length %d", ErrIndexOutOfRange, name, idx, v.Count)
	}
	return v, nil
}

func (c *Component) SetInt(name string, idx int, value int32) error {
	v, err := c.editable(name, schema.ParamInt, idx)
	if err != nil {
		return err
	}
	v.Ints[idx] = value
	return c.PostEditChange(name)
}

func (c *Component) SetFloat(name string, idx int, value float32) error {
	v, err := c.editable(name, schema.ParamFloat, idx)
	if err != nil {
		return err
	}
	v.Floats[idx] = value
	return c.PostEditChange(name)
}

func (c *Component) SetToggle(name string, idx int, value bool) error {
	v, err := c.editable(name, schema.ParamToggle, idx)
	if err != nil {
		return err
	}
	if value {
		v.Ints[idx] = 1
	} else {
		v.Ints[idx] = 0
	}
	return c.PostEditChange(name)
}

// SetColor stores col, converted to linear sRGB.
func (c *Component) SetColor(name string, idx int, col *color.Color) error {
	v, err := c.editable(name, schema.ParamColor, idx)
	if err != nil {
		return err
	}
	rgba := gfx.LinearRGBA(col)
	copy(v.Floats[idx*4:idx*4+4], rgba[:])
	return c.PostEditChange(name)
}

// SetColorRGBA stores straight linear RGBA components.
func (c *Component) SetColorRGBA(name string, idx int, rgba [4]float32) error {
	v, err := c.editable(name, schema.ParamColor, idx)
	if err != nil {
		return err
	}
	copy(v.Floats[idx*4:idx*4+4], rgba[:])
	return c.PostEditChange(name)
}
