// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package schema

import (
	"errors"
	"fmt"

	"honnef.co/go/dynfield/mem"
)

type BuildOptions struct {
	// Generation is stamped on the resulting schema.
	Generation uint32
	// Strict rejects the whole parameter list if any single parameter is
	// rejected. Otherwise, rejected parameters are skipped.
	Strict bool
}

type Rejection struct {
	Parameter string
	Err       error
}

type BuildReport struct {
	Rejected []Rejection
}

// Build lays out params in l, in order, and returns the resulting schema.
//
// Running out of space in l is always fatal. Parameters with an unsupported
// type, an invalid element count or a duplicate name are skipped and
// recorded in the report, unless opts.Strict is set.
func Build(params []Parameter, l *mem.Layout, opts BuildOptions) (*Schema, BuildReport, error) {
	var report BuildReport
	s := Empty(opts.Generation)

	reject := func(p *Parameter, err error) error {
		report.Rejected = append(report.Rejected, Rejection{p.Name, err})
		if opts.Strict {
			return fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		return nil
	}

	for i := range params {
		p := &params[i]
		size, align, err := p.Layout()
		if err != nil {
			if err := reject(p, err); err != nil {
				return nil, report, err
			}
			continue
		}
		if s.has(p.Name) {
			if err := reject(p, fmt.Errorf("%w: %q", ErrDuplicateField, p.Name)); err != nil {
				return nil, report, err
			}
			continue
		}

		off, err := l.Reserve(size, align)
		if err != nil {
			return nil, report, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		f, err := NewField(*p, s.Len(), Slot{Offset: off, Size: size})
		if err != nil {
			// Layout succeeded, so the factory has no reason to fail.
			panic(fmt.Sprintf("unexpected factory error: %s", err))
		}
		f.Param = i
		if err := s.add(f); err != nil {
			panic(err)
		}
	}
	s.used = l.Used()

	if err := s.Check(l.Cap()); err != nil {
		panic(fmt.Sprintf("built invalid schema: %s", err))
	}
	return s, report, nil
}

// IsRejection reports whether err is a per-parameter rejection, as opposed to
// running out of scratch space.
func IsRejection(err error) bool {
	return errors.Is(err, ErrUnsupportedParameterType) ||
		errors.Is(err, ErrInvalidElementCount) ||
		errors.Is(err, ErrDuplicateField)
}
