// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package schema

import (
	"errors"

	"honnef.co/go/dynfield/mem"
)

var (
	ErrUnsupportedParameterType = errors.New("unsupported parameter type")
	ErrInvalidElementCount      = errors.New("invalid element count")
	ErrDuplicateField           = errors.New("duplicate field name")
	ErrUnknownField             = errors.New("unknown field")
	ErrStaleSchema              = errors.New("field belongs to a retired schema")

	// ErrScratchSpaceExhausted is returned when a schema doesn't fit into the
	// scratch region.
	ErrScratchSpaceExhausted = mem.ErrScratchSpaceExhausted
)
