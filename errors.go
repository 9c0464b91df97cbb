// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package dynfield

import "errors"

var (
	// ErrCookFailed wraps every reason a cook didn't produce new geometry,
	// including parameter lists that couldn't be laid out.
	ErrCookFailed      = errors.New("cook failed")
	ErrTypeMismatch    = errors.New("field type mismatch")
	ErrIndexOutOfRange = errors.New("element index out of range")
	ErrNoCooker        = errors.New("no cooker")
	ErrDestroyed       = errors.New("component destroyed")
)
