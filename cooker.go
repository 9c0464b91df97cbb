// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package dynfield

import (
	"context"

	"github.com/oklog/ulid/v2"

	"honnef.co/go/dynfield/mesh"
	"honnef.co/go/dynfield/schema"
)

// Asset identifies an asset that can be instantiated and cooked. The empty
// asset means no asset.
type Asset string

// CookRequest asks for a cook of Asset. Changes holds the fields edited since
// the previous cook, Values their current values; both are empty for a full
// cook.
type CookRequest struct {
	ID      ulid.ULID
	Asset   Asset
	Changes schema.ChangeSet
	Values  []FieldValue
}

func (req CookRequest) Incremental() bool { return !req.Changes.Empty() }

type CookResult struct {
	ID         ulid.ULID
	Parameters []schema.Parameter
	Triangles  []mesh.Triangle
	// Bounds is computed from Triangles if nil.
	Bounds *mesh.Bounds
}

// Callbacks receive completions from a Cooker. They may be called from any
// goroutine; the component applies them on its next tick, in order.
type Callbacks interface {
	OnInstantiated()
	OnCooked(res CookResult)
	OnCookFailed(id ulid.ULID, reason error)
}

// Cooker instantiates and cooks assets asynchronously. A returned error
// means the request wasn't accepted and no callback will follow.
type Cooker interface {
	Instantiate(ctx context.Context, asset Asset, cb Callbacks) error
	Cook(ctx context.Context, req CookRequest, cb Callbacks) error
}
