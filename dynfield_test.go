// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package dynfield

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honnef.co/go/dynfield/geom"
	"honnef.co/go/dynfield/jmath"
	"honnef.co/go/dynfield/mem"
	"honnef.co/go/dynfield/mesh"
	"honnef.co/go/dynfield/schema"
)

type fakeCooker struct {
	mu             sync.Mutex
	instantiateErr error
	cookErr        error
	instantiated   []Asset
	cooks          []CookRequest
}

func (f *fakeCooker) Instantiate(ctx context.Context, asset Asset, cb Callbacks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.instantiateErr != nil {
		return f.instantiateErr
	}
	f.instantiated = append(f.instantiated, asset)
	return nil
}

func (f *fakeCooker) Cook(ctx context.Context, req CookRequest, cb Callbacks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cookErr != nil {
		return f.cookErr
	}
	f.cooks = append(f.cooks, req)
	return nil
}

func (f *fakeCooker) lastCook(t *testing.T) CookRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.cooks, "no cook requested")
	return f.cooks[len(f.cooks)-1]
}

var triangle = mesh.Triangle{
	Vertices: [3]jmath.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
}

func scenarioParams() []schema.Parameter {
	return []schema.Parameter{
		schema.Int("Count", 1),
		schema.Color("Tint", [4]float32{1, 0.5, 0.25, 1}),
		schema.Float("Scale", 1, 2, 3),
	}
}

func newTestComponent(t *testing.T, mutate func(opts *Options)) (*Component, *fakeCooker) {
	t.Helper()
	fc := &fakeCooker{}
	opts := Options{
		Config:   DefaultConfig(),
		Cooker:   fc,
		Name:     t.Name(),
		Registry: schema.NewRegistry(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c, fc
}

// cook runs asset through instantiation and one full cook that produces
// params.
func cook(t *testing.T, c *Component, fc *fakeCooker, asset Asset, params []schema.Parameter) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.SetAsset(ctx, asset))
	require.Equal(t, geom.StateWaitForAssetInstantiation, c.State())
	c.OnInstantiated()
	c.Tick(ctx)
	require.Equal(t, geom.StateWaitForAssetCooking, c.State())
	req := fc.lastCook(t)
	require.False(t, req.Incremental())
	require.Equal(t, asset, req.Asset)
	c.OnCooked(CookResult{ID: req.ID, Parameters: params, Triangles: []mesh.Triangle{triangle}})
	c.Tick(ctx)
}

func fieldNames(t *testing.T, c *Component) []string {
	t.Helper()
	fields, err := c.Fields()
	require.NoError(t, err)
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

func TestNew(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrNoCooker)

	_, err = New(Options{Cooker: &fakeCooker{}, Config: Config{ScratchSize: 12, PlaceholderSize: 1, LogLevel: "info"}})
	assert.Error(t, err)

	c, _ := newTestComponent(t, nil)
	assert.Equal(t, geom.StateUseDefaultGeometry, c.State())
	snap := c.Snapshot()
	assert.Equal(t, geom.SourceDefault, snap.Source)
	assert.Len(t, snap.Triangles, 12)
	assert.Equal(t, 1, c.NumMaterials())
	assert.Empty(t, fieldNames(t, c))
}

func TestNativeComponentShowsNoDefaultGeometry(t *testing.T) {
	c, _ := newTestComponent(t, func(opts *Options) { opts.Native = true })
	assert.True(t, c.IsNative())
	assert.Equal(t, geom.StateNone, c.State())
	assert.Equal(t, 0, c.NumMaterials())
	assert.Empty(t, c.Triangles())
	require.NoError(t, c.SetAsset(context.Background(), ""))
	assert.Equal(t, geom.StateNone, c.State())
}

func TestLifecycle(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()

	require.NoError(t, c.SetAsset(ctx, "rock"))
	assert.Equal(t, []Asset{"rock"}, fc.instantiated)
	assert.Equal(t, geom.SourceDefault, c.Snapshot().Source)

	// Completions only apply on tick.
	c.OnInstantiated()
	assert.Equal(t, geom.StateWaitForAssetInstantiation, c.State())
	c.Tick(ctx)
	assert.Equal(t, geom.StateWaitForAssetCooking, c.State())

	req := fc.lastCook(t)
	c.OnCooked(CookResult{ID: req.ID, Parameters: scenarioParams(), Triangles: []mesh.Triangle{triangle}})
	c.Tick(ctx)

	assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
	snap := c.Snapshot()
	assert.Equal(t, geom.SourceCooked, snap.Source)
	assert.Equal(t, []mesh.Triangle{triangle}, snap.Triangles)
	assert.Equal(t, mesh.ComputeBounds([]mesh.Triangle{triangle}), c.Bounds())
	assert.NoError(t, c.LastError())

	assert.Equal(t, []string{"Count", "Tint", "Scale"}, fieldNames(t, c))
	scale, err := c.Field("Scale")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, scale.Floats)
	assert.EqualValues(t, 20, scale.Offset)
	tint, err := c.Field("Tint")
	require.NoError(t, err)
	assert.Equal(t, [4]float32{1, 0.5, 0.25, 1}, tint.Color(0))
	count, err := c.Field("Count")
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, count.Ints)

	s := c.Schema()
	assert.Same(t, s, c.Type().Schema())
	assert.Equal(t, 32, s.Used())

	// Setting the same asset again changes nothing.
	require.NoError(t, c.SetAsset(ctx, "rock"))
	assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
	assert.Len(t, fc.instantiated, 1)

	require.NoError(t, c.SetAsset(ctx, ""))
	assert.Equal(t, geom.StateUseDefaultGeometry, c.State())
	assert.True(t, s.Retired())
	assert.Empty(t, fieldNames(t, c))
	_, err = c.Field("Count")
	assert.ErrorIs(t, err, schema.ErrUnknownField)
	assert.Len(t, c.Triangles(), 12)
}

func TestEditAndRecook(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()
	cook(t, c, fc, "rock", scenarioParams())

	require.NoError(t, c.SetFloat("Scale", 1, 5))
	assert.Equal(t, 1, c.PendingChanges())
	// Writing the cooked value back undoes the edit.
	require.NoError(t, c.SetFloat("Scale", 1, 2))
	assert.Equal(t, 0, c.PendingChanges())

	require.NoError(t, c.SetFloat("Scale", 1, 5))
	require.NoError(t, c.SetColorRGBA("Tint", 0, [4]float32{0, 0, 1, 1}))
	assert.Equal(t, 2, c.PendingChanges())

	c.Tick(ctx)
	assert.Equal(t, geom.StateWaitForAssetCooking, c.State())
	assert.Equal(t, 0, c.PendingChanges())
	req := fc.lastCook(t)
	require.True(t, req.Incremental())
	require.Len(t, req.Values, 2)
	// Values come in field order.
	assert.Equal(t, "Tint", req.Values[0].Name)
	assert.Equal(t, [4]float32{0, 0, 1, 1}, req.Values[0].Color(0))
	assert.Equal(t, "Scale", req.Values[1].Name)
	assert.Equal(t, []float32{1, 5, 3}, req.Values[1].Floats)

	// The request holds copies, not views of the scratch region.
	require.NoError(t, c.SetFloat("Scale", 0, 9))
	assert.Equal(t, []float32{1, 5, 3}, req.Values[1].Floats)

	// The previous mesh stays visible while the recook is pending.
	assert.Equal(t, geom.SourceCooked, c.Snapshot().Source)

	params := []schema.Parameter{
		schema.Int("Count", 1),
		schema.Color("Tint", [4]float32{0, 0, 1, 1}),
		schema.Float("Scale", 9, 5, 3),
	}
	big := []mesh.Triangle{triangle, triangle}
	c.OnCooked(CookResult{ID: req.ID, Parameters: params, Triangles: big})
	c.Tick(ctx)
	assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
	assert.Len(t, c.Triangles(), 2)
	assert.Equal(t, 0, c.PendingChanges())
	scale, err := c.Field("Scale")
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 5, 3}, scale.Floats)
}

func TestRecookNotAccepted(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()
	cook(t, c, fc, "rock", scenarioParams())

	require.NoError(t, c.SetInt("Count", 0, 7))
	fc.cookErr = errors.New("busy")
	assert.Error(t, c.Recook(ctx))
	assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
	assert.Equal(t, 1, c.PendingChanges())

	fc.cookErr = nil
	c.Tick(ctx)
	assert.Equal(t, geom.StateWaitForAssetCooking, c.State())
	req := fc.lastCook(t)
	require.Len(t, req.Values, 1)
	assert.Equal(t, []int32{7}, req.Values[0].Ints)
}

func TestScratchExhaustionKeepsPreviousSchema(t *testing.T) {
	c, fc := newTestComponent(t, func(opts *Options) { opts.Config.ScratchSize = 16 })
	ctx := context.Background()
	cook(t, c, fc, "rock", []schema.Parameter{schema.Int("Count", 1), schema.Float("X", 2)})
	require.Equal(t, geom.StateUsePreviewGeometry, c.State())
	prev := c.Schema()

	require.NoError(t, c.SetInt("Count", 0, 3))
	c.Tick(ctx)
	req := fc.lastCook(t)
	c.OnCooked(CookResult{ID: req.ID, Parameters: scenarioParams(), Triangles: []mesh.Triangle{triangle, triangle}})
	fc.cookErr = errors.New("busy")
	c.Tick(ctx)

	err := c.LastError()
	assert.ErrorIs(t, err, ErrCookFailed)
	assert.ErrorIs(t, err, schema.ErrScratchSpaceExhausted)
	assert.ErrorIs(t, err, mem.ErrScratchSpaceExhausted)

	assert.Same(t, prev, c.Schema())
	assert.False(t, prev.Retired())
	assert.Equal(t, []string{"Count", "X"}, fieldNames(t, c))
	count, err := c.Field("Count")
	require.NoError(t, err)
	assert.Equal(t, []int32{3}, count.Ints)

	// The last cooked mesh is still presented and the edit waits for the
	// next recook.
	assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
	assert.Equal(t, 1, c.PendingChanges())
	snap := c.Snapshot()
	assert.Equal(t, geom.SourceCooked, snap.Source)
	assert.Len(t, snap.Triangles, 1)
}

func TestFirstCookExhaustsScratch(t *testing.T) {
	c, fc := newTestComponent(t, func(opts *Options) { opts.Config.ScratchSize = 16 })
	cook(t, c, fc, "rock", scenarioParams())

	assert.ErrorIs(t, c.LastError(), schema.ErrScratchSpaceExhausted)
	assert.Equal(t, geom.StateUseDefaultGeometry, c.State())
	assert.Empty(t, fieldNames(t, c))
	assert.Len(t, c.Triangles(), 12)
}

func TestRejectedParameters(t *testing.T) {
	params := []schema.Parameter{
		schema.Int("Count", 1),
		{Name: "Bad", Type: schema.ParamType(99), Count: 1},
		schema.Float("Count", 2),
		schema.Float("Scale", 3),
	}

	t.Run("partial", func(t *testing.T) {
		c, fc := newTestComponent(t, nil)
		cook(t, c, fc, "rock", params)
		assert.NoError(t, c.LastError())
		assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
		assert.Equal(t, []string{"Count", "Scale"}, fieldNames(t, c))
		scale, err := c.Field("Scale")
		require.NoError(t, err)
		assert.Equal(t, []float32{3}, scale.Floats)
	})

	t.Run("strict", func(t *testing.T) {
		c, fc := newTestComponent(t, func(opts *Options) { opts.Config.Strict = true })
		cook(t, c, fc, "rock", params)
		assert.ErrorIs(t, c.LastError(), ErrCookFailed)
		assert.ErrorIs(t, c.LastError(), schema.ErrUnsupportedParameterType)
		assert.Equal(t, geom.StateUseDefaultGeometry, c.State())
		assert.Empty(t, fieldNames(t, c))
	})
}

func TestCookFailed(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()
	require.NoError(t, c.SetAsset(ctx, "rock"))
	c.OnInstantiated()
	c.Tick(ctx)
	req := fc.lastCook(t)

	boom := errors.New("boom")
	c.OnCookFailed(req.ID, boom)
	c.Tick(ctx)
	assert.ErrorIs(t, c.LastError(), ErrCookFailed)
	assert.ErrorIs(t, c.LastError(), boom)
	assert.Equal(t, geom.StateUseDefaultGeometry, c.State())
}

func TestRecookAfterFailedCook(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()
	cook(t, c, fc, "rock", scenarioParams())

	require.NoError(t, c.SetInt("Count", 0, 2))
	c.Tick(ctx)
	require.Len(t, fc.cooks, 2)
	req := fc.lastCook(t)

	// The failed edit is sent again on the same tick.
	c.OnCookFailed(req.ID, errors.New("boom"))
	c.Tick(ctx)
	assert.ErrorIs(t, c.LastError(), ErrCookFailed)
	require.Len(t, fc.cooks, 3)
	req = fc.lastCook(t)
	require.True(t, req.Incremental())
	require.Len(t, req.Values, 1)
	assert.Equal(t, "Count", req.Values[0].Name)
	assert.Equal(t, []int32{2}, req.Values[0].Ints)
	assert.Equal(t, geom.StateWaitForAssetCooking, c.State())

	// With the cooker refusing the retry, the component presents the last
	// cooked mesh and keeps the edit.
	fc.cookErr = errors.New("busy")
	c.OnCookFailed(req.ID, errors.New("boom"))
	c.Tick(ctx)
	assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
	assert.Equal(t, []mesh.Triangle{triangle}, c.Triangles())
	assert.Equal(t, []string{"Count", "Tint", "Scale"}, fieldNames(t, c))
	assert.Equal(t, 1, c.PendingChanges())

	// Later edits are cooked as usual.
	fc.cookErr = nil
	require.NoError(t, c.SetInt("Count", 0, 5))
	c.Tick(ctx)
	require.Len(t, fc.cooks, 4)
	req = fc.lastCook(t)
	require.Len(t, req.Values, 1)
	assert.Equal(t, []int32{5}, req.Values[0].Ints)
	assert.Equal(t, geom.StateWaitForAssetCooking, c.State())

	c.OnCooked(CookResult{ID: req.ID, Parameters: []schema.Parameter{
		schema.Int("Count", 5),
		schema.Color("Tint", [4]float32{1, 0.5, 0.25, 1}),
		schema.Float("Scale", 1, 2, 3),
	}, Triangles: []mesh.Triangle{triangle, triangle}})
	c.Tick(ctx)
	assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
	assert.NoError(t, c.LastError())
	assert.Len(t, c.Triangles(), 2)
	assert.Equal(t, 0, c.PendingChanges())
}

func TestEditDuringCookSurvivesInstall(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()
	cook(t, c, fc, "rock", scenarioParams())

	require.NoError(t, c.SetFloat("Scale", 1, 5))
	c.Tick(ctx)
	req := fc.lastCook(t)
	require.Equal(t, 0, c.PendingChanges())

	// Edited while the cook is in flight.
	require.NoError(t, c.SetFloat("Scale", 0, 42))
	require.NoError(t, c.SetInt("Count", 0, 7))
	require.Equal(t, 2, c.PendingChanges())

	// The result no longer has Count.
	c.OnCooked(CookResult{ID: req.ID, Parameters: []schema.Parameter{
		schema.Color("Tint", [4]float32{1, 0.5, 0.25, 1}),
		schema.Float("Scale", 1, 5, 3),
	}, Triangles: []mesh.Triangle{triangle}})
	c.Tick(ctx)

	assert.Equal(t, []string{"Tint", "Scale"}, fieldNames(t, c))
	scale, err := c.Field("Scale")
	require.NoError(t, err)
	assert.Equal(t, []float32{42, 5, 3}, scale.Floats)

	require.Len(t, fc.cooks, 3)
	req = fc.lastCook(t)
	require.Len(t, req.Values, 1)
	assert.Equal(t, "Scale", req.Values[0].Name)
	assert.Equal(t, []float32{42, 5, 3}, req.Values[0].Floats)
	assert.Equal(t, geom.StateWaitForAssetCooking, c.State())
}

func TestEditMatchingCookResultIsNotResent(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()
	cook(t, c, fc, "rock", scenarioParams())

	require.NoError(t, c.SetInt("Count", 0, 2))
	c.Tick(ctx)
	req := fc.lastCook(t)
	require.NoError(t, c.SetInt("Count", 0, 4))

	params := scenarioParams()
	params[0] = schema.Int("Count", 4)
	c.OnCooked(CookResult{ID: req.ID, Parameters: params, Triangles: []mesh.Triangle{triangle}})
	c.Tick(ctx)

	assert.Equal(t, 0, c.PendingChanges())
	assert.Len(t, fc.cooks, 2)
	assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
}

func TestReturnToEarlierAssetDropsOldCooks(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()
	require.NoError(t, c.SetAsset(ctx, "rock"))
	c.OnInstantiated()
	c.Tick(ctx)
	req := fc.lastCook(t)

	require.NoError(t, c.SetAsset(ctx, "tree"))
	require.NoError(t, c.SetAsset(ctx, "rock"))
	require.Equal(t, geom.StateWaitForAssetInstantiation, c.State())
	prev := c.Schema()

	c.OnCooked(CookResult{ID: req.ID, Parameters: scenarioParams(), Triangles: []mesh.Triangle{triangle}})
	c.Tick(ctx)

	assert.Equal(t, geom.StateWaitForAssetInstantiation, c.State())
	assert.Same(t, prev, c.Schema())
	assert.Empty(t, fieldNames(t, c))
	assert.Equal(t, geom.SourceDefault, c.Snapshot().Source)
	assert.Equal(t, []Asset{"rock", "tree", "rock"}, fc.instantiated)
}

func TestStaleCookIsDropped(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()
	require.NoError(t, c.SetAsset(ctx, "rock"))
	c.OnInstantiated()
	c.Tick(ctx)
	req := fc.lastCook(t)

	require.NoError(t, c.SetAsset(ctx, "tree"))
	c.OnCooked(CookResult{ID: req.ID, Parameters: scenarioParams(), Triangles: []mesh.Triangle{triangle}})
	c.OnCookFailed(ulid.Make(), errors.New("unknown cook"))
	c.Tick(ctx)

	assert.Equal(t, geom.StateWaitForAssetInstantiation, c.State())
	assert.Empty(t, fieldNames(t, c))
	assert.NoError(t, c.LastError())
	assert.Equal(t, []Asset{"rock", "tree"}, fc.instantiated)
}

func TestInstantiationRetry(t *testing.T) {
	for _, native := range []bool{false, true} {
		c, fc := newTestComponent(t, func(opts *Options) { opts.Native = native })
		ctx := context.Background()

		fc.instantiateErr = errors.New("not ready")
		require.NoError(t, c.SetAsset(ctx, "rock"))
		if native {
			assert.Equal(t, geom.StateWaitForAssetInstantiation, c.State())
		} else {
			assert.Equal(t, geom.StateUseDefaultGeometry, c.State())
		}

		fc.instantiateErr = nil
		c.Tick(ctx)
		assert.Equal(t, geom.StateWaitForAssetInstantiation, c.State())
		assert.Equal(t, []Asset{"rock"}, fc.instantiated)

		// Only one retry is scheduled per failure.
		c.Tick(ctx)
		assert.Len(t, fc.instantiated, 1)
	}
}

func TestCallbacksFromOtherGoroutines(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	ctx := context.Background()
	require.NoError(t, c.SetAsset(ctx, "rock"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.OnInstantiated()
	}()
	wg.Wait()
	c.Tick(ctx)

	req := fc.lastCook(t)
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.OnCooked(CookResult{ID: req.ID, Parameters: scenarioParams(), Triangles: []mesh.Triangle{triangle}})
	}()
	wg.Wait()
	c.Tick(ctx)
	assert.Equal(t, geom.StateUsePreviewGeometry, c.State())
}

func TestSetterErrors(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	cook(t, c, fc, "rock", append(scenarioParams(), schema.Toggle("Flip", true, false)))

	assert.ErrorIs(t, c.SetInt("Scale", 0, 1), ErrTypeMismatch)
	assert.ErrorIs(t, c.SetFloat("Scale", 3, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, c.SetFloat("Scale", -1, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, c.SetToggle("Missing", 0, true), schema.ErrUnknownField)
	assert.ErrorIs(t, c.PostEditChange("Missing"), schema.ErrUnknownField)
	assert.Equal(t, 0, c.PendingChanges())

	flip, err := c.Field("Flip")
	require.NoError(t, err)
	assert.True(t, flip.Bool(0))
	assert.False(t, flip.Bool(1))
	require.NoError(t, c.SetToggle("Flip", 1, true))
	assert.True(t, flip.Bool(1))
	assert.Equal(t, 1, c.PendingChanges())
}

func TestHostWritesThroughViews(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	cook(t, c, fc, "rock", scenarioParams())

	count, err := c.Field("Count")
	require.NoError(t, err)
	count.Ints[0] = 42
	require.NoError(t, c.PostEditChange("Count"))
	assert.Equal(t, 1, c.PendingChanges())

	fields, err := c.Fields()
	require.NoError(t, err)
	assert.Equal(t, []int32{42}, fields[0].Ints)
}

func TestRestoreScratch(t *testing.T) {
	c, fc := newTestComponent(t, nil)
	cook(t, c, fc, "rock", scenarioParams())
	require.NoError(t, c.SetFloat("Scale", 2, 8))
	saved := c.ScratchBytes()

	c2, fc2 := newTestComponent(t, nil)
	cook(t, c2, fc2, "rock", scenarioParams())
	require.NoError(t, c2.RestoreScratch(saved))
	assert.Equal(t, 1, c2.PendingChanges())
	scale, err := c2.Field("Scale")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 8}, scale.Floats)

	c3, _ := newTestComponent(t, func(opts *Options) { opts.Config.ScratchSize = 128 })
	assert.ErrorIs(t, c3.RestoreScratch(saved), mem.ErrCapacityMismatch)
}

func TestDestroy(t *testing.T) {
	reg := schema.NewRegistry()
	c, fc := newTestComponent(t, func(opts *Options) { opts.Registry = reg })
	cook(t, c, fc, "rock", scenarioParams())
	s := c.Schema()
	require.Equal(t, 1, reg.Len())

	c.Destroy()
	assert.Equal(t, 0, reg.Len())
	assert.True(t, s.Retired())
	assert.Equal(t, geom.StateNone, c.State())

	_, err := c.Fields()
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.ErrorIs(t, c.SetAsset(context.Background(), "tree"), ErrDestroyed)
	assert.ErrorIs(t, c.Recook(context.Background()), ErrDestroyed)

	// Destroying twice is harmless.
	c.Destroy()
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte("scratch_size: 128\nstrict: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.ScratchSize)
	assert.True(t, cfg.Strict)
	assert.True(t, cfg.DefaultGeometry)
	assert.Equal(t, "info", cfg.LogLevel)

	cfg, err = ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = ParseConfig([]byte("scratch_size: 12\n"))
	assert.Error(t, err)
	_, err = ParseConfig([]byte("log_level: loud\n"))
	assert.Error(t, err)
	_, err = ParseConfig([]byte("scratch: 64\n"))
	assert.Error(t, err)
}
