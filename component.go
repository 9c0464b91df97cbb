// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package dynfield

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"honnef.co/go/dynfield/geom"
	"honnef.co/go/dynfield/mem"
	"honnef.co/go/dynfield/mesh"
	"honnef.co/go/dynfield/schema"
)

type Options struct {
	Config Config
	Cooker Cooker
	// Name of the component's type. Each component gets its own type.
	Name string
	// Registry the component's type is registered in. Defaults to
	// schema.DefaultRegistry.
	Registry *schema.Registry
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// Native components were placed by the user, as opposed to being created
	// for previews. They never show default geometry.
	Native bool
}

type completionKind uint8

const (
	completionInstantiated completionKind = iota + 1
	completionCooked
	completionCookFailed
)

type completion struct {
	kind   completionKind
	result CookResult
	id     ulid.ULID
	err    error
}

// Component is an instance whose field set is defined by the most recent
// cook of its asset.
//
// All methods except the Callbacks and the geometry accessors (State,
// Snapshot, Triangles, Bounds, NumMaterials) must be called from the
// goroutine that ticks the component. Completions delivered through the
// Callbacks are applied by Tick, one at a time and in arrival order.
type Component struct {
	cfg      Config
	cooker   Cooker
	registry *schema.Registry
	typ      *schema.Type
	log      zerolog.Logger
	native   bool

	scratch *mem.Scratch
	// cooked is the used part of the scratch region as of the last install,
	// for telling edits from no-op writes.
	cooked     []byte
	changes    *schema.ChangeTracker
	generation uint32

	geometry *geom.Store

	asset Asset
	// epoch advances whenever the asset changes. Cook requests remember the
	// epoch they were made in.
	epoch uint64
	// retryInstantiate is set when the cooker didn't accept an
	// instantiation request; Tick retries it.
	retryInstantiate option[Asset]
	inflight         map[ulid.ULID]uint64
	lastErr          error
	destroyed        bool

	queueMu sync.Mutex
	queue   []completion
}

var _ Callbacks = (*Component)(nil)

func New(opts Options) (*Component, error) {
	if opts.Cooker == nil {
		return nil, ErrNoCooker
	}
	cfg := opts.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg := opts.Registry
	if reg == nil {
		reg = schema.DefaultRegistry
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	typ := reg.Register(opts.Name)
	var placeholder []mesh.Triangle
	if cfg.DefaultGeometry && !opts.Native {
		placeholder = mesh.DefaultMesh(cfg.PlaceholderSize)
	}

	c := &Component{
		cfg:      cfg,
		cooker:   opts.Cooker,
		registry: reg,
		typ:      typ,
		log:      log.With().Str("component", typ.ID().String()).Str("type", opts.Name).Logger(),
		native:   opts.Native,
		scratch:  mem.NewScratch(cfg.ScratchSize),
		changes:  schema.NewChangeTracker(typ.Schema()),
		geometry: geom.NewStore(placeholder),
		inflight: make(map[ulid.ULID]uint64),
	}
	c.scratch.Commit(c.scratch.Plan(), typ.Schema().Generation())
	c.showDefault()
	return c, nil
}

func (c *Component) Type() *schema.Type     { return c.typ }
func (c *Component) Schema() *schema.Schema { return c.typ.Schema() }
func (c *Component) Asset() Asset           { return c.asset }
func (c *Component) IsNative() bool         { return c.native }

// LastError returns the reason the most recent cook failed, wrapped in
// ErrCookFailed, or nil if it succeeded.
func (c *Component) LastError() error { return c.lastErr }

// PendingChanges returns the number of fields edited since the last cook
// request.
func (c *Component) PendingChanges() int { return c.changes.Len() }

func (c *Component) showDefault() {
	if c.native || !c.cfg.DefaultGeometry {
		return
	}
	if _, err := c.geometry.Handle(geom.EventUseDefault); err != nil {
		c.log.Debug().Err(err).Msg("not switching to default geometry")
	}
}

// SetAsset changes the component's asset and requests its instantiation.
// Setting the empty asset clears the component.
func (c *Component) SetAsset(ctx context.Context, asset Asset) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if asset == c.asset {
		return nil
	}
	c.log.Info().Str("old", string(c.asset)).Str("new", string(asset)).Msg("changing asset")

	c.asset = asset
	c.epoch++
	c.retryInstantiate.clear()
	c.lastErr = nil
	c.retire()
	if _, err := c.geometry.Handle(geom.EventAssetCleared); err != nil {
		panic(err)
	}
	if asset == "" {
		c.showDefault()
		return nil
	}
	c.instantiate(ctx, asset)
	return nil
}

func (c *Component) instantiate(ctx context.Context, asset Asset) {
	if c.geometry.State() != geom.StateWaitForAssetInstantiation {
		if _, err := c.geometry.Handle(geom.EventAssetSet); err != nil {
			c.log.Warn().Err(err).Msg("can't instantiate in current geometry state")
			return
		}
	}
	if err := c.cooker.Instantiate(ctx, asset, c); err != nil {
		c.log.Warn().Err(err).Str("asset", string(asset)).Msg("instantiation not available, will retry")
		c.retryInstantiate.set(asset)
		if !c.native && c.cfg.DefaultGeometry {
			c.geometry.Handle(geom.EventUseDefault)
		}
	}
}

// retire detaches the installed schema and reclaims the scratch region.
func (c *Component) retire() {
	c.generation++
	empty := schema.Empty(c.generation)
	c.typ.Install(empty)
	c.scratch.Commit(c.scratch.Plan(), empty.Generation())
	c.cooked = nil
	c.changes.Reset(empty)
}

// OnInstantiated implements Callbacks.
func (c *Component) OnInstantiated() {
	c.enqueue(completion{kind: completionInstantiated})
}

// OnCooked implements Callbacks.
func (c *Component) OnCooked(res CookResult) {
	c.enqueue(completion{kind: completionCooked, result: res, id: res.ID})
}

// OnCookFailed implements Callbacks.
func (c *Component) OnCookFailed(id ulid.ULID, reason error) {
	c.enqueue(completion{kind: completionCookFailed, id: id, err: reason})
}

func (c *Component) enqueue(cpl completion) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.queue = append(c.queue, cpl)
}

func (c *Component) dequeue() []completion {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	q := c.queue
	c.queue = nil
	return q
}

// Tick applies pending completions, retries instantiation if it wasn't
// available and requests a recook if fields were edited.
func (c *Component) Tick(ctx context.Context) {
	if c.destroyed {
		return
	}
	for _, cpl := range c.dequeue() {
		switch cpl.kind {
		case completionInstantiated:
			c.applyInstantiated(ctx)
		case completionCooked:
			c.applyCooked(cpl.result)
		case completionCookFailed:
			c.applyCookFailed(cpl.id, cpl.err)
		default:
			panic(fmt.Sprintf("unhandled completion kind %d", cpl.kind))
		}
	}

	if retry := c.retryInstantiate.take(); retry.isSet && retry.value == c.asset {
		c.instantiate(ctx, retry.value)
	}

	if c.geometry.State() == geom.StateUsePreviewGeometry && c.changes.Len() > 0 {
		c.Recook(ctx)
	}
}

func (c *Component) applyInstantiated(ctx context.Context) {
	if _, err := c.geometry.Handle(geom.EventInstantiated); err != nil {
		c.log.Debug().Err(err).Msg("ignoring stale instantiation")
		return
	}
	c.log.Debug().Msg("asset instantiated")
	if err := c.requestCook(ctx, schema.ChangeSet{}); err != nil {
		c.failCook(err)
	}
}

// Recook requests a cook with the fields edited since the last request. It
// is a no-op unless cooked geometry is presented.
func (c *Component) Recook(ctx context.Context) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if c.geometry.State() != geom.StateUsePreviewGeometry {
		return nil
	}
	changes := c.changes.Drain()
	if err := c.requestCook(ctx, changes); err != nil {
		c.changes.Restore(changes)
		c.log.Warn().Err(err).Msg("recook not accepted")
		return err
	}
	if _, err := c.geometry.Handle(geom.EventRecook); err != nil {
		panic(err)
	}
	return nil
}

func (c *Component) requestCook(ctx context.Context, changes schema.ChangeSet) error {
	req := CookRequest{
		ID:      ulid.Make(),
		Asset:   c.asset,
		Changes: changes,
	}
	for f := range changes.Fields() {
		req.Values = append(req.Values, c.view(f).clone())
	}
	c.inflight[req.ID] = c.epoch
	if err := c.cooker.Cook(ctx, req, c); err != nil {
		delete(c.inflight, req.ID)
		return err
	}
	c.log.Debug().Stringer("cook", req.ID).Int("changes", changes.Len()).Msg("cook requested")
	return nil
}

// stale reports whether the cook identified by id was requested before the
// asset last changed.
func (c *Component) stale(id ulid.ULID) bool {
	epoch, ok := c.inflight[id]
	delete(c.inflight, id)
	return !ok || epoch != c.epoch
}

func (c *Component) applyCooked(res CookResult) {
	log := c.log.With().Stringer("cook", res.ID).Logger()
	if c.stale(res.ID) {
		log.Debug().Msg("dropping cook of previous asset")
		return
	}
	switch st := c.geometry.State(); st {
	case geom.StateWaitForAssetCooking, geom.StateUsePreviewGeometry:
	default:
		log.Warn().Stringer("state", st).Msg("dropping cook that can't be published")
		return
	}

	if err := c.install(res.Parameters, log); err != nil {
		c.failCook(err)
		return
	}

	bounds := mesh.ComputeBounds(res.Triangles)
	if res.Bounds != nil {
		bounds = *res.Bounds
	}
	if c.geometry.State() == geom.StateUsePreviewGeometry {
		// An earlier cook of the same asset finished first.
		c.geometry.Replace(res.Triangles, bounds)
	} else if _, err := c.geometry.Publish(res.Triangles, bounds); err != nil {
		panic(err)
	}
	c.lastErr = nil
	log.Info().Int("triangles", len(res.Triangles)).Int("fields", c.typ.Schema().Len()).Msg("cook applied")
}

// install lays out params and makes them the component's fields. On failure,
// the previous schema and its scratch contents stay in place. Edits that
// haven't been sent to the cooker yet carry over to fields of the new schema
// with the same name, type and count.
func (c *Component) install(params []schema.Parameter, log zerolog.Logger) error {
	layout := c.scratch.Plan()
	s, report, err := schema.Build(params, &layout, schema.BuildOptions{
		Generation: c.generation + 1,
		Strict:     c.cfg.Strict,
	})
	for _, r := range report.Rejected {
		log.Warn().Str("parameter", r.Parameter).Err(r.Err).Msg("rejected parameter")
	}
	if err != nil {
		return err
	}

	var pending []FieldValue
	for f := range c.typ.Schema().Fields() {
		if c.changes.IsChanged(f) {
			pending = append(pending, c.view(f).clone())
		}
	}

	c.generation = s.Generation()
	c.typ.Install(s)
	c.scratch.Commit(layout, s.Generation())
	for f := range s.Fields() {
		c.populate(f, &params[f.Param])
	}
	c.cooked = c.scratch.Snapshot()[:s.Used()]
	c.changes.Reset(s)

	for _, v := range pending {
		f, err := s.Lookup(v.Name)
		if err != nil || f.Type != v.Type || f.Count != v.Count {
			log.Debug().Str("field", v.Name).Msg("discarding edit of field that changed shape")
			continue
		}
		dst := c.view(f)
		copy(dst.Ints, v.Ints)
		copy(dst.Floats, v.Floats)
		if c.differsFromCooked(f) {
			if err := c.changes.MarkChanged(f); err != nil {
				panic(err)
			}
		}
	}
	log.Debug().Int("fields", s.Len()).Int("used", s.Used()).Int("capacity", c.scratch.Cap()).Msg("installed schema")
	return nil
}

func (c *Component) applyCookFailed(id ulid.ULID, reason error) {
	if c.stale(id) {
		c.log.Debug().Stringer("cook", id).Msg("dropping failure of previous asset")
		return
	}
	c.failCook(reason)
}

func (c *Component) failCook(reason error) {
	if reason == nil {
		reason = errors.New("unknown reason")
	}
	c.lastErr = fmt.Errorf("%w: %w", ErrCookFailed, reason)
	c.log.Warn().Err(reason).Msg("cook failed")
	if err := c.markEdited(c.typ.Schema()); err != nil {
		panic(err)
	}
	if _, err := c.geometry.Handle(geom.EventCookFailed); err != nil {
		c.log.Debug().Err(err).Msg("cook failure in unexpected geometry state")
	}
}

// State returns the geometry readiness state.
func (c *Component) State() geom.State { return c.geometry.State() }

// Snapshot returns a consistent copy of the presented geometry.
func (c *Component) Snapshot() geom.Snapshot { return c.geometry.Snapshot() }

func (c *Component) Triangles() []mesh.Triangle { return c.geometry.Snapshot().Triangles }
func (c *Component) Bounds() mesh.Bounds        { return c.geometry.Snapshot().Bounds }

func (c *Component) NumMaterials() int {
	if c.geometry.Presenting() {
		return 1
	}
	return 0
}

// ScratchBytes returns a copy of the scratch region for persistence.
func (c *Component) ScratchBytes() []byte { return c.scratch.Snapshot() }

// RestoreScratch loads bytes produced by ScratchBytes into the scratch
// region, which must have the same capacity. Fields whose restored values
// differ from the cooked ones join the change set.
func (c *Component) RestoreScratch(data []byte) error {
	s, err := c.activeSchema()
	if err != nil {
		return err
	}
	if err := c.scratch.Restore(data); err != nil {
		return err
	}
	return c.markEdited(s)
}

// markEdited adds the fields of s whose values differ from the cooked ones to
// the change set.
func (c *Component) markEdited(s *schema.Schema) error {
	for f := range s.Fields() {
		if c.differsFromCooked(f) {
			if err := c.changes.MarkChanged(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Destroy retires the component's type and schema. The component can't be
// used afterwards.
func (c *Component) Destroy() {
	if c.destroyed {
		return
	}
	c.geometry.Handle(geom.EventAssetCleared)
	c.registry.Remove(c.typ.ID())
	c.scratch.Reset()
	c.cooked = nil
	c.changes.Reset(c.typ.Schema())
	clear(c.inflight)
	c.destroyed = true
	c.log.Debug().Msg("destroyed")
}
