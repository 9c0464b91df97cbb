// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package geom tracks which geometry a component may present and stores the
// cooked mesh behind a per-instance guard.
package geom

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid geometry state transition")

type State uint8

const (
	StateNone State = iota
	StateUseDefaultGeometry
	StateUsePreviewGeometry
	StateWaitForAssetInstantiation
	StateWaitForAssetCooking
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateUseDefaultGeometry:
		return "UseDefaultGeometry"
	case StateUsePreviewGeometry:
		return "UsePreviewGeometry"
	case StateWaitForAssetInstantiation:
		return "WaitForAssetInstantiation"
	case StateWaitForAssetCooking:
		return "WaitForAssetCooking"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

type Event uint8

const (
	// EventAssetSet: an asset reference was set and instantiation requested.
	EventAssetSet Event = iota + 1
	// EventUseDefault: no asset, or instantiation isn't available yet.
	EventUseDefault
	// EventInstantiated: instantiation finished and a cook was requested.
	EventInstantiated
	// EventCooked: a cook finished and its mesh was published.
	EventCooked
	// EventRecook: a new cook was requested for an already cooked asset.
	EventRecook
	// EventCookFailed: the pending cook failed.
	EventCookFailed
	// EventAssetCleared: the asset reference was cleared.
	EventAssetCleared
)

func (e Event) String() string {
	switch e {
	case EventAssetSet:
		return "AssetSet"
	case EventUseDefault:
		return "UseDefault"
	case EventInstantiated:
		return "Instantiated"
	case EventCooked:
		return "Cooked"
	case EventRecook:
		return "Recook"
	case EventCookFailed:
		return "CookFailed"
	case EventAssetCleared:
		return "AssetCleared"
	default:
		return fmt.Sprintf("Event(%d)", uint8(e))
	}
}

// Context is what guards may inspect.
type Context interface {
	HasCookedGeometry() bool
}

type GuardFunc func(ctx Context) bool

// anyState matches every source state.
const anyState State = 0xFF

type Transition struct {
	From  State
	Event Event
	To    State
	Guard GuardFunc // nil = always true
}

func hasCooked(ctx Context) bool { return ctx.HasCookedGeometry() }
func notCooked(ctx Context) bool { return !ctx.HasCookedGeometry() }

// Transitions are evaluated in order; the first match wins.
var Transitions = []Transition{
	{anyState, EventAssetCleared, StateNone, nil},

	{StateNone, EventAssetSet, StateWaitForAssetInstantiation, nil},
	{StateUseDefaultGeometry, EventAssetSet, StateWaitForAssetInstantiation, nil},
	{StateNone, EventUseDefault, StateUseDefaultGeometry, nil},
	{StateWaitForAssetInstantiation, EventUseDefault, StateUseDefaultGeometry, nil},

	{StateWaitForAssetInstantiation, EventInstantiated, StateWaitForAssetCooking, nil},
	{StateWaitForAssetCooking, EventCooked, StateUsePreviewGeometry, nil},
	{StateUsePreviewGeometry, EventRecook, StateWaitForAssetCooking, nil},

	// A failed cook returns to the last cooked mesh if there is one.
	{StateWaitForAssetCooking, EventCookFailed, StateUsePreviewGeometry, hasCooked},
	{StateWaitForAssetCooking, EventCookFailed, StateUseDefaultGeometry, notCooked},
}

// Machine is the geometry readiness state machine. It is not safe for
// concurrent use; Store guards it.
type Machine struct {
	state State
}

func (m *Machine) State() State { return m.state }

// Next returns the state ev leads to from the current state, without
// changing it.
func (m *Machine) Next(ctx Context, ev Event) (State, error) {
	for _, tr := range Transitions {
		if tr.Event != ev || (tr.From != anyState && tr.From != m.state) {
			continue
		}
		if tr.Guard == nil || tr.Guard(ctx) {
			return tr.To, nil
		}
	}
	return m.state, fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, ev, m.state)
}

// Handle applies ev. Illegal events leave the state unchanged.
func (m *Machine) Handle(ctx Context, ev Event) (State, error) {
	next, err := m.Next(ctx, ev)
	if err != nil {
		return m.state, err
	}
	m.state = next
	return next, nil
}
