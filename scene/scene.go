// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Package scene declares the upstream scene evaluator interface the engine
// consumes. The evaluator itself - a lazily evaluated, lookaside-cached
// procedural scene graph - is an external collaborator (spec §1's "scene
// evaluator") and is deliberately not implemented here; scenetest provides
// a fixture implementation for tests.
package scene

import (
	"context"

	"github.com/pb33f/scenegraph/geom"
)

// Reserved attribute and context-key names consumed by the engine (spec §6).
const (
	AttrVisible = "scene:visible"
	AttrSets    = "sets"

	ContextRendererKey = "scene:renderer"

	// OptionRenderCamera names the globals option that points at the
	// camera path globals wants active, when one is explicitly chosen.
	OptionRenderCamera = "option:render:camera"

	// UnexpandedChildrenSuffix is appended to a path to name its proxy
	// bounding-box handle. The embedder must never use this path suffix
	// for anything else (spec §6).
	UnexpandedChildrenSuffix = "__unexpandedChildren__"
)

// Attributes is a flattened name -> value mapping. Values are whatever the
// upstream evaluator and renderer backend agree on (bool, string, number,
// []string, ...).
type Attributes map[string]any

// Clone returns a shallow copy, used when building fullAttributes so the
// parent's map is never mutated by a child.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// NullObject is the sentinel payload for "no object at this location".
type NullObject struct{}

// Null is the canonical null-sentinel value.
var Null = NullObject{}

// IsNull reports whether o is the null sentinel (or the untyped nil).
func IsNull(o any) bool {
	if o == nil {
		return true
	}
	_, ok := o.(NullObject)
	return ok
}

// Light is a light-like object payload. A nil *Light is permitted by the
// engine (invariant 4): some lights carry no explicit shader and rely on
// the renderer's default visualizer.
type Light struct {
	Shader     string
	Parameters map[string]any
}

// Renderable is a generic (non-camera, non-light) object payload.
type Renderable struct {
	Kind string
	Data map[string]any
}

// CameraGlobals is the "opaque bundle" of camera-relevant globals (spec
// §6: "resolution, filter, clipping, etc."). A nil field means "globals
// does not override this".
type CameraGlobals struct {
	Resolution  *[2]int
	Projection  *string
	FilmFit     *string
	FieldOfView *float64
	NearClip    *float64
	FarClip     *float64
}

// Equal reports whether two CameraGlobals bundles describe the same
// overrides, used by the controller to detect camera-affecting globals
// changes (spec §4.4 step 1).
func (g CameraGlobals) Equal(o CameraGlobals) bool {
	return eqIntPtr2(g.Resolution, o.Resolution) &&
		eqStringPtr(g.Projection, o.Projection) &&
		eqStringPtr(g.FilmFit, o.FilmFit) &&
		eqFloatPtr(g.FieldOfView, o.FieldOfView) &&
		eqFloatPtr(g.NearClip, o.NearClip) &&
		eqFloatPtr(g.FarClip, o.FarClip)
}

func eqIntPtr2(a, b *[2]int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Camera is the object payload for camera-role locations.
type Camera struct {
	Resolution  [2]int
	Projection  string
	FilmFit     string
	FieldOfView float64
	NearClip    float64
	FarClip     float64
}

// WithGlobals returns a copy of c with any non-nil field of g overlaid,
// matching spec §4.1 step 5: "copy the camera and overlay camera-related
// fields from globals before handing to the backend."
func (c Camera) WithGlobals(g CameraGlobals) Camera {
	out := c
	if g.Resolution != nil {
		out.Resolution = *g.Resolution
	}
	if g.Projection != nil {
		out.Projection = *g.Projection
	}
	if g.FilmFit != nil {
		out.FilmFit = *g.FilmFit
	}
	if g.FieldOfView != nil {
		out.FieldOfView = *g.FieldOfView
	}
	if g.NearClip != nil {
		out.NearClip = *g.NearClip
	}
	if g.FarClip != nil {
		out.FarClip = *g.FarClip
	}
	return out
}

// OutputSpec describes a single render output (spec §6's "output(name,
// spec)").
type OutputSpec struct {
	Type       string
	Parameters map[string]any
}

// Globals is one snapshot of the scene-wide configuration (spec §6's
// "globals() -> mapping").
type Globals struct {
	Options    map[string]any
	Outputs    map[string]OutputSpec
	Attributes map[string]any // the "attribute:*" entries, prefix stripped
	Camera     CameraGlobals
}

// RenderCameraPath returns the camera path named by
// OptionRenderCamera, and whether one was named at all.
func (g *Globals) RenderCameraPath() (string, bool) {
	if g == nil || g.Options == nil {
		return "", false
	}
	v, ok := g.Options[OptionRenderCamera]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// Sets maps a render-set name to the explicit set of paths it contains.
// Real upstream evaluators usually express set membership with glob-like
// path matchers; the engine only needs membership queries, so Sets is
// kept as the flattened result of evaluating those matchers once per
// scene. RenderSets (package rendersets) builds the indexed structure used
// for fast Exact/Descendant/Ancestor queries.
type Sets map[string][]Path

// Scene is the read-only upstream scene evaluator the engine consumes
// (spec §6). Every method is safe to call concurrently from multiple
// traversal goroutines, and should honor ctx cancellation by returning
// ctx.Err() promptly.
//
// Each flattenable quantity (attributes, transform, object, child names)
// exposes a cheap *Hash method separate from the value-fetching method,
// mirroring the teacher's own hash-before-fetch short-circuit
// (model/high/v3/schema.go compares a cheaply computed index.HashNode
// against a cached hash before paying for the expensive full rebuild).
// SceneNode.update uses the Hash methods to decide whether the more
// expensive value fetch is needed at all.
type Scene interface {
	AttributesHash(ctx context.Context, path Path) (Hash128, error)
	Attributes(ctx context.Context, path Path) (Attributes, error)

	TransformHash(ctx context.Context, path Path) (Hash128, error)
	Transform(ctx context.Context, path Path) (geom.Matrix4, error)

	ObjectHash(ctx context.Context, path Path) (Hash128, error)
	Object(ctx context.Context, path Path) (any, error)

	ChildNamesHash(ctx context.Context, path Path) (Hash128, error)
	ChildNames(ctx context.Context, path Path) ([]string, error)

	Bound(ctx context.Context, path Path) (geom.Box, error)
	Globals(ctx context.Context) (*Globals, error)
	Sets(ctx context.Context) (Sets, error)
}
