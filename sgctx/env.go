// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Package sgctx bundles the collaborators a SceneNode or TraversalTask
// needs to evaluate one location: the upstream scene, the renderer
// backend, the current render-sets index, and the latest globals
// snapshot. It plays the role of doctor's DrContext
// (model/high/v3/context.go) - a typed payload threaded alongside
// context.Context rather than stuffed into context.Value, so that the
// fields most call sites need are statically typed and nil-checked once.
package sgctx

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pb33f/scenegraph/render"
	"github.com/pb33f/scenegraph/rendersets"
	"github.com/pb33f/scenegraph/scene"
)

// Stats accumulates counters over one update pass (recovered from
// original_source's change-statistics reporting; not part of the
// distilled algorithm but cheap to maintain alongside it). All fields are
// safe to increment concurrently from worker goroutines.
type Stats struct {
	NodesVisited   atomic.Int64
	NodesChanged   atomic.Int64
	HandlesCreated atomic.Int64
	HandlesReleased atomic.Int64
}

// Snapshot is a point-in-time copy of Stats suitable for returning to a
// caller.
type Snapshot struct {
	NodesVisited    int64
	NodesChanged    int64
	HandlesCreated  int64
	HandlesReleased int64
}

func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{
		NodesVisited:    s.NodesVisited.Load(),
		NodesChanged:    s.NodesChanged.Load(),
		HandlesCreated:  s.HandlesCreated.Load(),
		HandlesReleased: s.HandlesReleased.Load(),
	}
}

// RecordCreated, RecordReleased, RecordVisited, and RecordChanged are
// no-ops on a nil *Stats so call sites never need a nil check.
func (s *Stats) RecordCreated() {
	if s != nil {
		s.HandlesCreated.Add(1)
	}
}

func (s *Stats) RecordReleased() {
	if s != nil {
		s.HandlesReleased.Add(1)
	}
}

func (s *Stats) RecordVisited() {
	if s != nil {
		s.NodesVisited.Add(1)
	}
}

func (s *Stats) RecordChanged() {
	if s != nil {
		s.NodesChanged.Add(1)
	}
}

// Env is read-only for the duration of one update pass: every field is
// set once by the Controller before the pass starts and never mutated by
// a worker goroutine (spec §5's shared-resource policy).
type Env struct {
	Scene      scene.Scene
	Renderer   render.Backend
	RenderSets *rendersets.RenderSets
	Globals    *scene.Globals
	Logger     *slog.Logger

	// ExpandedPaths is the exact-match expansion set (spec §4.1 step 9):
	// a path is a member iff the embedder explicitly expanded it.
	ExpandedPaths map[string]struct{}
	// MinimumExpansionDepth expands every path at or above this depth
	// regardless of ExpandedPaths membership.
	MinimumExpansionDepth int

	// Stats accumulates per-pass counters; nil disables collection.
	Stats *Stats

	// FailedPaths records a non-cancellation error observed at a path
	// during this pass, keyed by path string (recovered from
	// original_source; not part of the distilled algorithm). nil
	// disables collection.
	FailedPaths *sync.Map
}

// RecordFailure is a nil-safe helper for recording a per-path error.
func (e *Env) RecordFailure(pathStr string, err error) {
	if e == nil || e.FailedPaths == nil || err == nil {
		return
	}
	e.FailedPaths.Store(pathStr, err)
}

// ClearFailure is a nil-safe helper for clearing a prior failure once a
// path updates successfully.
func (e *Env) ClearFailure(pathStr string) {
	if e == nil || e.FailedPaths == nil {
		return
	}
	e.FailedPaths.Delete(pathStr)
}

// IsExpanded reports whether path should be treated as expanded, per spec
// §4.1 step 9: minimum-depth override, or exact membership in the
// expansion set.
func (e *Env) IsExpanded(pathLen int, pathStr string) bool {
	if e == nil {
		return false
	}
	if e.MinimumExpansionDepth >= pathLen {
		return true
	}
	_, ok := e.ExpandedPaths[pathStr]
	return ok
}

// Log returns e.Logger, or a discard logger if none was configured, so
// call sites never need a nil check.
func (e *Env) Log() *slog.Logger {
	if e == nil || e.Logger == nil {
		return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	return e.Logger
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
