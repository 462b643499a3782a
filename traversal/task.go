// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package traversal

import (
	"context"
	"fmt"
	"sync"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/rendersets"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/scenegraph"
	"github.com/pb33f/scenegraph/sgctx"
)

// Status is the phase reported to a ProgressFunc (spec §4.2 step 4).
type Status int

const (
	Running Status = iota
	Completed
	Cancelled
	Errored
)

// ProgressFunc is invoked with Running whenever a node's update reports
// any changed component, and with Errored for a node whose update failed.
// Run itself never reports a terminal status for the pass. It must
// tolerate being called concurrently from worker goroutines (spec §5);
// it is the canonical place for a caller to observe cancellation.
type ProgressFunc func(status Status, path scene.Path, changed dirty.Component)

// runState collects the first error seen by any node in a pass, across
// however many workers end up touching it.
type runState struct {
	mu       sync.Mutex
	firstErr error
}

func (r *runState) report(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	if r.firstErr == nil {
		r.firstErr = err
	}
	r.mu.Unlock()
}

// Run executes one TraversalTask (spec §4.2) rooted at node, and - if the
// node is expanded and has children - recursively fans one task per
// child out through pool. Joining happens once, here, via
// pool.WaitForCompletion rather than a WaitGroup scoped to this call: a
// worker processing one node submits that node's children and returns
// immediately (model/high/v3's SchemaWalkPool.processItem does the same
// - Walk submits nested schemas and returns without waiting on them), so
// no worker ever parks waiting on a child it just queued behind itself.
// On a chain deeper than pool.Workers(), blocking per-level joins would
// deadlock every worker against its own descendants; this doesn't,
// because nothing blocks until every node in the subtree has already
// been accounted for in pool's inFlight counter. No task ever mutates
// its parent's Node; children only read the parent's already-finalized
// fullAttributes/fullTransform (spec §5), which is why this can run with
// no per-node locking.
func Run(ctx context.Context, env *sgctx.Env, pool *Pool, node *scenegraph.Node, treeType scenegraph.Type, path scene.Path, d, parentChanged dirty.Component, progress ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	state := &runState{}
	runNode(ctx, env, pool, state, node, treeType, path, d, parentChanged, progress)
	pool.WaitForCompletion()

	if state.firstErr != nil {
		return state.firstErr
	}
	return ctx.Err()
}

// runNode updates a single node and hands its children to pool without
// blocking on them; see Run for why.
func runNode(ctx context.Context, env *sgctx.Env, pool *Pool, state *runState, node *scenegraph.Node, treeType scenegraph.Type, path scene.Path, d, parentChanged dirty.Component, progress ProgressFunc) {
	if err := ctx.Err(); err != nil {
		state.report(err)
		return
	}

	match, role := route(env.RenderSets, treeType, path)
	if !match.Any(rendersets.Exact | rendersets.Descendant) {
		node.ClearSubtree()
		return
	}

	if node.Cleared {
		d = dirty.All
	}

	changed, err := node.Update(ctx, env, path, role, d, parentChanged)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			state.report(ctxErr)
			return
		}
		// A single malformed location doesn't blank the rest of the
		// scene: record it and carry on with whatever state the node
		// had before this pass, so the renderer never goes fully dark
		// from one bad upstream value.
		node.LastError = err
		env.RecordFailure(path.String(), err)
		if progress != nil {
			progress(Errored, path, dirty.None)
		}
		return
	}
	node.LastError = nil
	env.ClearFailure(path.String())

	if changed != dirty.None && progress != nil {
		progress(Running, path, changed)
	}

	if !node.Expanded || !node.HasChildren() {
		node.ClearChildren()
		return
	}

	childParentChanged := d | changed
	children := node.ChildrenSnapshot()

	for _, child := range children {
		child := child
		childPath := path.Child(child.Name)
		pool.SubmitOrRun(func() {
			defer func() {
				if r := recover(); r != nil {
					state.report(fmt.Errorf("panic in traversal task at %s: %v", childPath, r))
				}
			}()
			runNode(ctx, env, pool, state, child, treeType, childPath, d, childParentChanged, progress)
		})
	}
}

// route implements the sceneGraphMatch routing rule of spec §4.2.
func route(rs *rendersets.RenderSets, treeType scenegraph.Type, path scene.Path) (rendersets.Match, scenegraph.Type) {
	if rs == nil {
		return rendersets.Every, scenegraph.Object
	}
	switch treeType {
	case scenegraph.Camera:
		m := rs.CamerasMatch(path)
		if m.Has(rendersets.Exact) {
			return m, scenegraph.Camera
		}
		return m, scenegraph.NoType
	case scenegraph.Light:
		m := rs.LightsMatch(path)
		if m.Has(rendersets.Exact) {
			return m, scenegraph.Light
		}
		return m, scenegraph.NoType
	default: // Object tree
		cameras := rs.CamerasMatch(path)
		lights := rs.LightsMatch(path)
		if cameras.Has(rendersets.Exact) || lights.Has(rendersets.Exact) {
			return rendersets.Ancestor | rendersets.Descendant, scenegraph.NoType
		}
		return rendersets.Every, scenegraph.Object
	}
}
