// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package scenegraph

import (
	"context"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/sgctx"
)

// Update runs the full per-location algorithm (spec §4.1) and returns the
// bitmask of components observed to have changed at this node. d is the
// pass-global dirty mask; parentChanged is the parent's dirty |
// changedComponents for this pass.
func (n *Node) Update(ctx context.Context, env *sgctx.Env, path scene.Path, role Type, d, parentChanged dirty.Component) (dirty.Component, error) {
	if err := ctx.Err(); err != nil {
		return dirty.None, err
	}
	env.Stats.RecordVisited()

	var changed dirty.Component

	// Step 1: attributes.
	attrsChanged, err := n.updateAttributes(ctx, env, path, d, parentChanged)
	if err != nil {
		return changed, err
	}
	changed |= attrsChanged

	// Step 2: visibility gate. A gated node yields no descendants, so we
	// clear it and stop immediately - no transform, object, child, or
	// expansion work is meaningful under a hidden location.
	if !visible(n.FullAttributes) {
		n.clear()
		return changed, nil
	}
	n.Cleared = false

	// Step 3: render sets.
	changed = n.updateRenderSetsAttribute(env, path, d, changed)

	// Step 4: transform.
	transformChanged, err := n.updateTransform(ctx, env, path, d, parentChanged)
	if err != nil {
		return changed, err
	}
	changed |= transformChanged

	// Steps 5-7: object, attribute-only fast path, transform push.
	objectChanged, err := n.updateObject(ctx, env, path, role, d, changed.Any(dirty.Attributes), transformChanged != dirty.None)
	if err != nil {
		return changed, err
	}
	changed |= objectChanged

	// Step 8: children.
	childrenChanged, err := n.updateChildren(ctx, env, path, d)
	if err != nil {
		return changed, err
	}
	changed |= childrenChanged

	// Steps 9-10: expansion and proxy bound.
	expansionChanged, err := n.updateExpansion(ctx, env, path, d, childrenChanged != dirty.None)
	if err != nil {
		return changed, err
	}
	changed |= expansionChanged

	if changed != dirty.None {
		env.Stats.RecordChanged()
	}

	return changed, nil
}

// Role-agnostic convenience for callers (traversal) that need to know
// whether the node currently has any children to spawn tasks over.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}
