// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package scenegraph

import (
	"context"
	"fmt"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/geom"
	"github.com/pb33f/scenegraph/render"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/sgctx"
)

// BoundProxy is the payload handed to the renderer backend for an
// unexpanded-children wireframe box (spec §6's reserved
// "__unexpandedChildren__" handle).
type BoundProxy struct {
	Box geom.Box
}

// boundAttributes is the pre-built wireframe/translucent/grey attribute
// bundle spec §4.1 step 10 registers the proxy bound with.
var boundAttributes = scene.Attributes{
	"gl:primitive:wireframe":  true,
	"gl:primitive:solid":      false,
	"gl:primitive:wireColor4": [4]float64{0.5, 0.5, 0.5, 0.5},
}

// updateExpansion implements spec §4.1 steps 9-10.
func (n *Node) updateExpansion(ctx context.Context, env *sgctx.Env, path scene.Path, d dirty.Component, childrenChanged bool) (dirty.Component, error) {
	var changed dirty.Component

	if d.Any(dirty.Expansion) {
		expanded := env.IsExpanded(len(path), path.String())
		if expanded != n.Expanded {
			n.Expanded = expanded
			changed |= dirty.Expansion
		}
	}

	expansionChanged := changed.Any(dirty.Expansion)
	if !expansionChanged && !childrenChanged && !d.Any(dirty.Bound|dirty.Transform) {
		return changed, nil
	}

	hasChildren := len(n.Children) > 0
	needsBound := !n.Expanded && hasChildren

	switch {
	case needsBound && n.BoundHandle == nil:
		handle, err := n.createBoundHandle(ctx, env, path)
		if err != nil {
			return changed, err
		}
		n.BoundHandle = handle
		env.Stats.RecordCreated()
	case !needsBound && n.BoundHandle != nil:
		n.BoundHandle.Release()
		env.Stats.RecordReleased()
		n.BoundHandle = nil
	case needsBound && n.BoundHandle != nil && d.Any(dirty.Transform):
		n.BoundHandle.Transform(n.FullTransform)
	}

	return changed, nil
}

// createBoundHandle registers the wireframe proxy bound for an unexpanded
// node with children, under its reserved handle name.
func (n *Node) createBoundHandle(ctx context.Context, env *sgctx.Env, path scene.Path) (render.ObjectHandle, error) {
	box, err := env.Scene.Bound(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("bound at %s: %w", path, err)
	}
	attrsHandle, err := env.Renderer.Attributes(boundAttributes)
	if err != nil {
		return nil, fmt.Errorf("build bound attributes handle at %s: %w", path, err)
	}
	handle, err := env.Renderer.Object(n.boundHandleName(), BoundProxy{Box: box}, attrsHandle)
	if err != nil {
		attrsHandle.Release()
		return nil, fmt.Errorf("create bound handle at %s: %w", path, err)
	}
	handle.Transform(n.FullTransform)
	return handle, nil
}
