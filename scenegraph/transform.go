// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package scenegraph

import (
	"context"
	"fmt"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/geom"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/sgctx"
)

// updateTransform implements spec §4.1 step 4: fullTransform = parent's
// fullTransform composed with this location's local transform (invariant
// 2: parent-to-left composition).
func (n *Node) updateTransform(ctx context.Context, env *sgctx.Env, path scene.Path, d, parentChanged dirty.Component) (dirty.Component, error) {
	if n.Parent == nil {
		return dirty.None, nil
	}
	if !d.Any(dirty.Transform) && !parentChanged.Any(dirty.Transform) {
		return dirty.None, nil
	}

	localHash, err := env.Scene.TransformHash(ctx, path)
	if err != nil {
		return dirty.None, fmt.Errorf("transform hash at %s: %w", path, err)
	}
	if localHash == n.TransformHash && !parentChanged.Any(dirty.Transform) {
		return dirty.None, nil
	}

	local, err := env.Scene.Transform(ctx, path)
	if err != nil {
		return dirty.None, fmt.Errorf("transform at %s: %w", path, err)
	}
	n.FullTransform = geom.Mul(n.Parent.FullTransform, local)
	n.TransformHash = localHash
	return dirty.Transform, nil
}
