// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package scenegraph

import (
	"context"
	"fmt"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/sgctx"
)

// updateChildren implements spec §4.1 step 8. Reuse across a reorder or
// rename is deliberately not attempted (spec §9 Open Question (i)): an
// ordered, position-wise name comparison decides whether anything rebuilds
// at all, and a mismatch discards every child rather than trying to
// reconcile a subset.
func (n *Node) updateChildren(ctx context.Context, env *sgctx.Env, path scene.Path, d dirty.Component) (dirty.Component, error) {
	if !d.Any(dirty.ChildNames) {
		return dirty.None, nil
	}

	names, err := env.Scene.ChildNames(ctx, path)
	if err != nil {
		return dirty.None, fmt.Errorf("child names at %s: %w", path, err)
	}

	if childNamesMatch(n.Children, names) {
		return dirty.None, nil
	}

	for _, c := range n.Children {
		c.clear()
	}
	children := make([]*Node, len(names))
	for i, name := range names {
		children[i] = newChild(n, name)
	}
	n.Children = children
	return dirty.ChildNames, nil
}

func childNamesMatch(children []*Node, names []string) bool {
	if len(children) != len(names) {
		return false
	}
	for i, name := range names {
		if children[i].Name != name {
			return false
		}
	}
	return true
}
