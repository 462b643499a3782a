// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package scenegraph

import (
	"context"
	"fmt"
	"sort"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/intern"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/sgctx"
)

// updateAttributes implements spec §4.1 step 1. The "sets" entry of step 3
// is added separately by updateRenderSetsAttribute, after the visibility
// gate.
func (n *Node) updateAttributes(ctx context.Context, env *sgctx.Env, path scene.Path, d, parentChanged dirty.Component) (dirty.Component, error) {
	var changed dirty.Component

	if n.Parent == nil {
		if d.Any(dirty.Globals | dirty.Attributes) {
			next := scene.Attributes{}
			if env.Globals != nil {
				for k, v := range env.Globals.Attributes {
					next[intern.String(k)] = v
				}
			}
			if !attributesEqual(n.FullAttributes, next) {
				n.FullAttributes = next
				n.AttributesHash = hashAttributes(next)
				changed |= dirty.Attributes
			}
		}
	} else if d.Any(dirty.Attributes) || parentChanged.Any(dirty.Attributes) {
		localHash, err := env.Scene.AttributesHash(ctx, path)
		if err != nil {
			return changed, fmt.Errorf("attributes hash at %s: %w", path, err)
		}
		if localHash == n.AttributesHash && !parentChanged.Any(dirty.Attributes) {
			// Short-circuit: our local attributes and our parent's
			// flattened attributes are both unchanged.
		} else {
			local, err := env.Scene.Attributes(ctx, path)
			if err != nil {
				return changed, fmt.Errorf("attributes at %s: %w", path, err)
			}
			n.FullAttributes = mergeAttributes(n.Parent.FullAttributes, local)
			n.AttributesHash = localHash
			changed |= dirty.Attributes
		}
	}
	return changed, nil
}

// updateRenderSetsAttribute implements spec §4.1 step 3.
func (n *Node) updateRenderSetsAttribute(env *sgctx.Env, path scene.Path, d, changed dirty.Component) dirty.Component {
	if !d.Any(dirty.RenderSets) && !changed.Any(dirty.Attributes) {
		return changed
	}
	if env.RenderSets == nil {
		return changed
	}
	sets := env.RenderSets.SetsAttribute(path)
	if n.FullAttributes == nil {
		n.FullAttributes = scene.Attributes{}
	}
	n.FullAttributes[scene.AttrSets] = sets
	return changed | dirty.Attributes
}

// visible implements the gate of spec §4.1 step 2: absent means visible,
// present-and-false means hidden.
func visible(attrs scene.Attributes) bool {
	v, ok := attrs[scene.AttrVisible]
	if !ok {
		return true
	}
	b, ok := v.(bool)
	return !ok || b
}

// mergeAttributes computes parent.fullAttributes ⊕ local, local
// overriding parent key-by-key (invariant 1).
func mergeAttributes(parent, local scene.Attributes) scene.Attributes {
	out := make(scene.Attributes, len(parent)+len(local))
	for k, v := range parent {
		out[intern.String(k)] = v
	}
	for k, v := range local {
		out[intern.String(k)] = v
	}
	return out
}

func attributesEqual(a, b scene.Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || fmt.Sprint(bv) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

// hashAttributes fingerprints a mapping for cheap equality checks; keys
// are sorted first so the hash is independent of map iteration order.
func hashAttributes(attrs scene.Attributes) scene.Hash128 {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var h scene.Hasher
	for _, k := range keys {
		h.WriteString(k)
		h.WriteString(fmt.Sprintf("=%v;", attrs[k]))
	}
	return h.Sum()
}
