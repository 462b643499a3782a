// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package scenegraph

import (
	"context"
	"fmt"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/render"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/sgctx"
)

// updateObject implements spec §4.1 steps 5-7: object handle creation or
// retag, then pushing the world transform to whatever handle results.
func (n *Node) updateObject(ctx context.Context, env *sgctx.Env, path scene.Path, role Type, d dirty.Component, attrsChanged, transformChanged bool) (dirty.Component, error) {
	var changed dirty.Component
	objectChanged := false

	if d.Any(dirty.Object) && role != NoType {
		same, err := n.objectUnchanged(ctx, env, path)
		if err != nil {
			return changed, err
		}
		if !same {
			if err := n.rebuildObject(ctx, env, path, role); err != nil {
				return changed, err
			}
			objectChanged = true
			changed |= dirty.Object
		}
	}

	// Step 6: attribute-only fast path.
	if !objectChanged && attrsChanged && n.ObjectHandle != nil {
		attrsHandle, err := env.Renderer.Attributes(n.FullAttributes)
		if err != nil {
			return changed, fmt.Errorf("build attributes handle at %s: %w", path, err)
		}
		if n.ObjectHandle.Attributes(attrsHandle) {
			if n.AttributesHandle != nil {
				n.AttributesHandle.Release()
			}
			n.AttributesHandle = attrsHandle
		} else {
			attrsHandle.Release()
			if err := n.rebuildObject(ctx, env, path, role); err != nil {
				return changed, err
			}
			objectChanged = true
			changed |= dirty.Object
		}
	}

	// Step 7: push the world transform wherever the object or the
	// transform changed.
	if (objectChanged || transformChanged) && n.ObjectHandle != nil {
		n.ObjectHandle.Transform(n.FullTransform)
	}

	return changed, nil
}

// objectUnchanged reports whether the upstream object hash at path matches
// the node's cached hash.
func (n *Node) objectUnchanged(ctx context.Context, env *sgctx.Env, path scene.Path) (bool, error) {
	h, err := env.Scene.ObjectHash(ctx, path)
	if err != nil {
		return false, fmt.Errorf("object hash at %s: %w", path, err)
	}
	same := h == n.ObjectHash && n.ObjectHash != scene.Zero
	n.ObjectHash = h
	return same, nil
}

// rebuildObject fetches the object payload and (re)creates the renderer
// handle for it, following the backend-ordering rule of spec §4.1 step 5.
func (n *Node) rebuildObject(ctx context.Context, env *sgctx.Env, path scene.Path, role Type) error {
	payload, err := env.Scene.Object(ctx, path)
	if err != nil {
		return fmt.Errorf("object at %s: %w", path, err)
	}

	if scene.IsNull(payload) && role != Light {
		if n.ObjectHandle != nil {
			n.ObjectHandle.Release()
			env.Stats.RecordReleased()
			n.ObjectHandle = nil
		}
		return nil
	}

	attrsHandle, err := env.Renderer.Attributes(n.FullAttributes)
	if err != nil {
		return fmt.Errorf("build attributes handle at %s: %w", path, err)
	}

	name := n.handleName()
	concurrentSwap := env.Renderer.Name() == render.OpenGLIdentity
	prior := n.ObjectHandle

	if prior != nil && !concurrentSwap {
		prior.Release()
		env.Stats.RecordReleased()
		prior = nil
	}
	if n.AttributesHandle != nil && n.AttributesHandle != attrsHandle {
		n.AttributesHandle.Release()
	}

	var handle render.ObjectHandle
	switch role {
	case Camera:
		cam, ok := payload.(scene.Camera)
		if !ok {
			return fmt.Errorf("object at %s: expected scene.Camera payload for camera role, got %T", path, payload)
		}
		if env.Globals != nil {
			cam = cam.WithGlobals(env.Globals.Camera)
		}
		handle, err = env.Renderer.Camera(name, cam, attrsHandle)
	case Light:
		light, _ := payload.(*scene.Light)
		handle, err = env.Renderer.Light(name, light, attrsHandle)
	default:
		handle, err = env.Renderer.Object(name, payload, attrsHandle)
	}
	if err != nil {
		attrsHandle.Release()
		return fmt.Errorf("create handle at %s: %w", path, err)
	}

	if prior != nil && concurrentSwap {
		prior.Release()
		env.Stats.RecordReleased()
	}

	env.Stats.RecordCreated()
	n.ObjectHandle = handle
	n.AttributesHandle = attrsHandle
	return nil
}
