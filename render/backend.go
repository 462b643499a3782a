// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Package render declares the renderer-backend interface the engine
// drives (spec §6). The backend itself - the thing that turns these calls
// into pixels - is an external collaborator and deliberately not
// implemented here; render/fake provides an in-memory recording backend
// used only by tests.
package render

import (
	"github.com/pb33f/scenegraph/geom"
	"github.com/pb33f/scenegraph/scene"
)

// OpenGLIdentity is the backend identity that enables the concurrent
// old/new handle swap exception (spec §4.1 step 5, §8 scenario S6).
const OpenGLIdentity = "OpenGL"

// AttributesHandle is an opaque backend-owned reference to a registered
// attribute bundle.
type AttributesHandle interface {
	Release()
}

// ObjectHandle is an opaque backend-owned reference to a registered
// object, camera, or light.
type ObjectHandle interface {
	// Transform pushes a new world transform to the handle.
	Transform(m geom.Matrix4)

	// Attributes attempts to retag the handle in place with newAttrs.
	// A false return means the backend refuses the retag and the caller
	// must release this handle and create a replacement instead (spec
	// §4.1 step 6).
	Attributes(newAttrs AttributesHandle) bool

	// Release tears the handle down. After Release, the handle's name
	// may be reused by a subsequent Backend.Object/Camera/Light call
	// (spec §3 invariant 6).
	Release()
}

// Backend is the renderer-backend interface the engine drives.
type Backend interface {
	// Name identifies the backend. The identity "OpenGL" enables the
	// concurrent old/new handle swap exception.
	Name() string

	Attributes(attrs scene.Attributes) (AttributesHandle, error)
	Object(name string, payload any, attrs AttributesHandle) (ObjectHandle, error)
	Camera(name string, cam scene.Camera, attrs AttributesHandle) (ObjectHandle, error)
	Light(name string, payload *scene.Light, attrs AttributesHandle) (ObjectHandle, error)

	Option(name string, value any)
	Output(name string, spec scene.OutputSpec)

	// Pause halts the backend before its handles are released. Controller
	// has no teardown step and never calls it.
	Pause()
}
