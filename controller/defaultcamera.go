// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package controller

import (
	"github.com/pb33f/scenegraph/render"
	"github.com/pb33f/scenegraph/scene"
)

// defaultCameraName is the reserved, embedder-visible identifier a
// synthesized default camera is registered under (spec §4.5).
const defaultCameraName = "gaffer:defaultCamera"

// defaultCameraManager implements spec §4.5: when the renderer needs a
// camera but globals doesn't name one, synthesize a minimal camera from
// camera-relevant globals and register it.
type defaultCameraManager struct {
	renderer render.Backend
	handle   render.ObjectHandle
}

func newDefaultCameraManager(renderer render.Backend) *defaultCameraManager {
	return &defaultCameraManager{renderer: renderer}
}

// refresh is called after any pass where cameraGlobalsChanged was true.
func (m *defaultCameraManager) refresh(globals *scene.Globals) error {
	if m.renderer == nil || m.renderer.Name() == render.OpenGLIdentity {
		return nil
	}
	if globals == nil {
		globals = &scene.Globals{}
	}
	if _, named := globals.RenderCameraPath(); named {
		m.release()
		return nil
	}

	cam := scene.Camera{}.WithGlobals(globals.Camera)
	attrsHandle, err := m.renderer.Attributes(scene.Attributes{})
	if err != nil {
		return err
	}
	handle, err := m.renderer.Camera(defaultCameraName, cam, attrsHandle)
	if err != nil {
		attrsHandle.Release()
		return err
	}

	m.release()
	m.handle = handle
	m.renderer.Option("camera", defaultCameraName)
	return nil
}

func (m *defaultCameraManager) release() {
	if m.handle != nil {
		m.handle.Release()
		m.handle = nil
	}
}
