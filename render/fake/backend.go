// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Package fake provides an in-memory recording render.Backend, used only
// by tests. It never draws anything; it records Backend calls in order
// (Calls) and handle releases in order (Released), so a test can assert
// on handle creation and release. Retags and transform pushes are not
// recorded.
package fake

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pb33f/scenegraph/geom"
	"github.com/pb33f/scenegraph/render"
	"github.com/pb33f/scenegraph/scene"
)

// Call records one Backend method invocation, in order, for assertions.
type Call struct {
	Kind string // "attributes", "object", "camera", "light", "option", "output", "pause"
	Name string
}

// Backend is an in-memory render.Backend that records every call. When
// RefuseRetag is set, Attributes retag requests always fail, forcing the
// engine down the rebuild path (spec §4.1 step 6).
type Backend struct {
	mu sync.Mutex

	name        string
	RefuseRetag bool

	Calls   []Call
	Options map[string]any
	Outputs map[string]scene.OutputSpec

	live     map[string]*handle // name -> live object handle
	released []string
}

// New returns a Backend identified by name. name == render.OpenGLIdentity
// enables the concurrent old/new handle swap exception.
func New(name string) *Backend {
	return &Backend{
		name:    name,
		Options: map[string]any{},
		Outputs: map[string]scene.OutputSpec{},
		live:    map[string]*handle{},
	}
}

func (b *Backend) Name() string { return b.name }

func (b *Backend) record(kind, name string) {
	b.mu.Lock()
	b.Calls = append(b.Calls, Call{Kind: kind, Name: name})
	b.mu.Unlock()
}

func (b *Backend) Attributes(attrs scene.Attributes) (render.AttributesHandle, error) {
	b.record("attributes", "")
	return &attrsHandle{id: uuid.NewString(), attrs: attrs.Clone()}, nil
}

func (b *Backend) Object(name string, payload any, attrs render.AttributesHandle) (render.ObjectHandle, error) {
	return b.create("object", name, payload, attrs)
}

func (b *Backend) Camera(name string, cam scene.Camera, attrs render.AttributesHandle) (render.ObjectHandle, error) {
	return b.create("camera", name, cam, attrs)
}

func (b *Backend) Light(name string, payload *scene.Light, attrs render.AttributesHandle) (render.ObjectHandle, error) {
	return b.create("light", name, payload, attrs)
}

func (b *Backend) create(kind, name string, payload any, attrs render.AttributesHandle) (render.ObjectHandle, error) {
	b.record(kind, name)
	h := &handle{
		backend: b,
		id:      uuid.NewString(),
		name:    name,
		kind:    kind,
		payload: payload,
		attrs:   attrs,
	}
	b.mu.Lock()
	b.live[name] = h
	b.mu.Unlock()
	return h, nil
}

func (b *Backend) Option(name string, value any) {
	b.mu.Lock()
	b.Options[name] = value
	b.Calls = append(b.Calls, Call{Kind: "option", Name: name})
	b.mu.Unlock()
}

func (b *Backend) Output(name string, spec scene.OutputSpec) {
	b.mu.Lock()
	b.Outputs[name] = spec
	b.Calls = append(b.Calls, Call{Kind: "output", Name: name})
	b.mu.Unlock()
}

func (b *Backend) Pause() {
	b.record("pause", "")
}

// Live returns the names of every object/camera/light handle currently
// un-released.
func (b *Backend) Live() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.live))
	for name := range b.live {
		out = append(out, name)
	}
	return out
}

// Released returns every handle name released so far, in release order.
func (b *Backend) Released() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.released))
	copy(out, b.released)
	return out
}

type attrsHandle struct {
	id    string
	attrs scene.Attributes
}

func (h *attrsHandle) Release() {}

type handle struct {
	backend   *Backend
	id        string
	name      string
	kind      string
	payload   any
	attrs     render.AttributesHandle
	transform geom.Matrix4
	released  bool
}

func (h *handle) Transform(m geom.Matrix4) {
	h.transform = m
}

func (h *handle) Attributes(newAttrs render.AttributesHandle) bool {
	if h.backend.RefuseRetag {
		return false
	}
	h.attrs = newAttrs
	return true
}

func (h *handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.backend.mu.Lock()
	if h.backend.live[h.name] == h {
		delete(h.backend.live, h.name)
	}
	h.backend.released = append(h.backend.released, h.name)
	h.backend.mu.Unlock()
}
