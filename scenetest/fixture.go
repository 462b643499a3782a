// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Package scenetest provides a YAML-loaded scene.Scene fixture for
// tests, the way the teacher's test_specs/*.yaml fixtures back its own
// high-level model tests.
package scenetest

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pb33f/scenegraph/geom"
	"github.com/pb33f/scenegraph/scene"
)

// locationSpec is the YAML shape of one scene location.
type locationSpec struct {
	Attributes map[string]any `yaml:"attributes"`
	Transform  *transformSpec `yaml:"transform"`
	Object     *objectSpec    `yaml:"object"`
	ChildNames []string       `yaml:"childNames"`
	Bound      *boundSpec     `yaml:"bound"`
}

type transformSpec struct {
	Translate [3]float64 `yaml:"translate"`
}

type objectSpec struct {
	Kind string         `yaml:"kind"` // "camera", "light", "null", or any other kind for a generic renderable
	Data map[string]any `yaml:"data"`
}

type boundSpec struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

type globalsSpec struct {
	Options    map[string]any         `yaml:"options"`
	Outputs    map[string]outputSpec  `yaml:"outputs"`
	Attributes map[string]any         `yaml:"attributes"`
	Camera     *cameraGlobalsSpec     `yaml:"camera"`
}

type outputSpec struct {
	Type       string         `yaml:"type"`
	Parameters map[string]any `yaml:"parameters"`
}

type cameraGlobalsSpec struct {
	Resolution  *[2]int  `yaml:"resolution"`
	Projection  *string  `yaml:"projection"`
	FilmFit     *string  `yaml:"filmFit"`
	FieldOfView *float64 `yaml:"fieldOfView"`
	NearClip    *float64 `yaml:"nearClip"`
	FarClip     *float64 `yaml:"farClip"`
}

// document is the top-level YAML shape a fixture file is loaded from.
type document struct {
	Locations map[string]locationSpec `yaml:"locations"`
	Globals   globalsSpec             `yaml:"globals"`
	Sets      map[string][]string     `yaml:"sets"`
}

// FixtureScene is a scene.Scene backed by an in-memory map loaded from
// YAML, with mutation helpers a test uses to simulate upstream edits
// between passes.
type FixtureScene struct {
	locations map[string]locationSpec
	globals   *scene.Globals
	sets      scene.Sets
}

// LoadFixture parses a YAML fixture file into a FixtureScene.
func LoadFixture(path string) (*FixtureScene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture parses YAML bytes into a FixtureScene.
func ParseFixture(data []byte) (*FixtureScene, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	fs := &FixtureScene{
		locations: doc.Locations,
		globals:   &scene.Globals{Options: doc.Globals.Options, Attributes: doc.Globals.Attributes},
		sets:      scene.Sets{},
	}
	if fs.locations == nil {
		fs.locations = map[string]locationSpec{}
	}
	fs.globals.Outputs = map[string]scene.OutputSpec{}
	for name, o := range doc.Globals.Outputs {
		fs.globals.Outputs[name] = scene.OutputSpec{Type: o.Type, Parameters: o.Parameters}
	}
	if c := doc.Globals.Camera; c != nil {
		fs.globals.Camera = scene.CameraGlobals{
			Resolution:  c.Resolution,
			Projection:  c.Projection,
			FilmFit:     c.FilmFit,
			FieldOfView: c.FieldOfView,
			NearClip:    c.NearClip,
			FarClip:     c.FarClip,
		}
	}
	for name, paths := range doc.Sets {
		sp := make([]scene.Path, 0, len(paths))
		for _, p := range paths {
			sp = append(sp, splitPath(p))
		}
		fs.sets[name] = sp
	}
	return fs, nil
}

// SetVisible is a convenience mutator for the common "toggle visibility"
// test scenario.
func (fs *FixtureScene) SetVisible(path scene.Path, visible bool) {
	loc := fs.locations[path.String()]
	if loc.Attributes == nil {
		loc.Attributes = map[string]any{}
	}
	loc.Attributes[scene.AttrVisible] = visible
	fs.locations[path.String()] = loc
}

// SetAttribute sets a single attribute at path, used by tests to simulate
// an upstream attribute edit between passes.
func (fs *FixtureScene) SetAttribute(path scene.Path, name string, value any) {
	loc := fs.locations[path.String()]
	if loc.Attributes == nil {
		loc.Attributes = map[string]any{}
	}
	loc.Attributes[name] = value
	fs.locations[path.String()] = loc
}

// SetTranslation replaces the local translation at path.
func (fs *FixtureScene) SetTranslation(path scene.Path, x, y, z float64) {
	loc := fs.locations[path.String()]
	loc.Transform = &transformSpec{Translate: [3]float64{x, y, z}}
	fs.locations[path.String()] = loc
}

// SetChildNames replaces the ordered child-name list at path.
func (fs *FixtureScene) SetChildNames(path scene.Path, names []string) {
	loc := fs.locations[path.String()]
	loc.ChildNames = names
	fs.locations[path.String()] = loc
}

func (fs *FixtureScene) get(path scene.Path) locationSpec {
	return fs.locations[path.String()]
}

func (fs *FixtureScene) AttributesHash(ctx context.Context, path scene.Path) (scene.Hash128, error) {
	loc := fs.get(path)
	return hashMap(loc.Attributes), nil
}

func (fs *FixtureScene) Attributes(ctx context.Context, path scene.Path) (scene.Attributes, error) {
	loc := fs.get(path)
	out := make(scene.Attributes, len(loc.Attributes))
	for k, v := range loc.Attributes {
		out[k] = v
	}
	return out, nil
}

func (fs *FixtureScene) TransformHash(ctx context.Context, path scene.Path) (scene.Hash128, error) {
	loc := fs.get(path)
	var h scene.Hasher
	if loc.Transform != nil {
		h.WriteString(fmt.Sprintf("%v", loc.Transform.Translate))
	}
	return h.Sum(), nil
}

func (fs *FixtureScene) Transform(ctx context.Context, path scene.Path) (geom.Matrix4, error) {
	loc := fs.get(path)
	if loc.Transform == nil {
		return geom.Identity, nil
	}
	t := loc.Transform.Translate
	return geom.Translation(t[0], t[1], t[2]), nil
}

func (fs *FixtureScene) ObjectHash(ctx context.Context, path scene.Path) (scene.Hash128, error) {
	loc := fs.get(path)
	if loc.Object == nil {
		return scene.HashString("null"), nil
	}
	return hashMap(loc.Object.Data), nil
}

func (fs *FixtureScene) Object(ctx context.Context, path scene.Path) (any, error) {
	loc := fs.get(path)
	if loc.Object == nil {
		return scene.Null, nil
	}
	switch loc.Object.Kind {
	case "camera":
		return cameraFromData(loc.Object.Data), nil
	case "light":
		return lightFromData(loc.Object.Data), nil
	case "null":
		return scene.Null, nil
	default:
		return scene.Renderable{Kind: loc.Object.Kind, Data: loc.Object.Data}, nil
	}
}

func (fs *FixtureScene) ChildNamesHash(ctx context.Context, path scene.Path) (scene.Hash128, error) {
	loc := fs.get(path)
	var h scene.Hasher
	for _, n := range loc.ChildNames {
		h.WriteString(n)
		h.WriteString(";")
	}
	return h.Sum(), nil
}

func (fs *FixtureScene) ChildNames(ctx context.Context, path scene.Path) ([]string, error) {
	loc := fs.get(path)
	out := make([]string, len(loc.ChildNames))
	copy(out, loc.ChildNames)
	return out, nil
}

func (fs *FixtureScene) Bound(ctx context.Context, path scene.Path) (geom.Box, error) {
	loc := fs.get(path)
	if loc.Bound == nil {
		return geom.Box{Min: [3]float64{-0.5, -0.5, -0.5}, Max: [3]float64{0.5, 0.5, 0.5}}, nil
	}
	return geom.Box{Min: loc.Bound.Min, Max: loc.Bound.Max}, nil
}

func (fs *FixtureScene) Globals(ctx context.Context) (*scene.Globals, error) {
	return fs.globals, nil
}

func (fs *FixtureScene) Sets(ctx context.Context) (scene.Sets, error) {
	return fs.sets, nil
}

func cameraFromData(data map[string]any) scene.Camera {
	var c scene.Camera
	if v, ok := data["projection"].(string); ok {
		c.Projection = v
	}
	if v, ok := data["filmFit"].(string); ok {
		c.FilmFit = v
	}
	if v, ok := asFloat(data["fieldOfView"]); ok {
		c.FieldOfView = v
	}
	if v, ok := asFloat(data["nearClip"]); ok {
		c.NearClip = v
	}
	if v, ok := asFloat(data["farClip"]); ok {
		c.FarClip = v
	}
	return c
}

func lightFromData(data map[string]any) *scene.Light {
	l := &scene.Light{Parameters: map[string]any{}}
	if v, ok := data["shader"].(string); ok {
		l.Shader = v
	}
	if params, ok := data["parameters"].(map[string]any); ok {
		l.Parameters = params
	}
	return l
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func hashMap(m map[string]any) scene.Hash128 {
	if len(m) == 0 {
		return scene.HashString("{}")
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var h scene.Hasher
	for _, k := range keys {
		h.WriteString(k)
		h.WriteString(fmt.Sprintf("=%v;", m[k]))
	}
	return h.Sum()
}

func splitPath(p string) scene.Path {
	if p == "" || p == "/" {
		return scene.Path{}
	}
	trimmed := p
	if trimmed[0] == '/' {
		trimmed = trimmed[1:]
	}
	var out scene.Path
	start := 0
	for i := 0; i <= len(trimmed); i++ {
		if i == len(trimmed) || trimmed[i] == '/' {
			if i > start {
				out = append(out, trimmed[start:i])
			}
			start = i + 1
		}
	}
	return out
}
