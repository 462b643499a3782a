// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package rendersets

import (
	"sort"
	"sync"

	"github.com/pb33f/scenegraph/intern"
	"github.com/pb33f/scenegraph/scene"
)

// CamerasSetName and LightsSetName are the two built-in sets every backend
// ordering rule (spec §4.2, §5) routes against.
const (
	CamerasSetName = "cameras"
	LightsSetName  = "lights"
)

// RenderSets indexes the upstream scene's set data for fast membership
// queries, and synthesizes the "sets" attribute (spec §4.3).
type RenderSets struct {
	mu    sync.RWMutex
	tries map[string]*trieNode
	names []string // sorted render-set names, cached for SetsAttribute
}

// New returns an empty RenderSets, equivalent to a scene with no sets.
func New() *RenderSets {
	return &RenderSets{tries: map[string]*trieNode{}}
}

// Update rebuilds the index from a fresh evaluation of the upstream
// scene's sets, and reports whether anything actually changed - the
// signal that gates the Controller's RenderSets dirty bit (spec §4.3,
// §4.4 step 2).
func (rs *RenderSets) Update(sets scene.Sets) bool {
	tries := make(map[string]*trieNode, len(sets))
	names := make([]string, 0, len(sets))
	for name, paths := range sets {
		name = intern.String(name)
		t := newTrie()
		for _, p := range paths {
			t.insert(p)
		}
		tries[name] = t
		if isRenderSetName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	rs.mu.Lock()
	changed := !equalTries(rs.tries, tries)
	rs.tries = tries
	rs.names = names
	rs.mu.Unlock()
	return changed
}

// isRenderSetName reports whether a set name belongs in the synthesized
// "sets" attribute. Gaffer convention: only "render:*" sets are exposed to
// backends this way; cameras and lights reach the renderer through their
// own trees instead.
func isRenderSetName(name string) bool {
	return len(name) > len("render:") && name[:len("render:")] == "render:"
}

// Match reports how path relates to the named set. An unknown set name
// matches nothing.
func (rs *RenderSets) Match(setName string, path scene.Path) Match {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	t, ok := rs.tries[setName]
	if !ok {
		return None
	}
	return t.match(path)
}

// CamerasMatch and LightsMatch are convenience wrappers around Match for
// the two built-in sets TraversalTask routes against.
func (rs *RenderSets) CamerasMatch(path scene.Path) Match { return rs.Match(CamerasSetName, path) }
func (rs *RenderSets) LightsMatch(path scene.Path) Match  { return rs.Match(LightsSetName, path) }

// SetsAttribute returns the sorted list of render-set names ("render:*")
// containing path, used to synthesize the "sets" attribute (spec §4.1
// step 3).
func (rs *RenderSets) SetsAttribute(path scene.Path) []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var out []string
	for _, name := range rs.names {
		if rs.tries[name].match(path).Has(Exact) {
			out = append(out, name)
		}
	}
	return out
}

func equalTries(a, b map[string]*trieNode) bool {
	if len(a) != len(b) {
		return false
	}
	for name, ta := range a {
		tb, ok := b[name]
		if !ok {
			return false
		}
		if !trieStructurallyEqual(ta, tb) {
			return false
		}
	}
	return true
}

func trieStructurallyEqual(a, b *trieNode) bool {
	if a.member != b.member {
		return false
	}
	if len(a.children) != len(b.children) {
		return false
	}
	for seg, ca := range a.children {
		cb, ok := b.children[seg]
		if !ok {
			return false
		}
		if !trieStructurallyEqual(ca, cb) {
			return false
		}
	}
	return true
}
