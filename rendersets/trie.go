// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package rendersets

import "github.com/pb33f/scenegraph/scene"

// trieNode is a path-component trie node, the same shape as
// gopher.Node's Children map[string]*Node (github.com/pb33f/doctor's
// rolodex file-tree), repurposed here to index a set's member paths for
// O(depth) Exact/Descendant/Ancestor queries instead of an O(members)
// linear scan per query.
type trieNode struct {
	children map[string]*trieNode
	member   bool // true iff the path ending here is a set member
	hasDesc  bool // true iff any node in this subtree is a member
}

func newTrie() *trieNode {
	return &trieNode{}
}

func (t *trieNode) insert(path scene.Path) {
	n := t
	n.hasDesc = true
	for _, seg := range path {
		if n.children == nil {
			n.children = make(map[string]*trieNode)
		}
		child, ok := n.children[seg]
		if !ok {
			child = &trieNode{}
			n.children[seg] = child
		}
		n = child
		n.hasDesc = true
	}
	n.member = true
}

// match walks from the root to path, returning the Exact/Descendant/
// Ancestor bits for that path against this trie.
func (t *trieNode) match(path scene.Path) Match {
	var m Match
	n := t
	for _, seg := range path {
		if n.member {
			m |= Ancestor
		}
		if n.children == nil {
			return m
		}
		child, ok := n.children[seg]
		if !ok {
			return m
		}
		n = child
	}
	if n.member {
		m |= Exact
	}
	if n.hasDescendantMember() {
		m |= Descendant
	}
	return m
}

// hasDescendantMember reports whether any node strictly below n is a
// member.
func (n *trieNode) hasDescendantMember() bool {
	for _, c := range n.children {
		if c.hasDesc {
			return true
		}
	}
	return false
}
