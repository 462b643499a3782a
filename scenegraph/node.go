// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package scenegraph

import (
	"github.com/pb33f/scenegraph/geom"
	"github.com/pb33f/scenegraph/render"
	"github.com/pb33f/scenegraph/scene"
)

// Node is one persistent per-location entry in a Controller's mirror tree
// (spec §3's SceneNode). Its parent back-reference is non-owning - it
// exists only so inherited state (fullAttributes, fullTransform) can be
// read, never so a child can mutate its parent.
type Node struct {
	Name   string
	Parent *Node
	// Children is ordered to match the upstream child-name order; a
	// renamed or reordered child is, deliberately, a new child rather
	// than a reused one (spec §9 Open Question (i)).
	Children []*Node

	// Cached upstream hashes, used to short-circuit recomputation.
	AttributesHash scene.Hash128
	TransformHash  scene.Hash128
	ChildNamesHash scene.Hash128
	ObjectHash     scene.Hash128

	// Flattened state.
	FullAttributes scene.Attributes
	FullTransform  geom.Matrix4

	// Renderer handles, any of which may be nil.
	ObjectHandle     render.ObjectHandle
	AttributesHandle render.AttributesHandle
	BoundHandle      render.ObjectHandle

	Expanded bool
	Cleared  bool

	// LastError records a non-cancellation failure recovered at this
	// node during the most recent pass (SPEC_FULL.md §4.1 expansion): a
	// single malformed location does not blank the rest of the scene.
	// The node's prior handle, if any, is left in place, unless the
	// failure came after that handle was released to make way for its
	// replacement.
	LastError error
}

// NewRoot creates an empty root node, cleared until its first successful
// update.
func NewRoot() *Node {
	return &Node{Cleared: true, FullTransform: geom.Identity}
}

// newChild creates an empty child node under parent, cleared until its
// first successful update.
func newChild(parent *Node, name string) *Node {
	return &Node{Name: name, Parent: parent, Cleared: true}
}

// Path reconstructs this node's full path from the root, the same way
// Foundation.GenerateJSONPath walks Parent in the teacher repo.
func (n *Node) Path() scene.Path {
	if n.Parent == nil {
		return scene.Path{}
	}
	return n.Parent.Path().Child(n.Name)
}

// clear releases every handle, zeroes cached hashes, drops all children,
// and marks the node cleared - spec §4.1's clear() contract.
func (n *Node) clear() {
	if n.ObjectHandle != nil {
		n.ObjectHandle.Release()
		n.ObjectHandle = nil
	}
	if n.AttributesHandle != nil {
		n.AttributesHandle.Release()
		n.AttributesHandle = nil
	}
	if n.BoundHandle != nil {
		n.BoundHandle.Release()
		n.BoundHandle = nil
	}
	for _, c := range n.Children {
		c.clear()
	}
	n.Children = nil
	n.AttributesHash = scene.Hash128{}
	n.TransformHash = scene.Hash128{}
	n.ChildNamesHash = scene.Hash128{}
	n.ObjectHash = scene.Hash128{}
	n.FullAttributes = nil
	n.Cleared = true
	n.Expanded = false
	n.LastError = nil
}

// handleName is the renderer-facing name for this node's own handle.
func (n *Node) handleName() string {
	return n.Path().String()
}

// boundHandleName is the renderer-facing name for the proxy
// "unexpanded children" bounding-box handle (spec §6's reserved path
// name).
func (n *Node) boundHandleName() string {
	return n.handleName() + "/" + scene.UnexpandedChildrenSuffix
}

// ClearSubtree clears this node and everything beneath it. Used by
// TraversalTask when a path falls out of its tree's relevant render set
// entirely (spec §4.2 step 1).
func (n *Node) ClearSubtree() {
	n.clear()
}

// ClearChildren clears every child without clearing n itself, used when a
// node is not expanded (spec §4.2 step 5: "explicitly clear every child,
// rendering them all invisible for this pass").
func (n *Node) ClearChildren() {
	for _, c := range n.Children {
		c.clear()
	}
}

// ChildrenSnapshot returns the current child slice. It must only be
// called after Update has returned, once children are stable for the
// remainder of this task's fan-out (spec §5: a parent finalizes its own
// state before any child task is spawned).
func (n *Node) ChildrenSnapshot() []*Node {
	return n.Children
}
