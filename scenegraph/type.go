// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Package scenegraph implements SceneNode (spec §3, §4.1): the persistent
// per-location mirror of one upstream scene, and the single update
// contract that keeps it - and the renderer handles it owns - in sync.
package scenegraph

// Type names which of the Controller's three trees a node belongs to, and
// doubles as the "role" passed into Node.update: NoType means "this path
// does not carry an object of this tree's type".
type Type int

const (
	NoType Type = iota
	Camera
	Light
	Object
)

func (t Type) String() string {
	switch t {
	case Camera:
		return "camera"
	case Light:
		return "light"
	case Object:
		return "object"
	default:
		return "none"
	}
}
