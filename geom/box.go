// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package geom

// Box is an axis-aligned bounding box in the local space of whatever path
// it was queried for, used only to build the wireframe "unexpanded
// children" proxy geometry (spec §4.1 step 10).
type Box struct {
	Min, Max [3]float64
}

// Empty is a degenerate box with no extent, centered at the origin.
var Empty = Box{}

// IsEmpty reports whether b has zero (or inverted) extent on every axis.
func (b Box) IsEmpty() bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] > b.Min[i] {
			return false
		}
	}
	return true
}
