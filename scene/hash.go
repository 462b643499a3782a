// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package scene

import "github.com/cespare/xxhash/v2"

// Hash128 is an opaque content fingerprint for a scene value (attributes,
// transform, object payload, child-name list). Two values with equal
// Hash128 are assumed identical; it is never used as a value itself, only
// to short-circuit recomputation.
type Hash128 [2]uint64

// Zero is the fingerprint of "nothing evaluated yet". It never equals the
// hash of a real value, since Hasher always writes at least one byte.
var Zero Hash128

// Hasher accumulates bytes into a Hash128. The zero value is ready to use.
type Hasher struct {
	a, b xxhash.Digest
	init bool
}

func (h *Hasher) ensure() {
	if !h.init {
		h.a.Reset()
		h.b.Reset()
		// Seed the second digest differently so the two halves of the
		// fingerprint don't degenerate into duplicates of each other.
		_, _ = h.b.Write([]byte{0x01})
		h.init = true
	}
}

// Write feeds bytes into the fingerprint. Order matters: callers that hash
// a mapping must iterate keys in a stable (e.g. sorted) order.
func (h *Hasher) Write(p []byte) {
	h.ensure()
	_, _ = h.a.Write(p)
	_, _ = h.b.Write(p)
}

// WriteString is a convenience wrapper around Write.
func (h *Hasher) WriteString(s string) {
	h.Write([]byte(s))
}

// Sum returns the accumulated fingerprint.
func (h *Hasher) Sum() Hash128 {
	h.ensure()
	return Hash128{h.a.Sum64(), h.b.Sum64()}
}

// HashBytes is a convenience one-shot fingerprint of a single byte slice.
func HashBytes(p []byte) Hash128 {
	var h Hasher
	h.Write(p)
	return h.Sum()
}

// HashString is a convenience one-shot fingerprint of a single string.
func HashString(s string) Hash128 {
	return HashBytes([]byte(s))
}
