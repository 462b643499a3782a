// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Package intern provides a process-wide string interner, used to keep
// repeated attribute and render-set names from re-allocating on every
// traversal pass over a wide or deep scene.
package intern

import "sync"

var pool sync.Map

// String returns a canonical, shared copy of s.
func String(s string) string {
	if cached, ok := pool.Load(s); ok {
		return cached.(string)
	}
	pool.Store(s, s)
	return s
}

// Strings interns every element of ss in place and returns ss.
func Strings(ss []string) []string {
	for i, s := range ss {
		ss[i] = String(s)
	}
	return ss
}
