// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Package controller implements Controller (spec §4.4): the coordinator
// that owns the three mirror trees, translates upstream/context change
// notifications into the dirty bitmask, and drives one update pass at a
// time over them.
package controller

import (
	"log/slog"

	"github.com/pb33f/scenegraph/traversal"
)

// Config holds the tunables a Controller is constructed with.
type Config struct {
	logger       *slog.Logger
	poolSize     int
	minExpansion int
}

// Option configures a Controller at construction time.
type Option func(*Config)

// WithLogger installs a structured logger. The default discards all
// output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.logger = logger }
}

// WithPoolSize bounds the number of concurrent traversal workers. <= 0
// defaults to one worker per core (traversal.DefaultWorkers).
func WithPoolSize(n int) Option {
	return func(c *Config) { c.poolSize = n }
}

// WithMinimumExpansionDepth sets the initial minimum expansion depth
// (spec §4.1 step 9); every path at or above this depth is treated as
// expanded regardless of the explicit expansion set.
func WithMinimumExpansionDepth(n int) Option {
	return func(c *Config) { c.minExpansion = n }
}

func newConfig(opts []Option) *Config {
	c := &Config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Config) newPool() *traversal.Pool {
	return traversal.NewPool(c.poolSize)
}
