// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/scenegraph"
	"github.com/pb33f/scenegraph/sgctx"
	"github.com/pb33f/scenegraph/traversal"
)

// updateInternal implements spec §4.4's five-step update pass.
func (c *Controller) updateInternal(ctx context.Context, progress ProgressFunc) error {
	c.mu.Lock()
	if c.scene == nil {
		c.mu.Unlock()
		return errors.New("scenegraph: no scene attached")
	}
	s := c.scene
	d := c.dirty
	logger := c.logger
	c.mu.Unlock()

	ctx = context.WithValue(ctx, scene.ContextRendererKey, c.renderer.Name())

	var cameraGlobalsChanged bool
	var globals *scene.Globals

	// Steps 1-2: globals and render sets are independent upstream reads,
	// so a pass that needs both fetches them concurrently - the same
	// fan-out-then-join conc.WaitGroup gives the teacher's schema/
	// parameter walkers (model/walk_model.go), just two legs instead of
	// many.
	fetchGlobals := d.Any(dirty.Globals)
	fetchSets := d.Any(dirty.Sets)

	var globalsErr, setsErr error
	var sets scene.Sets

	var wg conc.WaitGroup
	if fetchGlobals {
		wg.Go(func() {
			globals, globalsErr = s.Globals(ctx)
		})
	}
	if fetchSets {
		wg.Go(func() {
			sets, setsErr = s.Sets(ctx)
		})
	}
	wg.Wait()

	if fetchGlobals {
		if globalsErr != nil {
			return c.handlePassError(ctx, globalsErr, progress)
		}
		for name, value := range globals.Options {
			c.renderer.Option(name, value)
		}
		for name, spec := range globals.Outputs {
			c.renderer.Output(name, spec)
		}

		c.mu.Lock()
		prior := c.globals
		cameraGlobalsChanged = prior == nil || !prior.Camera.Equal(globals.Camera)
		c.globals = globals
		c.mu.Unlock()
	} else {
		c.mu.Lock()
		globals = c.globals
		c.mu.Unlock()
	}

	if fetchSets {
		if setsErr != nil {
			return c.handlePassError(ctx, setsErr, progress)
		}
		c.mu.Lock()
		if c.renderSets.Update(sets) {
			d |= dirty.RenderSets
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	env := &sgctx.Env{
		Scene:                 s,
		Renderer:              c.renderer,
		RenderSets:            c.renderSets,
		Globals:               globals,
		Logger:                logger,
		ExpandedPaths:         c.expandedPaths,
		MinimumExpansionDepth: c.minExpansion,
		Stats:                 &sgctx.Stats{},
		FailedPaths:           &sync.Map{},
	}
	cameraRoot, lightRoot, objectRoot := c.cameraRoot, c.lightRoot, c.objectRoot
	pool := c.pool
	c.mu.Unlock()

	if cameraGlobalsChanged {
		cameraRoot.ClearSubtree()
	}

	// Step 3: three trees, strictly sequential - some backends require
	// every camera and light declared before any object geometry.
	trees := []struct {
		root *scenegraph.Node
		typ  scenegraph.Type
	}{
		{cameraRoot, scenegraph.Camera},
		{lightRoot, scenegraph.Light},
		{objectRoot, scenegraph.Object},
	}

	for _, t := range trees {
		if err := traversal.Run(ctx, env, pool, t.root, t.typ, scene.Path{}, d, dirty.None, func(status traversal.Status, path scene.Path, changed dirty.Component) {
			if progress != nil {
				progress(status, path, changed)
			}
		}); err != nil {
			return c.handlePassError(ctx, err, progress)
		}
	}

	// Step 4: default camera refresh.
	if cameraGlobalsChanged {
		if err := c.defaultCamera.refresh(globals); err != nil {
			return c.handlePassError(ctx, err, progress)
		}
	}

	// Step 5: clear dirty mask, clear updateRequired, report completion.
	failed := map[string]error{}
	env.FailedPaths.Range(func(k, v any) bool {
		failed[k.(string)] = v.(error)
		return true
	})

	c.mu.Lock()
	c.dirty = dirty.None
	c.updateRequired = false
	c.stats = env.Stats.Snapshot()
	c.failedPaths = failed
	c.mu.Unlock()

	if progress != nil {
		progress(traversal.Completed, scene.Path{}, dirty.None)
	}
	return nil
}

// handlePassError implements spec §7's error-kind dispatch for a pass in
// flight: a cancellation leaves updateRequired set (the next pass resumes
// the unfinished work); anything else clears it, so a deterministic
// upstream failure doesn't spin the caller's retry loop forever.
func (c *Controller) handlePassError(ctx context.Context, err error, progress ProgressFunc) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if progress != nil {
			progress(traversal.Cancelled, scene.Path{}, dirty.None)
		}
		return ErrCancelled
	}

	c.mu.Lock()
	c.updateRequired = false
	c.mu.Unlock()

	if progress != nil {
		progress(traversal.Errored, scene.Path{}, dirty.None)
	}
	return err
}
