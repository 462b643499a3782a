// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/render"
	"github.com/pb33f/scenegraph/rendersets"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/scenegraph"
	"github.com/pb33f/scenegraph/sgctx"
	"github.com/pb33f/scenegraph/traversal"
)

// ErrCancelled is the sentinel a pass returns when ctx is cancelled
// mid-flight (spec §4.4, §7). Dirty bits are left exactly as they were;
// the next pass resumes from wherever this one unwound.
var ErrCancelled = errors.New("scenegraph: update cancelled")

// Status mirrors traversal.Status for the pass-level progress callback
// (spec §4.4: Running / Completed / Cancelled / Errored).
type Status = traversal.Status

const (
	Running   = traversal.Running
	Completed = traversal.Completed
	Cancelled = traversal.Cancelled
	Errored   = traversal.Errored
)

// ProgressFunc is invoked as a pass progresses, and once more at the end
// with a terminal status.
type ProgressFunc func(status Status, path scene.Path, changed dirty.Component)

// uiContextPrefix marks context entries the engine never needs to react
// to (spec §4.4: "Context entries prefixed ui: are ignored").
const uiContextPrefix = "ui:"

// Controller is the coordinator described by spec §4.4: it owns the
// three persistent mirror trees, translates upstream and context change
// notifications into the dirty bitmask, and drives one update pass at a
// time over the trees it owns.
type Controller struct {
	mu sync.Mutex // guards every field below; workers only read via Env snapshots

	scene    scene.Scene
	renderer render.Backend
	logger   *slog.Logger
	pool     *traversal.Pool

	ctxVars map[string]any

	expandedPaths map[string]struct{}
	minExpansion  int

	dirty          dirty.Component
	updateRequired bool

	globals    *scene.Globals
	renderSets *rendersets.RenderSets

	cameraRoot *scenegraph.Node
	lightRoot  *scenegraph.Node
	objectRoot *scenegraph.Node

	defaultCamera *defaultCameraManager

	failedPaths map[string]error

	stats sgctx.Snapshot

	cancelBackground context.CancelFunc
	backgroundDone   chan struct{}

	onRequireUpdate func()
}

// New constructs a Controller driving renderer, with no scene attached
// yet (spec §7's Configuration error kind: calling update before
// SetScene surfaces immediately).
func New(renderer render.Backend, opts ...Option) *Controller {
	cfg := newConfig(opts)
	c := &Controller{
		renderer:      renderer,
		logger:        cfg.logger,
		pool:          cfg.newPool(),
		minExpansion:  cfg.minExpansion,
		expandedPaths: map[string]struct{}{},
		renderSets:    rendersets.New(),
		cameraRoot:    scenegraph.NewRoot(),
		lightRoot:     scenegraph.NewRoot(),
		objectRoot:    scenegraph.NewRoot(),
		defaultCamera: newDefaultCameraManager(renderer),
		failedPaths:   map[string]error{},
		dirty:         dirty.All,
	}
	return c
}

// OnUpdateRequired registers a callback fired once per clean->dirty
// transition (spec §4.4's updateRequired observer signal).
func (c *Controller) OnUpdateRequired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRequireUpdate = fn
}

func (c *Controller) markDirty(bits dirty.Component) {
	wasClean := c.dirty == dirty.None
	c.dirty |= bits
	if wasClean && c.dirty != dirty.None {
		c.requestUpdate()
	}
}

// requestUpdate fires the updateRequired signal. Caller must hold c.mu.
func (c *Controller) requestUpdate() {
	c.updateRequired = true
	if c.onRequireUpdate != nil {
		fn := c.onRequireUpdate
		go fn()
	}
}

// SetScene installs the upstream scene evaluator. Dirties AllComponents
// (spec §4.4).
func (c *Controller) SetScene(s scene.Scene) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.scene = s
	c.markDirty(dirty.All)
}

// SetContext replaces the recorded Gaffer-style context variable
// bindings. Any changed entry whose name is not prefixed "ui:" dirties
// AllComponents (spec §4.4's dispatch table); a change confined to
// "ui:"-prefixed entries dirties nothing. The bindings are only compared
// for change detection: they are not passed to the upstream scene.
func (c *Controller) SetContext(vars map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()

	changed := false
	for k, v := range vars {
		if strings.HasPrefix(k, uiContextPrefix) {
			continue
		}
		if old, ok := c.ctxVars[k]; !ok || fmt.Sprint(old) != fmt.Sprint(v) {
			changed = true
			break
		}
	}
	if !changed {
		for k := range c.ctxVars {
			if strings.HasPrefix(k, uiContextPrefix) {
				continue
			}
			if _, ok := vars[k]; !ok {
				changed = true
				break
			}
		}
	}

	c.ctxVars = vars
	if changed {
		c.markDirty(dirty.All)
	}
}

// SetExpandedPaths replaces the exact-match expansion set. Dirties only
// Expansion (spec §4.4).
func (c *Controller) SetExpandedPaths(paths []scene.Path) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p.String()] = struct{}{}
	}
	c.expandedPaths = set
	c.markDirty(dirty.Expansion)
}

// SetMinimumExpansionDepth replaces the minimum expansion depth. Dirties
// only Expansion (spec §4.4).
func (c *Controller) SetMinimumExpansionDepth(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.minExpansion = n
	c.markDirty(dirty.Expansion)
}

// NotifyUpstreamChanged translates one upstream change notification into
// the dirty dispatch table of spec §4.4.
func (c *Controller) NotifyUpstreamChanged(kind UpstreamSignal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	switch kind {
	case SceneIdentityChanged:
		c.requestUpdate()
	default:
		c.markDirty(upstreamDirtyBits[kind])
	}
}

// UpstreamSignal names one upstream change-notification kind (spec
// §4.4's dispatch table).
type UpstreamSignal int

const (
	BoundChanged UpstreamSignal = iota
	TransformChanged
	AttributesChanged
	ObjectChanged
	ChildNamesChanged
	GlobalsChanged
	SetsChanged
	SceneIdentityChanged
)

var upstreamDirtyBits = map[UpstreamSignal]dirty.Component{
	BoundChanged:      dirty.Bound,
	TransformChanged:  dirty.Transform,
	AttributesChanged: dirty.Attributes,
	ObjectChanged:     dirty.Object,
	ChildNamesChanged: dirty.ChildNames,
	GlobalsChanged:    dirty.Globals,
	SetsChanged:       dirty.Sets,
}

// FailedPaths returns the paths that raised a non-cancellation error
// during the most recent pass, keyed by path string, mapped to the error
// observed there (recovered from original_source; not part of the
// distilled algorithm).
func (c *Controller) FailedPaths() map[string]error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]error, len(c.failedPaths))
	for k, v := range c.failedPaths {
		out[k] = v
	}
	return out
}

// Stats returns a snapshot of the most recently completed pass's
// counters.
func (c *Controller) Stats() sgctx.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// cancelLocked cancels any in-flight background pass and blocks until it
// has fully unwound (spec §5: "a cancel request from a setter blocks the
// calling thread until the pass has fully unwound"). Caller must hold
// c.mu... but blocking while holding c.mu would deadlock against the
// background pass's own use of c.mu, so this releases and reacquires it.
func (c *Controller) cancelLocked() {
	if c.cancelBackground == nil {
		return
	}
	cancel := c.cancelBackground
	done := c.backgroundDone
	c.cancelBackground = nil
	c.backgroundDone = nil
	c.mu.Unlock()
	cancel()
	<-done
	c.mu.Lock()
}

// Update runs one synchronous pass on the calling goroutine, after
// cancelling any in-flight background pass.
func (c *Controller) Update(ctx context.Context, progress ProgressFunc) error {
	c.mu.Lock()
	c.cancelLocked()
	c.mu.Unlock()
	return c.updateInternal(ctx, progress)
}

// UpdateInBackground schedules Update on a background goroutine, subject
// to cancellation via the returned handle's Cancel method. Any background
// pass already in flight is cancelled first.
func (c *Controller) UpdateInBackground(progress ProgressFunc) *BackgroundHandle {
	c.mu.Lock()
	c.cancelLocked()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancelBackground = cancel
	c.backgroundDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		_ = c.updateInternal(ctx, progress)
		c.mu.Lock()
		if c.backgroundDone == done {
			c.cancelBackground = nil
			c.backgroundDone = nil
		}
		c.mu.Unlock()
	}()

	return &BackgroundHandle{cancel: cancel, done: done}
}

// BackgroundHandle lets a caller cancel or await a background pass.
type BackgroundHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel requests cancellation of the associated pass.
func (h *BackgroundHandle) Cancel() { h.cancel() }

// Wait blocks until the associated pass has returned.
func (h *BackgroundHandle) Wait() { <-h.done }
