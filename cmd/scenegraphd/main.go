// Copyright 2024 Princess B33f Heavy Industries / Dave Shanley
// SPDX-License-Identifier: BUSL-1.1

// Command scenegraphd is a minimal demo harness: it wires a fixture
// scene.Scene and the in-memory render/fake backend into a
// controller.Controller, runs one update pass, and prints a summary.
// It exists to give the ambient CLI/config stack a concrete place to run -
// the engine itself is a library, not a service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pb33f/scenegraph/controller"
	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/render/fake"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/scenetest"
	"github.com/pb33f/scenegraph/terminal"
)

const demoScene = `
locations:
  "/":
    childNames: ["cam", "light", "geo"]
  "/cam":
    object:
      kind: camera
      data:
        projection: perspective
        fieldOfView: 54
    childNames: []
  "/light":
    object:
      kind: light
      data:
        shader: distant
    childNames: []
  "/geo":
    childNames: ["box", "sphere"]
  "/geo/box":
    object:
      kind: box
      data:
        size: 2
    transform:
      translate: [-1, 0, 0]
    childNames: []
  "/geo/sphere":
    object:
      kind: sphere
      data:
        radius: 1
    transform:
      translate: [1, 0, 0]
    childNames: []
globals:
  attributes:
    gl:primitive:solid: true
sets:
  cameras: ["/cam"]
  lights: ["/light"]
`

func main() {
	fixturePath := flag.String("fixture", "", "path to a YAML scene fixture (defaults to a built-in demo scene)")
	minExpansion := flag.Int("min-expansion-depth", 16, "minimum expansion depth; high enough to expand the whole demo scene")
	backendName := flag.String("backend", "fake", "renderer backend identity reported to the engine")
	noColor := flag.Bool("no-color", false, "disable ANSI colorized summary output")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var scheme terminal.ColorScheme = terminal.TerminalColorScheme{}
	if *noColor {
		scheme = terminal.NoColorScheme{}
	}

	fixtureScene, err := loadFixtureScene(*fixturePath)
	if err != nil {
		logger.Error("failed to load fixture scene", "error", err)
		os.Exit(1)
	}

	backend := fake.New(*backendName)
	ctrl := controller.New(backend,
		controller.WithLogger(logger),
		controller.WithMinimumExpansionDepth(*minExpansion),
	)
	ctrl.SetScene(fixtureScene)

	err = ctrl.Update(context.Background(), func(status controller.Status, path scene.Path, changed dirty.Component) {
		if status == controller.Running && changed != dirty.None {
			logger.Debug("node updated", "path", path.String(), "changed", fmt.Sprintf("%v", changed))
		}
	})
	if err != nil {
		logger.Error("update pass failed", "error", err)
		os.Exit(1)
	}

	stats := ctrl.Stats()
	logger.Info("update pass complete",
		"nodesVisited", stats.NodesVisited,
		"nodesChanged", stats.NodesChanged,
		"handlesCreated", stats.HandlesCreated,
		"handlesReleased", stats.HandlesReleased,
		"liveHandles", len(backend.Live()),
	)

	fmt.Println(scheme.Created(fmt.Sprintf("created:  %d", stats.HandlesCreated)))
	fmt.Println(scheme.Changed(fmt.Sprintf("changed:  %d", stats.NodesChanged)))
	fmt.Println(scheme.Released(fmt.Sprintf("released: %d", stats.HandlesReleased)))
	fmt.Println(scheme.Dimmed(fmt.Sprintf("visited:  %d", stats.NodesVisited)))

	for path, failErr := range ctrl.FailedPaths() {
		logger.Warn("location failed during update", "path", path, "error", failErr)
		fmt.Println(scheme.Failed(fmt.Sprintf("failed:   %s (%v)", path, failErr)))
	}
}

func loadFixtureScene(path string) (*scenetest.FixtureScene, error) {
	if path == "" {
		return scenetest.ParseFixture([]byte(demoScene))
	}
	return scenetest.LoadFixture(path)
}
