package traversal_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/render/fake"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/scenegraph"
	"github.com/pb33f/scenegraph/scenetest"
	"github.com/pb33f/scenegraph/sgctx"
	"github.com/pb33f/scenegraph/traversal"
)

const treeFixture = `
locations:
  "/":
    childNames: ["a", "b"]
  "/a":
    object:
      kind: box
      data: {}
    childNames: []
  "/b":
    object:
      kind: box
      data: {}
    childNames: []
`

func newEnv(t *testing.T, yamlDoc string, backend *fake.Backend) (*sgctx.Env, *scenetest.FixtureScene) {
	t.Helper()
	fs, err := scenetest.ParseFixture([]byte(yamlDoc))
	require.NoError(t, err)
	return &sgctx.Env{
		Scene:       fs,
		Renderer:    backend,
		Stats:       &sgctx.Stats{},
		FailedPaths: &sync.Map{},
	}, fs
}

func TestRunVisitsEntireTree(t *testing.T) {
	backend := fake.New("test")
	env, _ := newEnv(t, treeFixture, backend)
	root := scenegraph.NewRoot()
	pool := traversal.NewPool(2)
	defer pool.Shutdown()

	var mu sync.Mutex
	var visited []string
	err := traversal.Run(context.Background(), env, pool, root, scenegraph.Object, scene.Path{}, dirty.All, dirty.None, func(status traversal.Status, path scene.Path, changed dirty.Component) {
		if status == traversal.Running {
			mu.Lock()
			visited = append(visited, path.String())
			mu.Unlock()
		}
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/", "/a", "/b"}, visited)
	assert.ElementsMatch(t, []string{"/a", "/b"}, backend.Live())
	assert.Equal(t, int64(3), env.Stats.Snapshot().NodesVisited)
}

func TestRunRespectsCancelledContext(t *testing.T) {
	backend := fake.New("test")
	env, _ := newEnv(t, treeFixture, backend)
	root := scenegraph.NewRoot()
	pool := traversal.NewPool(2)
	defer pool.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := traversal.Run(ctx, env, pool, root, scenegraph.Object, scene.Path{}, dirty.All, dirty.None, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, backend.Live(), "a cancelled pass must not create any handle")
}

type erroringScene struct {
	*scenetest.FixtureScene
	errorPath scene.Path
}

func (s *erroringScene) ObjectHash(ctx context.Context, path scene.Path) (scene.Hash128, error) {
	if path.Equal(s.errorPath) {
		return scene.Hash128{}, errors.New("synthetic upstream failure")
	}
	return s.FixtureScene.ObjectHash(ctx, path)
}

func TestRunRecordsPerNodeFailureAndContinuesSiblings(t *testing.T) {
	backend := fake.New("test")
	fs, err := scenetest.ParseFixture([]byte(treeFixture))
	require.NoError(t, err)
	es := &erroringScene{FixtureScene: fs, errorPath: scene.Path{"a"}}
	env := &sgctx.Env{Scene: es, Renderer: backend, Stats: &sgctx.Stats{}, FailedPaths: &sync.Map{}}

	root := scenegraph.NewRoot()
	pool := traversal.NewPool(2)
	defer pool.Shutdown()

	runErr := traversal.Run(context.Background(), env, pool, root, scenegraph.Object, scene.Path{}, dirty.All, dirty.None, nil)
	require.NoError(t, runErr, "a single node failure must not abort the pass")

	failed, ok := env.FailedPaths.Load("/a")
	assert.True(t, ok, "the failing path should be recorded")
	assert.Error(t, failed.(error))

	assert.Contains(t, backend.Live(), "/b", "the sibling must still be processed")
	assert.NotContains(t, backend.Live(), "/a")
}

// chainFixture builds a single-child-per-level chain "/n0/n1/.../n{depth-1}"
// so a test can exceed a pool's worker count in depth, not just width.
func chainFixture(depth int) string {
	names := make([]string, depth)
	for i := range names {
		names[i] = fmt.Sprintf("n%d", i)
	}

	doc := "locations:\n"
	path := ""
	for i := 0; i <= depth; i++ {
		key := "/"
		if i > 0 {
			path += "/" + names[i-1]
			key = path
		}
		doc += fmt.Sprintf("  %q:\n", key)
		if i < depth {
			doc += fmt.Sprintf("    childNames: [%q]\n", names[i])
		} else {
			doc += "    childNames: []\n"
		}
		if i > 0 {
			doc += "    object:\n      kind: box\n      data: {}\n"
		}
	}
	return doc
}

func TestRunHandlesChainDeeperThanWorkerCount(t *testing.T) {
	const depth = 8
	backend := fake.New("test")
	fs, err := scenetest.ParseFixture([]byte(chainFixture(depth)))
	require.NoError(t, err)
	env := &sgctx.Env{Scene: fs, Renderer: backend, Stats: &sgctx.Stats{}, FailedPaths: &sync.Map{}, MinimumExpansionDepth: depth}

	root := scenegraph.NewRoot()
	pool := traversal.NewPool(2) // fewer workers than chain depth
	defer pool.Shutdown()

	done := make(chan error, 1)
	go func() {
		done <- traversal.Run(context.Background(), env, pool, root, scenegraph.Object, scene.Path{}, dirty.All, dirty.None, nil)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run deadlocked on a chain deeper than the pool's worker count")
	}

	path := ""
	for i := 0; i < depth; i++ {
		path += fmt.Sprintf("/n%d", i)
		assert.Contains(t, backend.Live(), path)
	}
	assert.Equal(t, int64(depth+1), env.Stats.Snapshot().NodesVisited)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := traversal.NewPool(2)
	defer pool.Shutdown()
	assert.Equal(t, 2, pool.Workers())

	var wg sync.WaitGroup
	var mu sync.Mutex
	active, maxActive := 0, 0
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		pool.SubmitOrRun(func() {
			defer wg.Done()
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			<-start
			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	close(start)
	wg.Wait()
	assert.LessOrEqual(t, maxActive, pool.Workers(), "no more than Workers() goroutines should run concurrently")
}
