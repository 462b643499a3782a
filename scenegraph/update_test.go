package scenegraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pb33f/scenegraph/dirty"
	"github.com/pb33f/scenegraph/render/fake"
	"github.com/pb33f/scenegraph/scene"
	"github.com/pb33f/scenegraph/scenegraph"
	"github.com/pb33f/scenegraph/scenetest"
	"github.com/pb33f/scenegraph/sgctx"
)

const meshFixture = `
locations:
  "/":
    childNames: ["mesh"]
  "/mesh":
    object:
      kind: box
      data:
        size: 2
    childNames: []
`

const groupFixture = `
locations:
  "/":
    childNames: ["group"]
  "/group":
    childNames: ["mesh"]
  "/group/mesh":
    object:
      kind: box
      data:
        size: 1
    childNames: []
`

func newTestEnv(t *testing.T, yamlDoc string, backend *fake.Backend) (*sgctx.Env, *scenetest.FixtureScene) {
	t.Helper()
	fs, err := scenetest.ParseFixture([]byte(yamlDoc))
	require.NoError(t, err)
	return &sgctx.Env{
		Scene:    fs,
		Renderer: backend,
		Stats:    &sgctx.Stats{},
	}, fs
}

func TestUpdateRootWithNoObjectCreatesNoHandle(t *testing.T) {
	backend := fake.New("test")
	env, _ := newTestEnv(t, meshFixture, backend)
	root := scenegraph.NewRoot()

	changed, err := root.Update(context.Background(), env, scene.Path{}, scenegraph.Object, dirty.All, dirty.None)
	require.NoError(t, err)
	assert.True(t, changed.Any(dirty.ChildNames))
	assert.Empty(t, backend.Live())
	require.Len(t, root.Children, 1)
	assert.Equal(t, "mesh", root.Children[0].Name)
}

func TestUpdateChildCreatesObjectHandle(t *testing.T) {
	backend := fake.New("test")
	env, _ := newTestEnv(t, meshFixture, backend)
	root := scenegraph.NewRoot()
	_, err := root.Update(context.Background(), env, scene.Path{}, scenegraph.Object, dirty.All, dirty.None)
	require.NoError(t, err)

	child := root.Children[0]
	changed, err := child.Update(context.Background(), env, scene.Path{"mesh"}, scenegraph.Object, dirty.All, dirty.All)
	require.NoError(t, err)
	assert.True(t, changed.Any(dirty.Object))
	assert.Contains(t, backend.Live(), "/mesh")
	require.NotNil(t, child.ObjectHandle)
}

func TestVisibilityGateClearsSubtree(t *testing.T) {
	backend := fake.New("test")
	fs, err := scenetest.ParseFixture([]byte(meshFixture))
	require.NoError(t, err)
	env := &sgctx.Env{Scene: fs, Renderer: backend, Stats: &sgctx.Stats{}}

	root := scenegraph.NewRoot()
	_, err = root.Update(context.Background(), env, scene.Path{}, scenegraph.Object, dirty.All, dirty.None)
	require.NoError(t, err)
	child := root.Children[0]
	_, err = child.Update(context.Background(), env, scene.Path{"mesh"}, scenegraph.Object, dirty.All, dirty.All)
	require.NoError(t, err)
	require.Contains(t, backend.Live(), "/mesh")

	fs.SetVisible(scene.Path{"mesh"}, false)
	changed, err := child.Update(context.Background(), env, scene.Path{"mesh"}, scenegraph.Object, dirty.Attributes, dirty.None)
	require.NoError(t, err)
	assert.True(t, changed.Any(dirty.Attributes))
	assert.True(t, child.Cleared)
	assert.Nil(t, child.ObjectHandle)
	assert.Contains(t, backend.Released(), "/mesh")
}

func TestAttributeOnlyFastPathRetagsInPlace(t *testing.T) {
	backend := fake.New("test")
	fs, err := scenetest.ParseFixture([]byte(meshFixture))
	require.NoError(t, err)
	env := &sgctx.Env{Scene: fs, Renderer: backend, Stats: &sgctx.Stats{}}

	root := scenegraph.NewRoot()
	_, _ = root.Update(context.Background(), env, scene.Path{}, scenegraph.Object, dirty.All, dirty.None)
	child := root.Children[0]
	_, err = child.Update(context.Background(), env, scene.Path{"mesh"}, scenegraph.Object, dirty.All, dirty.All)
	require.NoError(t, err)
	originalHandle := child.ObjectHandle

	fs.SetAttribute(scene.Path{"mesh"}, "gl:color", "red")
	changed, err := child.Update(context.Background(), env, scene.Path{"mesh"}, scenegraph.Object, dirty.Attributes, dirty.None)
	require.NoError(t, err)
	assert.True(t, changed.Any(dirty.Attributes))
	assert.False(t, changed.Any(dirty.Object), "retag must not report an object rebuild")
	assert.Same(t, originalHandle, child.ObjectHandle, "retag keeps the same handle identity")
	assert.NotContains(t, backend.Released(), "/mesh")
}

func TestAttributeOnlyFastPathRebuildsOnRetagRefusal(t *testing.T) {
	backend := fake.New("test")
	backend.RefuseRetag = true
	fs, err := scenetest.ParseFixture([]byte(meshFixture))
	require.NoError(t, err)
	env := &sgctx.Env{Scene: fs, Renderer: backend, Stats: &sgctx.Stats{}}

	root := scenegraph.NewRoot()
	_, _ = root.Update(context.Background(), env, scene.Path{}, scenegraph.Object, dirty.All, dirty.None)
	child := root.Children[0]
	_, err = child.Update(context.Background(), env, scene.Path{"mesh"}, scenegraph.Object, dirty.All, dirty.All)
	require.NoError(t, err)

	fs.SetAttribute(scene.Path{"mesh"}, "gl:color", "blue")
	changed, err := child.Update(context.Background(), env, scene.Path{"mesh"}, scenegraph.Object, dirty.Attributes, dirty.None)
	require.NoError(t, err)
	assert.True(t, changed.Any(dirty.Object), "a refused retag must fall back to a rebuild")
	assert.Contains(t, backend.Released(), "/mesh")
}

func TestChildrenRenameDiscardsAndRecreates(t *testing.T) {
	backend := fake.New("test")
	fs, err := scenetest.ParseFixture([]byte(meshFixture))
	require.NoError(t, err)
	env := &sgctx.Env{Scene: fs, Renderer: backend, Stats: &sgctx.Stats{}}

	root := scenegraph.NewRoot()
	_, err = root.Update(context.Background(), env, scene.Path{}, scenegraph.Object, dirty.All, dirty.None)
	require.NoError(t, err)
	firstChild := root.Children[0]

	fs.SetChildNames(scene.Path{}, []string{"renamed"})
	changed, err := root.Update(context.Background(), env, scene.Path{}, scenegraph.Object, dirty.ChildNames, dirty.None)
	require.NoError(t, err)
	assert.True(t, changed.Any(dirty.ChildNames))
	require.Len(t, root.Children, 1)
	assert.Equal(t, "renamed", root.Children[0].Name)
	assert.NotSame(t, firstChild, root.Children[0], "a name change must discard, not reuse, the old child")
}

func TestExpansionCreatesAndReleasesBoundHandle(t *testing.T) {
	backend := fake.New("test")
	fs, err := scenetest.ParseFixture([]byte(groupFixture))
	require.NoError(t, err)

	root := scenegraph.NewRoot()
	envUnexpanded := &sgctx.Env{Scene: fs, Renderer: backend, Stats: &sgctx.Stats{}, MinimumExpansionDepth: 0}
	_, err = root.Update(context.Background(), envUnexpanded, scene.Path{}, scenegraph.Object, dirty.All, dirty.None)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	group := root.Children[0]

	_, err = group.Update(context.Background(), envUnexpanded, scene.Path{"group"}, scenegraph.Object, dirty.All, dirty.All)
	require.NoError(t, err)
	assert.False(t, group.Expanded)
	assert.NotNil(t, group.BoundHandle)
	assert.Contains(t, backend.Live(), "/group/__unexpandedChildren__")

	envExpanded := &sgctx.Env{Scene: fs, Renderer: backend, Stats: &sgctx.Stats{}, MinimumExpansionDepth: 5}
	_, err = group.Update(context.Background(), envExpanded, scene.Path{"group"}, scenegraph.Object, dirty.Expansion, dirty.None)
	require.NoError(t, err)
	assert.True(t, group.Expanded)
	assert.Nil(t, group.BoundHandle)
	assert.Contains(t, backend.Released(), "/group/__unexpandedChildren__")
}
