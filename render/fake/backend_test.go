package fake_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pb33f/scenegraph/render/fake"
	"github.com/pb33f/scenegraph/scene"
)

func TestObjectLifecycle(t *testing.T) {
	b := fake.New("test")
	attrs, err := b.Attributes(scene.Attributes{"color": "red"})
	require.NoError(t, err)

	handle, err := b.Object("/a", "payload", attrs)
	require.NoError(t, err)
	assert.Contains(t, b.Live(), "/a")

	handle.Release()
	assert.NotContains(t, b.Live(), "/a")
	assert.Contains(t, b.Released(), "/a")

	// Release is idempotent.
	handle.Release()
	assert.Equal(t, []string{"/a"}, b.Released())
}

func TestAttributesRetagRefusal(t *testing.T) {
	b := fake.New("test")
	b.RefuseRetag = true
	attrs, _ := b.Attributes(scene.Attributes{})
	handle, err := b.Object("/a", "payload", attrs)
	require.NoError(t, err)

	newAttrs, _ := b.Attributes(scene.Attributes{"color": "blue"})
	assert.False(t, handle.Attributes(newAttrs))
}

func TestNameReusableAfterRelease(t *testing.T) {
	b := fake.New("test")
	attrs, _ := b.Attributes(scene.Attributes{})
	first, err := b.Object("/a", "first", attrs)
	require.NoError(t, err)
	first.Release()

	second, err := b.Object("/a", "second", attrs)
	require.NoError(t, err)
	assert.Contains(t, b.Live(), "/a")
	assert.NotSame(t, first, second)
}
