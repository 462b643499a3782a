package rendersets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pb33f/scenegraph/scene"
)

func path(segments ...string) scene.Path { return scene.Path(segments) }

func TestMatchExactDescendantAncestor(t *testing.T) {
	rs := New()
	rs.Update(scene.Sets{
		"cameras": {path("world", "cam")},
	})

	assert.True(t, rs.CamerasMatch(path("world", "cam")).Has(Exact))
	assert.True(t, rs.CamerasMatch(path("world")).Has(Descendant))
	assert.False(t, rs.CamerasMatch(path("world")).Has(Exact))
	assert.True(t, rs.CamerasMatch(path("world", "cam", "shape")).Has(Ancestor))
	assert.False(t, rs.CamerasMatch(path("world", "cam", "shape")).Has(Exact))
	assert.Equal(t, None, rs.CamerasMatch(path("elsewhere")))
}

func TestUpdateReportsChange(t *testing.T) {
	rs := New()
	changed := rs.Update(scene.Sets{"cameras": {path("a")}})
	assert.True(t, changed, "first Update from empty should report changed")

	changed = rs.Update(scene.Sets{"cameras": {path("a")}})
	assert.False(t, changed, "identical Update should report no change")

	changed = rs.Update(scene.Sets{"cameras": {path("b")}})
	assert.True(t, changed, "different membership should report changed")
}

func TestSetsAttributeOnlyExposesRenderPrefixedNames(t *testing.T) {
	rs := New()
	rs.Update(scene.Sets{
		"cameras":          {path("cam")},
		"lights":           {path("light")},
		"render:matte":     {path("a")},
		"render:reflection": {path("a")},
	})

	got := rs.SetsAttribute(path("a"))
	assert.ElementsMatch(t, []string{"render:matte", "render:reflection"}, got)
	assert.Empty(t, rs.SetsAttribute(path("cam")))
}

func TestUnknownSetNameMatchesNothing(t *testing.T) {
	rs := New()
	rs.Update(scene.Sets{"cameras": {path("a")}})
	assert.Equal(t, None, rs.Match("nonexistent", path("a")))
}
