package dirty

import "testing"

func TestAnyAndHas(t *testing.T) {
	c := Attributes | Transform
	if !c.Any(Transform) {
		t.Fatal("Any should see Transform set")
	}
	if c.Any(Object) {
		t.Fatal("Any should not see Object set")
	}
	if !c.Has(Attributes | Transform) {
		t.Fatal("Has should match the exact combination")
	}
	if c.Has(Attributes | Object) {
		t.Fatal("Has should require every bit present")
	}
}

func TestWith(t *testing.T) {
	c := None.With(Bound).With(Expansion)
	if !c.Has(Bound | Expansion) {
		t.Fatalf("With should accumulate bits, got %v", c)
	}
}

func TestAllCoversEveryComponent(t *testing.T) {
	components := []Component{Bound, Transform, Attributes, Object, ChildNames, Globals, Sets, RenderSets, Expansion}
	for _, c := range components {
		if !All.Has(c) {
			t.Fatalf("All should include %v", c)
		}
	}
}
