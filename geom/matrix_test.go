package geom

import "testing"

func TestMulIdentity(t *testing.T) {
	local := Translation(1, 2, 3)
	out := Mul(Identity, local)
	if !out.Equal(local) {
		t.Fatalf("identity * local should equal local, got %v", out)
	}
}

func TestMulComposesTranslations(t *testing.T) {
	parent := Translation(1, 0, 0)
	local := Translation(0, 1, 0)
	out := Mul(parent, local)
	want := Translation(1, 1, 0)
	if !out.Equal(want) {
		t.Fatalf("got %v, want %v", out, want)
	}
}

func TestBoxIsEmpty(t *testing.T) {
	if !(Box{}).IsEmpty() {
		t.Fatal("zero-value box should be empty")
	}
	b := Box{Min: [3]float64{-1, -1, -1}, Max: [3]float64{1, 1, 1}}
	if b.IsEmpty() {
		t.Fatal("box with positive extent should not be empty")
	}
}
