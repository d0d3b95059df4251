package bitset

import "testing"

func TestAddHas(t *testing.T) {
	s := New(70)
	s.Add(0)
	s.Add(63)
	s.Add(64)
	s.Add(69)

	for _, i := range []int{0, 63, 64, 69} {
		if !s.Has(i) {
			t.Errorf("expected bit %d to be set", i)
		}
	}
	for _, i := range []int{1, 2, 62, 65, 68} {
		if s.Has(i) {
			t.Errorf("expected bit %d to be unset", i)
		}
	}
	if s.Count() != 4 {
		t.Errorf("Count() = %d, want 4", s.Count())
	}
}

func TestUnionChanged(t *testing.T) {
	a := New(10)
	a.Add(1)
	b := New(10)
	b.Add(1)
	b.Add(5)

	if changed := a.UnionChanged(b); !changed {
		t.Fatal("expected first union to report a change")
	}
	if !a.Has(5) {
		t.Fatal("expected bit 5 to propagate into a")
	}
	if changed := a.UnionChanged(b); changed {
		t.Fatal("expected second identical union to report no change")
	}
}

func TestEqualAndCopy(t *testing.T) {
	a := New(10)
	a.Add(3)
	a.Add(7)

	cp := a.Copy()
	if !a.Equal(cp) {
		t.Fatal("copy should be equal to original")
	}
	cp.Add(9)
	if a.Equal(cp) {
		t.Fatal("mutating the copy should not affect the original")
	}
}

func TestElements(t *testing.T) {
	a := New(10)
	a.Add(4)
	a.Add(2)
	a.Add(9)

	got := a.Elements()
	want := []int{2, 4, 9}
	if len(got) != len(want) {
		t.Fatalf("Elements() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Elements() = %v, want %v", got, want)
		}
	}
}
