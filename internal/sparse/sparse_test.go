package sparse

import "testing"

func TestSet_Basic(t *testing.T) {
	s := New(16)

	if s.Len() != 0 {
		t.Error("new set should be empty")
	}
	if s.Contains(0) {
		t.Error("empty set should not contain 0")
	}

	if !s.Insert(5) {
		t.Error("first insert should return true")
	}
	if !s.Contains(5) {
		t.Error("set should contain 5 after insert")
	}
	if s.Insert(5) {
		t.Error("duplicate insert should return false")
	}

	s.Insert(10)
	s.Insert(3)
	if s.Len() != 3 {
		t.Errorf("len should be 3, got %d", s.Len())
	}

	s.Remove(5)
	if s.Contains(5) {
		t.Error("5 should be removed")
	}
	if !s.Contains(10) || !s.Contains(3) {
		t.Error("remaining values lost after remove")
	}

	s.Clear()
	if s.Len() != 0 || s.Contains(10) {
		t.Error("clear should empty the set")
	}
}

func TestSet_OutOfRange(t *testing.T) {
	s := New(4)
	tests := []int{-1, 4, 100}
	for _, v := range tests {
		if s.Insert(v) {
			t.Errorf("Insert(%d) = true, want false", v)
		}
		if s.Contains(v) {
			t.Errorf("Contains(%d) = true, want false", v)
		}
	}
}

func TestSet_StaleSparseEntry(t *testing.T) {
	s := New(8)
	s.Insert(1)
	s.Insert(2)
	s.Clear()
	s.Insert(2)
	// sparse[1] still points at index 0, which now holds 2
	if s.Contains(1) {
		t.Error("stale sparse entry reported as member")
	}
}
