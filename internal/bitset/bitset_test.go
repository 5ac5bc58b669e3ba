package bitset

import (
	"reflect"
	"testing"
)

func TestSet(t *testing.T) {
	var s Set
	if !s.Empty() {
		t.Fatal("zero value should be empty")
	}
	for _, n := range []int{0, 3, 63, 64, 200} {
		s.Add(n)
	}
	for _, n := range []int{0, 3, 63, 64, 200} {
		if !s.Has(n) {
			t.Errorf("Has(%d) = false, want true", n)
		}
	}
	for _, n := range []int{-1, 1, 65, 199, 1000} {
		if s.Has(n) {
			t.Errorf("Has(%d) = true, want false", n)
		}
	}
	if got := s.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}
	if got, want := s.Members(), []int{0, 3, 63, 64, 200}; !reflect.DeepEqual(got, want) {
		t.Errorf("Members() = %v, want %v", got, want)
	}
}

func TestUnion(t *testing.T) {
	var a, b Set
	a.Add(1)
	b.Add(2)
	b.Add(130)
	a.Union(b)
	if got, want := a.Members(), []int{1, 2, 130}; !reflect.DeepEqual(got, want) {
		t.Errorf("Members() = %v, want %v", got, want)
	}
}
