package ring

import (
	"reflect"
	"testing"
)

func TestBuffer_AppendBelowCapacity(t *testing.T) {
	b := New[int](5)
	b.Append(1)
	b.Append(2)
	b.Append(3)

	if b.Len() != 3 {
		t.Fatalf("expected len 3, got %d", b.Len())
	}
	if got := b.Oldest(0); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
	if got := b.Newest(0); !reflect.DeepEqual(got, []int{3, 2, 1}) {
		t.Errorf("expected [3 2 1], got %v", got)
	}
}

func TestBuffer_EvictsOldestWhenFull(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 5; i++ {
		b.Append(i)
	}

	if b.Len() != 3 {
		t.Fatalf("expected len 3, got %d", b.Len())
	}
	if got := b.Oldest(0); !reflect.DeepEqual(got, []int{3, 4, 5}) {
		t.Errorf("expected [3 4 5], got %v", got)
	}
}

func TestBuffer_NewestWithLimit(t *testing.T) {
	b := New[string](4)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		b.Append(s)
	}

	if got := b.Newest(2); !reflect.DeepEqual(got, []string{"e", "d"}) {
		t.Errorf("expected [e d], got %v", got)
	}
	if got := b.Newest(100); !reflect.DeepEqual(got, []string{"e", "d", "c", "b"}) {
		t.Errorf("expected full newest-first view, got %v", got)
	}
}

func TestBuffer_MinimumCapacity(t *testing.T) {
	b := New[int](0)
	b.Append(1)
	b.Append(2)

	if b.Cap() != 1 {
		t.Fatalf("expected cap 1, got %d", b.Cap())
	}
	if got := b.Oldest(0); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("expected [2], got %v", got)
	}
}

func TestBuffer_Do(t *testing.T) {
	b := New[int](3)
	for i := 1; i <= 4; i++ {
		b.Append(i)
	}

	var sum int
	b.Do(func(v int) { sum += v })
	if sum != 9 {
		t.Errorf("expected sum 9, got %d", sum)
	}
}
