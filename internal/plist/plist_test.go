package plist

import "testing"

func TestOrderPreservedAcrossPushAndPop(t *testing.T) {
	q := New()
	q.PushBack(&Record{Key: 10})
	q.PushBack(&Record{Key: 20})
	q.PushBack(&Record{Key: 30})

	if q.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", q.Len())
	}

	var order []uint32
	q.Each(func(r *Record) { order = append(order, r.Key) })
	want := []uint32{10, 20, 30}
	for i, k := range want {
		if order[i] != k {
			t.Fatalf("order[%d]: got %d, want %d", i, order[i], k)
		}
	}
}

func TestPopByKeyDisjointFromRemaining(t *testing.T) {
	q := New()
	q.PushBack(&Record{Key: 1})
	q.PushBack(&Record{Key: 2})
	q.PushBack(&Record{Key: 3})

	mid := q.Pop(2)
	if mid == nil || mid.Key != 2 {
		t.Fatalf("Pop(2) returned %+v", mid)
	}
	if q.Has(2) {
		t.Fatal("expected key 2 removed")
	}
	if q.Len() != 2 {
		t.Fatalf("Len after pop: got %d, want 2", q.Len())
	}

	var order []uint32
	q.Each(func(r *Record) { order = append(order, r.Key) })
	if len(order) != 2 || order[0] != 1 || order[1] != 3 {
		t.Fatalf("unexpected order after removal: %v", order)
	}
}

func TestDrainIntoMovesAllInOrder(t *testing.T) {
	src, dst := New(), New()
	src.PushBack(&Record{Key: 1})
	src.PushBack(&Record{Key: 2})
	dst.PushBack(&Record{Key: 0})

	src.DrainInto(dst)

	if !src.Empty() {
		t.Fatal("expected src empty after drain")
	}
	var order []uint32
	dst.Each(func(r *Record) { order = append(order, r.Key) })
	want := []uint32{0, 1, 2}
	for i, k := range want {
		if order[i] != k {
			t.Fatalf("dst order[%d]: got %d, want %d", i, order[i], k)
		}
	}
}

func TestPopFrontOnEmptyReturnsNil(t *testing.T) {
	q := New()
	if r := q.PopFront(); r != nil {
		t.Fatalf("expected nil, got %+v", r)
	}
}
