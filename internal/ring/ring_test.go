package ring

import "testing"

func TestPushPopOrderPreserved(t *testing.T) {
	r := New(8, 16)

	items := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, it := range items {
		if err := r.Push(it); err != nil {
			t.Fatalf("Push(%s): %v", it, err)
		}
	}

	buf := make([]byte, 16)
	for _, want := range items {
		n, err := r.Pop(buf)
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if string(buf[:n]) != string(want) {
			t.Fatalf("Pop = %q, want %q", buf[:n], want)
		}
	}
}

func TestPopEmpty(t *testing.T) {
	r := New(4, 8)
	if _, err := r.Pop(make([]byte, 8)); err != ErrEmpty {
		t.Fatalf("Pop on empty ring = %v, want ErrEmpty", err)
	}
}

func TestPushFullNeverOverwrites(t *testing.T) {
	r := New(2, 8)
	if err := r.Push([]byte("a")); err != nil {
		t.Fatalf("Push 1: %v", err)
	}
	if err := r.Push([]byte("b")); err != nil {
		t.Fatalf("Push 2: %v", err)
	}
	if err := r.Push([]byte("c")); err != ErrFull {
		t.Fatalf("Push 3 = %v, want ErrFull", err)
	}

	buf := make([]byte, 8)
	n, _ := r.Pop(buf)
	if string(buf[:n]) != "a" {
		t.Fatalf("first pop = %q, want a", buf[:n])
	}

	// Now there's room for exactly one more.
	if err := r.Push([]byte("c")); err != nil {
		t.Fatalf("Push after drain: %v", err)
	}
	if err := r.Push([]byte("d")); err != ErrFull {
		t.Fatalf("Push over capacity again = %v, want ErrFull", err)
	}
}

func TestNewPanicsOnNonPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New(3, ...) did not panic")
		}
	}()
	New(3, 8)
}

func TestPushOversizeItemFails(t *testing.T) {
	r := New(4, 4)
	if err := r.Push([]byte("toolong")); err != ErrFull {
		t.Fatalf("Push oversize = %v, want ErrFull", err)
	}
}
