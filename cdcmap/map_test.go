package cdcmap

import (
	"testing"

	"cdcset/cdcset"
)

func intLess(a, b int) bool { return a < b }

func TestInsertGetRoundTrip(t *testing.T) {
	m := New[int, string](intLess)

	old, hadOld := m.Insert(1, "one")
	if hadOld {
		t.Fatalf("Insert(1, \"one\") on an empty map: expected hadOld=false, got old=%q", old)
	}

	v, ok := m.Get(1)
	if !ok || v != "one" {
		t.Fatalf("Get(1) = (%q, %v), want (\"one\", true)", v, ok)
	}
}

func TestInsertOverwritesValueButOrdersByKeyOnly(t *testing.T) {
	m := New[int, string](intLess)
	m.Insert(1, "first")

	old, hadOld := m.Insert(1, "second")
	if !hadOld || old != "first" {
		t.Fatalf("Insert(1, \"second\") replacing \"first\" = (%q, %v), want (\"first\", true)", old, hadOld)
	}

	v, ok := m.Get(1)
	if !ok || v != "second" {
		t.Fatalf("Get(1) after overwrite = (%q, %v), want (\"second\", true)", v, ok)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() after overwriting an existing key = %d, want 1 (value never participates in key comparison)", m.Len())
	}
}

func TestContainsKeyAndRemove(t *testing.T) {
	m := New[int, string](intLess)
	m.Insert(1, "one")
	m.Insert(2, "two")

	if !m.ContainsKey(1) {
		t.Fatalf("ContainsKey(1): expected true")
	}

	v, ok := m.Remove(1)
	if !ok || v != "one" {
		t.Fatalf("Remove(1) = (%q, %v), want (\"one\", true)", v, ok)
	}
	if m.ContainsKey(1) {
		t.Fatalf("ContainsKey(1) after Remove(1): expected false")
	}
	if _, ok := m.Remove(1); ok {
		t.Fatalf("Remove(1) a second time: expected ok=false")
	}
}

func TestIterYieldsEntriesOrderedByKey(t *testing.T) {
	m := New[int, string](intLess)
	m.Insert(3, "c")
	m.Insert(1, "a")
	m.Insert(2, "b")

	it := m.Iter()
	defer it.Close()

	wantKeys := []int{1, 2, 3}
	wantValues := []string{"a", "b", "c"}
	for i := 0; i < 3; i++ {
		e, ok := it.Next()
		if !ok {
			t.Fatalf("Iter() exhausted early at i=%d", i)
		}
		if e.Key != wantKeys[i] || e.Value != wantValues[i] {
			t.Fatalf("Iter() entry %d = {%d %q}, want {%d %q}", i, e.Key, e.Value, wantKeys[i], wantValues[i])
		}
	}
	if _, ok := it.Next(); ok {
		t.Fatalf("Iter() after 3 entries: expected exhaustion")
	}
}

func TestRangeFiltersByKeyBounds(t *testing.T) {
	m := New[int, int](intLess)
	for i := 0; i < 10; i++ {
		m.Insert(i, i*i)
	}

	it := m.Range(
		cdcset.Bound[int]{Kind: cdcset.Included, Value: 2},
		cdcset.Bound[int]{Kind: cdcset.Excluded, Value: 5},
	)
	defer it.Close()

	var keys []int
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		keys = append(keys, e.Key)
		if e.Value != e.Key*e.Key {
			t.Fatalf("entry for key %d has value %d, want %d", e.Key, e.Value, e.Key*e.Key)
		}
	}
	want := []int{2, 3, 4}
	if len(keys) != len(want) {
		t.Fatalf("Range([2,5)) keys = %v, want %v", keys, want)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("Range([2,5)) keys = %v, want %v", keys, want)
		}
	}
}

func TestInsertCDCEmitsEvents(t *testing.T) {
	m := New[int, string](intLess)
	_, _, events := m.InsertCDC(1, "one")
	if len(events) == 0 {
		t.Fatalf("InsertCDC on an empty map produced no events")
	}
}
