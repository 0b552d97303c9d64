package list

import "testing"

func TestPushHeadAndPushTailOrder(t *testing.T) {
	l := New[int]()
	l.PushTail(2)
	l.PushTail(3)
	l.PushHead(1)

	var got []int
	l.Each(func(link *Link[int]) {
		got = append(got, link.Value())
	})
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Each() visited %v, want %v", got, want)
	}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("Each() visited %v, want %v", got, want)
		}
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
}

func TestFindReturnsFirstMatch(t *testing.T) {
	l := New[int]()
	l.PushTail(10)
	l.PushTail(20)
	l.PushTail(30)

	link := l.Find(func(link *Link[int]) bool { return link.Value() == 20 })
	if link == nil || link.Value() != 20 {
		t.Fatalf("Find(==20) did not locate the expected link")
	}
	if l.Find(func(link *Link[int]) bool { return link.Value() == 99 }) != nil {
		t.Fatalf("Find(==99) on a list without 99: expected nil")
	}
}

func TestPopSelfUnlinksFromMiddle(t *testing.T) {
	l := New[int]()
	l.PushTail(1)
	middle := l.PushTail(2)
	l.PushTail(3)

	middle.PopSelf()

	var got []int
	l.Each(func(link *Link[int]) {
		got = append(got, link.Value())
	})
	want := []int{1, 3}
	if len(got) != len(want) {
		t.Fatalf("Each() after popping the middle link = %v, want %v", got, want)
	}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("Each() after popping the middle link = %v, want %v", got, want)
		}
	}
	if middle.GetList() != nil {
		t.Fatalf("GetList() on a popped link: expected nil")
	}
}

func TestPopSelfUnlinksHeadAndTail(t *testing.T) {
	l := New[int]()
	head := l.PushTail(1)
	l.PushTail(2)
	tail := l.PushTail(3)

	head.PopSelf()
	if l.PeekHead().Value() != 2 {
		t.Fatalf("PeekHead() after popping the original head = %d, want 2", l.PeekHead().Value())
	}

	tail.PopSelf()
	if l.PeekTail().Value() != 2 {
		t.Fatalf("PeekTail() after popping the original tail = %d, want 2", l.PeekTail().Value())
	}
}

func TestPopSelfOnSoleElementEmptiesList(t *testing.T) {
	l := New[int]()
	only := l.PushTail(42)
	only.PopSelf()

	if l.PeekHead() != nil || l.PeekTail() != nil {
		t.Fatalf("list after popping its only element: expected both PeekHead and PeekTail to be nil")
	}
	if l.Len() != 0 {
		t.Fatalf("Len() after popping the only element = %d, want 0", l.Len())
	}
}

func TestSetValueOverwritesInPlace(t *testing.T) {
	l := New[int]()
	link := l.PushTail(1)
	link.SetValue(100)
	if link.Value() != 100 {
		t.Fatalf("Value() after SetValue(100) = %d, want 100", link.Value())
	}
}
