// Package list implements a generic doubly-linked list.
//
// It is the free-buffer pool the CDC durable sink (package cdcsink) uses
// to recycle aligned write buffers instead of allocating a fresh one per
// append. Adapted from the teacher's pkg/list, which served the same
// free/unpinned/pinned triage role for its pager's page buffers.
package list

// List is a doubly-linked list of values of type T.
type List[T any] struct {
	head *Link[T]
	tail *Link[T]
}

// New constructs a new, empty list.
func New[T any]() *List[T] {
	return &List[T]{}
}

// PeekHead returns the head link, or nil if the list is empty.
func (list *List[T]) PeekHead() *Link[T] {
	return list.head
}

// PeekTail returns the tail link, or nil if the list is empty.
func (list *List[T]) PeekTail() *Link[T] {
	return list.tail
}

// Len counts the list by walking it. Intended for tests and small lists;
// callers on a hot path should track length themselves.
func (list *List[T]) Len() int {
	n := 0
	for l := list.head; l != nil; l = l.next {
		n++
	}
	return n
}

// PushHead adds value to the start of the list. Returns the added link.
func (list *List[T]) PushHead(value T) *Link[T] {
	newlink := &Link[T]{list: list, next: list.head, value: value}
	if list.head != nil {
		list.head.prev = newlink
	}
	list.head = newlink
	if list.tail == nil {
		list.tail = newlink
	}
	return newlink
}

// PushTail adds value to the end of the list. Returns the added link.
func (list *List[T]) PushTail(value T) *Link[T] {
	newlink := &Link[T]{list: list, prev: list.tail, value: value}
	if list.tail != nil {
		list.tail.next = newlink
	}
	list.tail = newlink
	if list.head == nil {
		list.head = newlink
	}
	return newlink
}

// Find returns the first link for which f evaluates to true, or nil.
func (list *List[T]) Find(f func(*Link[T]) bool) *Link[T] {
	for l := list.head; l != nil; l = l.next {
		if f(l) {
			return l
		}
	}
	return nil
}

// Each applies f to every link in the list, front to back.
func (list *List[T]) Each(f func(*Link[T])) {
	for l := list.head; l != nil; l = l.next {
		f(l)
	}
}

// Link is one node of a List.
type Link[T any] struct {
	list  *List[T]
	prev  *Link[T]
	next  *Link[T]
	value T
}

// GetList returns the list this link belongs to, or nil once popped.
func (link *Link[T]) GetList() *List[T] {
	return link.list
}

// Value returns the link's value.
func (link *Link[T]) Value() T {
	return link.value
}

// SetValue overwrites the link's value.
func (link *Link[T]) SetValue(value T) {
	link.value = value
}

// Prev returns the previous link, or nil.
func (link *Link[T]) Prev() *Link[T] {
	return link.prev
}

// Next returns the next link, or nil.
func (link *Link[T]) Next() *Link[T] {
	return link.next
}

// PopSelf unlinks this link from its list.
func (link *Link[T]) PopSelf() {
	switch {
	case link.prev == nil && link.next == nil:
		link.list.head = nil
		link.list.tail = nil
	case link.prev == nil:
		link.next.prev = nil
		link.list.head = link.next
	case link.next == nil:
		link.prev.next = nil
		link.list.tail = link.prev
	default:
		link.prev.next = link.next
		link.next.prev = link.prev
	}
	link.list = nil
	link.next = nil
	link.prev = nil
}
