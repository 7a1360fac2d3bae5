package cache

// link is one key in a recency ring.
type link[K comparable] struct {
	key        K
	prev, next *link[K]
}

// recency is a circular doubly linked list with a sentinel: root.next is
// the most recently used key and root.prev the least. Not safe for
// concurrent use; the owning cache locks.
type recency[K comparable] struct {
	root link[K]
	n    int
}

func newRecency[K comparable]() *recency[K] {
	r := &recency[K]{}
	r.reset()
	return r
}

func (r *recency[K]) reset() {
	r.root.prev, r.root.next = &r.root, &r.root
	r.n = 0
}

func (r *recency[K]) len() int { return r.n }

// insert adds key as the most recently used.
func (r *recency[K]) insert(key K) *link[K] {
	l := &link[K]{key: key}
	r.splice(l)
	r.n++
	return l
}

// touch marks l most recently used.
func (r *recency[K]) touch(l *link[K]) {
	if r.root.next == l {
		return
	}
	l.prev.next, l.next.prev = l.next, l.prev
	r.splice(l)
}

func (r *recency[K]) splice(l *link[K]) {
	l.prev, l.next = &r.root, r.root.next
	r.root.next.prev = l
	r.root.next = l
}

func (r *recency[K]) drop(l *link[K]) {
	l.prev.next, l.next.prev = l.next, l.prev
	l.prev, l.next = nil, nil
	r.n--
}

// oldest returns the least recently used link, nil when empty.
func (r *recency[K]) oldest() *link[K] {
	if r.n == 0 {
		return nil
	}
	return r.root.prev
}

// older returns the link used just before l, nil at the end.
func (r *recency[K]) older(l *link[K]) *link[K] {
	if l.prev == &r.root {
		return nil
	}
	return l.prev
}
