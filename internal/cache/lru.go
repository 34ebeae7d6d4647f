package cache

// lruNode is an element of lruList. It keeps its key so an evicted node
// can be removed from the owning map.
type lruNode[K comparable, V any] struct {
	key   K
	value V

	prev, next *lruNode[K, V]
}

// lruList is a circular doubly-linked list with a sentinel root.
// root.next is the most recently used node, root.prev the least.
// Not thread-safe; Cache holds the lock.
type lruList[K comparable, V any] struct {
	root lruNode[K, V]
	len  int
}

func (l *lruList[K, V]) init() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
}

// pushFront inserts a new node as most recently used.
func (l *lruList[K, V]) pushFront(key K, value V) *lruNode[K, V] {
	n := &lruNode[K, V]{key: key, value: value}
	l.insertAfter(n, &l.root)
	l.len++
	return n
}

// moveToFront marks n as most recently used.
func (l *lruList[K, V]) moveToFront(n *lruNode[K, V]) {
	if l.root.next == n {
		return
	}
	l.unlink(n)
	l.insertAfter(n, &l.root)
}

// remove unlinks n from the list.
func (l *lruList[K, V]) remove(n *lruNode[K, V]) {
	l.unlink(n)
	n.prev, n.next = nil, nil
	l.len--
}

// back returns the least recently used node, or nil if the list is empty.
func (l *lruList[K, V]) back() *lruNode[K, V] {
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

func (l *lruList[K, V]) insertAfter(n, at *lruNode[K, V]) {
	n.prev = at
	n.next = at.next
	at.next.prev = n
	at.next = n
}

func (l *lruList[K, V]) unlink(n *lruNode[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
}
