package mcg

import "container/heap"

// statusNode is a node of the AVL tree holding the left events that cross
// the sweep line, ordered bottom to top.
type statusNode struct {
	parent, left, right *statusNode
	height              int
	ev                  int32
}

func (n *statusNode) prev() *statusNode {
	if n.left != nil {
		n = n.left
		for n.right != nil {
			n = n.right
		}
		return n
	}
	for n.parent != nil && n.parent.left == n {
		n = n.parent
	}
	return n.parent
}

func (n *statusNode) next() *statusNode {
	if n.right != nil {
		n = n.right
		for n.left != nil {
			n = n.left
		}
		return n
	}
	for n.parent != nil && n.parent.right == n {
		n = n.parent
	}
	return n.parent
}

func (n *statusNode) balance() int {
	r := 0
	if n.left != nil {
		r -= n.left.height
	}
	if n.right != nil {
		r += n.right.height
	}
	return r
}

func (n *statusNode) updateHeight() {
	n.height = 0
	if n.left != nil {
		n.height = n.left.height
	}
	if n.right != nil && n.height < n.right.height {
		n.height = n.right.height
	}
	n.height++
}

func (n *statusNode) swapChild(a, b *statusNode) {
	if n.right == a {
		n.right = b
	} else {
		n.left = b
	}
	if b != nil {
		b.parent = n
	}
}

func (a *statusNode) rotateLeft() *statusNode {
	b := a.right
	if a.parent != nil {
		a.parent.swapChild(a, b)
	} else {
		b.parent = nil
	}
	a.parent = b
	if a.right = b.left; a.right != nil {
		a.right.parent = a
	}
	b.left = a
	return b
}

func (a *statusNode) rotateRight() *statusNode {
	b := a.left
	if a.parent != nil {
		a.parent.swapChild(a, b)
	} else {
		b.parent = nil
	}
	a.parent = b
	if a.left = b.right; a.left != nil {
		a.left.parent = a
	}
	b.right = a
	return b
}

// status is the sweep line structure. Every event in the tree keeps a
// handle to its node so removal and neighbour lookup never depend on the
// comparator, whose answers may drift as segments are split.
type status struct {
	root   *statusNode
	handle []*statusNode
	cmp    func(a, b int32) int
}

func (s *status) node(e int32) *statusNode {
	if int(e) < len(s.handle) {
		return s.handle[e]
	}
	return nil
}

func (s *status) setHandle(e int32, n *statusNode) {
	for int(e) >= len(s.handle) {
		s.handle = append(s.handle, nil)
	}
	s.handle[e] = n
}

func (s *status) contains(e int32) bool { return s.node(e) != nil }

// insert adds e and reports whether it was not already present.
func (s *status) insert(e int32) bool {
	if s.contains(e) {
		return false
	}
	nn := &statusNode{height: 1, ev: e}
	s.setHandle(e, nn)
	if s.root == nil {
		s.root = nn
		return true
	}
	n := s.root
	for {
		if s.cmp(e, n.ev) < 0 {
			if n.left == nil {
				n.left = nn
				break
			}
			n = n.left
		} else {
			if n.right == nil {
				n.right = nn
				break
			}
			n = n.right
		}
	}
	nn.parent = n
	s.rebalance(n)
	return true
}

// remove drops e and reports whether it was present.
func (s *status) remove(e int32) bool {
	n := s.node(e)
	if n == nil {
		return false
	}
	s.setHandle(e, nil)
	for {
		var o *statusNode
		switch {
		case n.height == 1:
			o = n.parent
			if o != nil {
				o.swapChild(n, nil)
				s.rebalance(o)
			} else {
				s.root = nil
			}
			return true
		case n.right != nil:
			o = n.right
			for o.left != nil {
				o = o.left
			}
		default:
			o = n.left
			for o.right != nil {
				o = o.right
			}
		}
		// Move o's event up into n and continue removing at o.
		n.ev = o.ev
		s.setHandle(n.ev, n)
		n = o
	}
}

func (s *status) rebalance(n *statusNode) {
	for {
		oheight := n.height
		switch balance := n.balance(); {
		case balance == 2:
			if n.right.balance() < 0 {
				n.right = n.right.rotateRight()
				n.right.right.updateHeight()
			}
			n = n.rotateLeft()
			n.left.updateHeight()
		case balance == -2:
			if n.left.balance() > 0 {
				n.left = n.left.rotateLeft()
				n.left.left.updateHeight()
			}
			n = n.rotateRight()
			n.right.updateHeight()
		case balance < -2 || balance > 2:
			panic("mcg: status tree out of balance")
		}
		n.updateHeight()
		if n.parent == nil {
			s.root = n
			return
		}
		if oheight == n.height {
			return
		}
		n = n.parent
	}
}

// adjacent returns the events directly above and below e, or -1.
func (s *status) adjacent(e int32) (up, dn int32) {
	up, dn = -1, -1
	n := s.node(e)
	if n == nil {
		return up, dn
	}
	if nx := n.next(); nx != nil {
		up = nx.ev
	}
	if pv := n.prev(); pv != nil {
		dn = pv.ev
	}
	return up, dn
}

// above returns the event directly above e, or -1.
func (s *status) above(e int32) int32 {
	up, _ := s.adjacent(e)
	return up
}

// ascend calls fn bottom to top, or top to bottom when reverse is set.
func (s *status) ascend(reverse bool, fn func(e int32)) {
	n := s.root
	if n == nil {
		return
	}
	for {
		child := n.left
		if reverse {
			child = n.right
		}
		if child == nil {
			break
		}
		n = child
	}
	for n != nil {
		fn(n.ev)
		if reverse {
			n = n.prev()
		} else {
			n = n.next()
		}
	}
}

// eventQueue is a min heap of event indices ordered by the sweep order.
type eventQueue struct {
	items []int32
	less  func(a, b int32) bool
}

func (q *eventQueue) Len() int           { return len(q.items) }
func (q *eventQueue) Less(i, j int) bool { return q.less(q.items[i], q.items[j]) }
func (q *eventQueue) Swap(i, j int)      { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *eventQueue) Push(x any)         { q.items = append(q.items, x.(int32)) }
func (q *eventQueue) Pop() any {
	n := len(q.items) - 1
	x := q.items[n]
	q.items = q.items[:n]
	return x
}

func (q *eventQueue) push(e int32) { heap.Push(q, e) }
func (q *eventQueue) pop() int32   { return heap.Pop(q).(int32) }
