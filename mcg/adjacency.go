package mcg

import "math"

// adjacencyMap is a directed graph of segment endpoints. Nodes are kept in
// insertion order so loop extraction is deterministic.
type adjacencyMap struct {
	index map[Vector]int
	nodes []adjacencyNode
}

type adjacencyNode struct {
	pt Vector
	// outgoing edges, as node indices.
	next      []int
	predcount int
}

func newAdjacencyMap() *adjacencyMap {
	return &adjacencyMap{index: make(map[Vector]int)}
}

func (m *adjacencyMap) node(p Vector) int {
	if i, ok := m.index[p]; ok {
		return i
	}
	m.nodes = append(m.nodes, adjacencyNode{pt: p})
	m.index[p] = len(m.nodes) - 1
	return len(m.nodes) - 1
}

func (m *adjacencyMap) addSegment(p1, p2 Vector) {
	n1 := m.node(p1)
	n2 := m.node(p2)
	m.nodes[n1].next = append(m.nodes[n1].next, n2)
	m.nodes[n2].predcount++
}

// firstNode returns the first node in insertion order satisfying sel, or -1.
func (m *adjacencyMap) firstNode(sel func(n *adjacencyNode) bool) int {
	for i := range m.nodes {
		if sel(&m.nodes[i]) {
			return i
		}
	}
	return -1
}

// loops consumes the map and returns every vertex loop. Open chains are
// returned first, starting at a node without predecessors.
func (m *adjacencyMap) loops() [][]Vector {
	var out [][]Vector
	for {
		loop := m.loop()
		if loop == nil {
			return out
		}
		out = append(out, loop)
	}
}

func (m *adjacencyMap) loop() []Vector {
	allowOpen := true
	for {
		start := -1
		if allowOpen {
			start = m.firstNode(func(n *adjacencyNode) bool { return n.predcount == 0 && len(n.next) > 0 })
		}
		if start < 0 {
			// Prefer nodes with one way out.
			start = m.firstNode(func(n *adjacencyNode) bool { return len(n.next) == 1 })
			if start < 0 {
				start = m.firstNode(func(n *adjacencyNode) bool { return len(n.next) > 0 })
			}
			allowOpen = false
		}
		if start < 0 {
			return nil
		}
		var loop []Vector
		current, prev := start, -1
		for {
			loop = append(loop, m.nodes[current].pt)
			next := m.advance(current, prev)
			if next < 0 {
				break
			}
			prev, current = current, next
			if current == start {
				break
			}
		}
		if current == start || allowOpen {
			return loop
		}
	}
}

// advance removes and returns the edge leaving cur, taking the rightmost
// turn relative to the edge prev→cur when there is a choice.
func (m *adjacencyMap) advance(cur, prev int) int {
	n := &m.nodes[cur]
	if len(n.next) == 0 {
		return -1
	}
	idx := 0
	if len(n.next) > 1 && prev >= 0 {
		idx = m.rightmost(cur, prev)
	}
	if idx < 0 {
		return -1
	}
	next := n.next[idx]
	n.next = append(n.next[:idx], n.next[idx+1:]...)
	m.nodes[next].predcount--
	return next
}

func (m *adjacencyMap) rightmost(cur, prev int) int {
	pt, prevpt := m.nodes[cur].pt, m.nodes[prev].pt
	in := prevpt.To(pt)
	best, bestIdx := -math.Pi, -1
	for i, ni := range m.nodes[cur].next {
		npt := m.nodes[ni].pt
		angle := in.AngleTo(pt.To(npt))
		if left(prevpt, pt, npt) {
			angle = -angle
		}
		if angle >= best {
			best, bestIdx = angle, i
		}
	}
	return bestIdx
}
