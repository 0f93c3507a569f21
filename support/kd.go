package support

import (
	"github.com/soypat/meshy/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// kdNode is a tree node position stored in the k-d tree.
type kdNode struct {
	v   r3.Vec
	idx int
}

func (n *kdNode) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(*kdNode)
	return d3.Index(n.v, int(d)) - d3.Index(q.v, int(d))
}

func (n *kdNode) Dims() int { return 3 }

// Distance returns the squared distance to c.
func (n *kdNode) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(n.v, c.(*kdNode).v))
}

// kdNodes implements kdtree.Interface.
type kdNodes []*kdNode

func (s kdNodes) Index(i int) kdtree.Comparable { return s[i] }

func (s kdNodes) Len() int { return len(s) }

func (s kdNodes) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: d, nodes: s}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (s kdNodes) Slice(start, end int) kdtree.Interface { return s[start:end] }

type kdPlane struct {
	dim   kdtree.Dim
	nodes kdNodes
}

func (p kdPlane) Less(i, j int) bool { return p.nodes[i].Compare(p.nodes[j], p.dim) < 0 }
func (p kdPlane) Swap(i, j int)      { p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i] }
func (p kdPlane) Len() int           { return len(p.nodes) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.nodes = p.nodes[start:end]
	return p
}

// activeIndex finds active nodes near a point. Retired nodes stay in the
// k-d tree until they outnumber the active ones, then the tree is rebuilt.
type activeIndex struct {
	tree    *kdtree.Tree
	entries map[int]*kdNode
	stale   int
}

func newActiveIndex() *activeIndex {
	return &activeIndex{tree: &kdtree.Tree{}, entries: make(map[int]*kdNode)}
}

func (a *activeIndex) add(idx int, v r3.Vec) {
	n := &kdNode{v: v, idx: idx}
	a.entries[idx] = n
	a.tree.Insert(n, false)
}

func (a *activeIndex) active(idx int) bool {
	_, ok := a.entries[idx]
	return ok
}

func (a *activeIndex) remove(idx int) {
	if _, ok := a.entries[idx]; !ok {
		return
	}
	delete(a.entries, idx)
	a.stale++
	if a.stale > 64 && a.stale > len(a.entries) {
		a.rebuild()
	}
}

func (a *activeIndex) len() int { return len(a.entries) }

// rebuild balances the tree over the active nodes.
func (a *activeIndex) rebuild() {
	a.stale = 0
	if len(a.entries) == 0 {
		a.tree = &kdtree.Tree{}
		return
	}
	nodes := make(kdNodes, 0, len(a.entries))
	for _, n := range a.entries {
		nodes = append(nodes, n)
	}
	a.tree = kdtree.New(nodes, false)
}

// within appends to dst the indices of active nodes at most r from v.
func (a *activeIndex) within(dst []int, v r3.Vec, r float64) []int {
	keep := kdtree.NewDistKeeper(r * r)
	a.tree.NearestSet(keep, &kdNode{v: v, idx: -1})
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		n := c.Comparable.(*kdNode)
		if a.active(n.idx) {
			dst = append(dst, n.idx)
		}
	}
	return dst
}
