package regiontree

import (
	"fmt"
	"math/bits"
)

// Kind tells which shape a Node has.
type Kind uint8

const (
	// KindEmpty is a node with no payload and no subdivision.
	KindEmpty Kind = iota
	// KindLeaf is a node whose payload covers its whole extent.
	KindLeaf
	// KindInternal is a subdivided node: four quadrants plus the
	// straddling buckets for regions that cross a midline.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindLeaf:
		return "leaf"
	case KindInternal:
		return "internal"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Quadrant names one of the four half-size children of an internal node.
type Quadrant uint8

const (
	TopLeft Quadrant = iota
	TopRight
	BottomLeft
	BottomRight
)

// Quadrants lists the quadrants in storage order.
var Quadrants = [4]Quadrant{TopLeft, TopRight, BottomLeft, BottomRight}

func (q Quadrant) String() string {
	switch q {
	case TopLeft:
		return "topLeft"
	case TopRight:
		return "topRight"
	case BottomLeft:
		return "bottomLeft"
	case BottomRight:
		return "bottomRight"
	}
	return fmt.Sprintf("Quadrant(%d)", uint8(q))
}

// origin is the quadrant's top-left cell in its parent's space.
func (q Quadrant) origin(half int) Point {
	var p Point
	if q == TopRight || q == BottomRight {
		p.Left = half
	}
	if q == BottomLeft || q == BottomRight {
		p.Top = half
	}
	return p
}

func quadrantFor(p Point, half int) Quadrant {
	q := TopLeft
	if p.Left >= half {
		q++
	}
	if p.Top >= half {
		q += 2
	}
	return q
}

// Edge names a straddling bucket. EdgeTop and EdgeBottom hold regions
// crossing the vertical midline inside one half; EdgeLeft and EdgeRight
// hold regions crossing the horizontal midline.
type Edge uint8

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

// Edges lists the edge buckets in storage order.
var Edges = [4]Edge{EdgeTop, EdgeBottom, EdgeLeft, EdgeRight}

func (e Edge) String() string {
	switch e {
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	}
	return fmt.Sprintf("Edge(%d)", uint8(e))
}

// bucketOrder returns the two edge buckets that could hold the cell p,
// top/bottom first.
func bucketOrder(p Point, half int) [2]Edge {
	b := [2]Edge{EdgeTop, EdgeLeft}
	if p.Top >= half {
		b[0] = EdgeBottom
	}
	if p.Left >= half {
		b[1] = EdgeRight
	}
	return b
}

// Region is a stored rectangle and its payload. Coordinates are relative
// to the node holding the region, except where a function documents that
// it returns absolute coordinates.
type Region[T any] struct {
	Rect
	Payload T
}

// Node is an immutable square cell of the grid. Nodes are never modified
// once returned to a caller; every change produces new nodes along the
// changed path and shares all other subtrees by reference.
type Node[T any] struct {
	size    int
	kind    Kind
	payload T

	// internal nodes only; a nil quadrant is equivalent to NewNode(size/2)
	quadrants [4]*Node[T]
	center    *Region[T]
	edges     [4][]Region[T]
}

// NewNode returns an empty node of the given size. Quadrants and buckets
// are allocated by later updates, so this is O(1) regardless of size.
func NewNode[T any](size int) *Node[T] {
	if size < 1 {
		panic(fmt.Sprintf("node size must be positive, got %d", size))
	}
	return &Node[T]{size: size}
}

// NewLeaf returns a node whose single region, covering the whole node,
// carries the given payload.
func NewLeaf[T any](size int, payload T) *Node[T] {
	n := NewNode[T](size)
	n.kind = KindLeaf
	n.payload = payload
	return n
}

// Size is the side length of the node, in cells.
func (n *Node[T]) Size() int {
	return n.size
}

// Kind reports the shape of the node.
func (n *Node[T]) Kind() Kind {
	return n.kind
}

// Payload returns the payload of a leaf node.
func (n *Node[T]) Payload() (T, bool) {
	if n.kind != KindLeaf {
		var zero T
		return zero, false
	}
	return n.payload, true
}

// Quadrant returns the given child of an internal node, or nil when the
// quadrant is absent.
func (n *Node[T]) Quadrant(q Quadrant) *Node[T] {
	if n.kind != KindInternal {
		return nil
	}
	return n.quadrants[q]
}

// Center returns the region straddling both midlines, if any.
func (n *Node[T]) Center() (Region[T], bool) {
	if n.center == nil {
		return Region[T]{}, false
	}
	return *n.center, true
}

// Edge returns a copy of the given straddling bucket.
func (n *Node[T]) Edge(e Edge) []Region[T] {
	if len(n.edges[e]) == 0 {
		return nil
	}
	return append([]Region[T](nil), n.edges[e]...)
}

// IsEmpty reports whether the node stores no region at all.
func (n *Node[T]) IsEmpty() bool {
	return n.kind == KindEmpty
}

func (n *Node[T]) clone() *Node[T] {
	c := *n
	return &c
}

// child returns the quadrant, materializing an absent one as a fresh empty
// node. The fresh node is not linked into n.
func (n *Node[T]) child(q Quadrant) *Node[T] {
	if c := n.quadrants[q]; c != nil {
		return c
	}
	return NewNode[T](n.size / 2)
}

// hollow reports whether an internal node has lost all of its content.
func (n *Node[T]) hollow() bool {
	if n.center != nil {
		return false
	}
	for _, b := range n.edges {
		if len(b) > 0 {
			return false
		}
	}
	for _, c := range n.quadrants {
		if c != nil && c.kind != KindEmpty {
			return false
		}
	}
	return true
}

// normalize collapses an internal node without content back into an empty
// node and drops empty quadrants.
func (n *Node[T]) normalize() *Node[T] {
	if n.kind != KindInternal {
		return n
	}
	if n.hollow() {
		return NewNode[T](n.size)
	}
	for i, c := range n.quadrants {
		if c != nil && c.kind == KindEmpty {
			n.quadrants[i] = nil
		}
	}
	return n
}

func isPowerOfTwo(n int) bool {
	return n > 0 && bits.OnesCount(uint(n)) == 1
}
