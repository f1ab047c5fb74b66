package regiontree

import "fmt"

// Iter invokes f for every stored region, in absolute coordinates. A node's
// own regions are visited before its quadrants, and quadrants in
// TopLeft, TopRight, BottomLeft, BottomRight order. Iteration stops at the
// first error, which is returned.
func Iter[T any](tree *Node[T], f func(Region[T]) error) error {
	if tree == nil {
		return nil
	}
	return walk(tree, Point{}, nil, f)
}

// Len counts the stored regions.
func Len[T any](tree *Node[T]) int {
	n := 0
	_ = Iter(tree, func(Region[T]) error {
		n++
		return nil
	})
	return n
}

// walk visits the regions of n, whose top-left is origin. When descend is
// set, quadrants whose absolute extent it rejects are skipped.
func walk[T any](n *Node[T], origin Point, descend func(extent Rect) bool, f func(Region[T]) error) error {
	switch n.kind {
	case KindEmpty:
		return nil
	case KindLeaf:
		return f(Region[T]{
			Rect:    squareRect(n.size).Translate(origin.Top, origin.Left),
			Payload: n.payload,
		})
	case KindInternal:
	default:
		panic(fmt.Sprintf("unhandled node kind %v", n.kind))
	}
	for _, r := range ownRegions(n) {
		if err := f(absolute(r, origin)); err != nil {
			return err
		}
	}
	half := n.size / 2
	for _, q := range Quadrants {
		c := n.quadrants[q]
		if c == nil {
			continue
		}
		o := q.origin(half)
		co := Point{Top: origin.Top + o.Top, Left: origin.Left + o.Left}
		if descend != nil && !descend(squareRect(half).Translate(co.Top, co.Left)) {
			continue
		}
		if err := walk(c, co, descend, f); err != nil {
			return err
		}
	}
	return nil
}

// ownRegions lists the regions held at n's level, in n's space: the
// whole-node region of a leaf, or the center and edge buckets of an
// internal node.
func ownRegions[T any](n *Node[T]) []Region[T] {
	switch n.kind {
	case KindLeaf:
		return []Region[T]{{Rect: squareRect(n.size), Payload: n.payload}}
	case KindInternal:
		var out []Region[T]
		if n.center != nil {
			out = append(out, *n.center)
		}
		for _, e := range Edges {
			out = append(out, n.edges[e]...)
		}
		return out
	}
	return nil
}

func absolute[T any](r Region[T], origin Point) Region[T] {
	return Region[T]{Rect: r.Translate(origin.Top, origin.Left), Payload: r.Payload}
}
