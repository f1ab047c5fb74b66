package regiontree

import (
	"errors"
	"fmt"
)

// Insert returns a tree that also stores r, given in absolute
// coordinates. Regions covering a whole node become that node's payload;
// regions crossing both midlines of a node become its center; regions
// crossing one midline go into the matching edge bucket; anything else
// descends into the quadrant containing it. Only the path to the new
// region is copied.
func Insert[T any](tree *Node[T], r Region[T]) (*Node[T], error) {
	if tree == nil {
		return nil, fmt.Errorf("insert %v: %w: nil tree", r.Rect, ErrOutOfBounds)
	}
	if r.Empty() {
		return nil, fmt.Errorf("insert %v: %w", r.Rect, ErrEmptyRegion)
	}
	if clip(r.Rect, squareRect(tree.size)) != r.Rect {
		return nil, fmt.Errorf("insert %v: %w: tree size %d", r.Rect, ErrOutOfBounds, tree.size)
	}
	var found *Region[T]
	err := visitOverlapping(tree, r.Rect, func(o Region[T]) error {
		found = &o
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	if found != nil {
		return nil, fmt.Errorf("insert %v: %w %v", r.Rect, ErrOverlap, found.Rect)
	}
	res, err := place(tree, r)
	if err != nil {
		return nil, fmt.Errorf("insert %v: %w", r.Rect, err)
	}
	return res, nil
}

// place stores r, in n's space, under a copy of n. The caller has checked
// that r overlaps nothing.
func place[T any](n *Node[T], r Region[T]) (*Node[T], error) {
	if r.Rect == squareRect(n.size) {
		return NewLeaf(n.size, r.Payload), nil
	}
	if n.kind == KindLeaf {
		return nil, ErrOverlap
	}
	if !isPowerOfTwo(n.size) {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n.size)
	}
	c := n.clone()
	c.kind = KindInternal
	half := n.size / 2
	acrossX := r.Left < half && r.Right > half
	acrossY := r.Top < half && r.Bottom > half
	switch {
	case acrossX && acrossY:
		if c.center != nil {
			return nil, ErrOverlap
		}
		region := r
		c.center = &region
	case acrossX:
		e := EdgeTop
		if r.Top >= half {
			e = EdgeBottom
		}
		c.edges[e] = append(append([]Region[T](nil), n.edges[e]...), r)
	case acrossY:
		e := EdgeLeft
		if r.Left >= half {
			e = EdgeRight
		}
		c.edges[e] = append(append([]Region[T](nil), n.edges[e]...), r)
	default:
		q := quadrantFor(r.Position(), half)
		o := q.origin(half)
		child, err := place(n.child(q), Region[T]{
			Rect:    r.Translate(-o.Top, -o.Left),
			Payload: r.Payload,
		})
		if err != nil {
			return nil, err
		}
		c.quadrants[q] = child
	}
	return c, nil
}

var errStop = errors.New("stop")

// visitOverlapping calls f for every stored region overlapping area. Both
// are in absolute coordinates.
func visitOverlapping[T any](tree *Node[T], area Rect, f func(Region[T]) error) error {
	return walk(tree, Point{}, func(extent Rect) bool {
		return Overlaps(&area, extent)
	}, func(r Region[T]) error {
		if !Overlaps(&area, r.Rect) {
			return nil
		}
		return f(r)
	})
}
