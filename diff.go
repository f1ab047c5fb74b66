package regiontree

import (
	"errors"
	"fmt"
)

// DiffFunc receives one difference between two trees, in absolute
// coordinates. added && removed signifies a region whose payload changed;
// only one of addedRegion and removedRegion is meaningful otherwise.
// Returning keepGoing == false stops the diff without error.
type DiffFunc[T any] func(added, removed bool, addedRegion, removedRegion Region[T]) (keepGoing bool, err error)

// Diff invokes f for every region that differs between oldTree and
// newTree. Subtrees that the two trees share by reference are skipped
// without being visited. Payloads of regions with the same rectangle are
// compared with DefaultUnchanged. Diffing a tree against the result of an update
// session costs time proportional to the copied paths.
func Diff[T any](oldTree, newTree *Node[T], f DiffFunc[T]) error {
	if oldTree == newTree {
		return nil
	}
	if oldTree != nil && newTree != nil && oldTree.size != newTree.size {
		return fmt.Errorf("cannot diff trees of size %d and %d", oldTree.size, newTree.size)
	}
	err := diffNode(oldTree, newTree, Point{}, f)
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

func diffNode[T any](o, n *Node[T], origin Point, f DiffFunc[T]) error {
	if o == n {
		return nil
	}
	emit := func(added, removed bool, a, r Region[T]) error {
		keepGoing, err := f(added, removed, a, r)
		if err != nil {
			return fmt.Errorf("callback: %w", err)
		}
		if !keepGoing {
			return errStop
		}
		return nil
	}
	var oldOwn, newOwn []Region[T]
	if o != nil {
		oldOwn = ownRegions(o)
	}
	if n != nil {
		newOwn = ownRegions(n)
	}
	byRect := make(map[Rect]Region[T], len(newOwn))
	for _, r := range newOwn {
		byRect[r.Rect] = r
	}
	for _, r := range oldOwn {
		nr, ok := byRect[r.Rect]
		if !ok {
			if err := emit(false, true, Region[T]{}, absolute(r, origin)); err != nil {
				return err
			}
			continue
		}
		delete(byRect, r.Rect)
		if DefaultUnchanged[T, struct{}](r.Payload, nr.Payload, struct{}{}) {
			continue
		}
		if err := emit(true, true, absolute(nr, origin), absolute(r, origin)); err != nil {
			return err
		}
	}
	for _, r := range newOwn {
		if _, ok := byRect[r.Rect]; !ok {
			continue
		}
		if err := emit(true, false, absolute(r, origin), Region[T]{}); err != nil {
			return err
		}
	}
	var size int
	if o != nil {
		size = o.size
	} else {
		size = n.size
	}
	half := size / 2
	for _, q := range Quadrants {
		oc, nc := internalChild(o, q), internalChild(n, q)
		if oc == nil && nc == nil {
			continue
		}
		off := q.origin(half)
		co := Point{Top: origin.Top + off.Top, Left: origin.Left + off.Left}
		if err := diffNode(oc, nc, co, f); err != nil {
			return err
		}
	}
	return nil
}

func internalChild[T any](n *Node[T], q Quadrant) *Node[T] {
	if n == nil || n.kind != KindInternal {
		return nil
	}
	return n.quadrants[q]
}
