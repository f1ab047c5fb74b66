package regiontree

import "go.uber.org/zap"

// Clear returns a tree without the regions that overlap area. Only the
// ancestors of removed regions are copied; when nothing overlaps, tree
// itself is returned. A nil area clears nothing, and the zero Rect is
// the default area, which covers the whole tree.
func Clear[T any](tree *Node[T], area *Rect) *Node[T] {
	if tree == nil || area == nil {
		return tree
	}
	extent := squareRect(tree.size)
	a := *area
	if a == (Rect{}) {
		a = extent
	}
	a = clip(a, extent)
	if a.Empty() {
		return tree
	}
	res, cleared := clearNode(tree, a)
	if cleared == 0 {
		return tree
	}
	regionsCleared.Add(float64(cleared))
	logger.Debug("cleared regions", zap.Stringer("area", a), zap.Int("cleared", cleared))
	return res
}

// clearNode clears the regions of n overlapping area, given in n's space.
func clearNode[T any](n *Node[T], area Rect) (*Node[T], int) {
	if !Overlaps(&area, squareRect(n.size)) {
		return n, 0
	}
	switch n.kind {
	case KindEmpty:
		return n, 0
	case KindLeaf:
		return NewNode[T](n.size), 1
	}
	var c *Node[T]
	own := func() {
		if c == nil {
			c = n.clone()
		}
	}
	cleared := 0
	if n.center != nil && Overlaps(&area, n.center.Rect) {
		own()
		c.center = nil
		cleared++
	}
	for _, e := range Edges {
		hits := 0
		for _, r := range n.edges[e] {
			if Overlaps(&area, r.Rect) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		var kept []Region[T]
		for _, r := range n.edges[e] {
			if !Overlaps(&area, r.Rect) {
				kept = append(kept, r)
			}
		}
		own()
		c.edges[e] = kept
		cleared += hits
	}
	half := n.size / 2
	for _, q := range Quadrants {
		child := n.quadrants[q]
		if child == nil {
			continue
		}
		o := q.origin(half)
		sub, k := clearNode(child, area.Translate(-o.Top, -o.Left))
		if k == 0 {
			continue
		}
		own()
		c.quadrants[q] = sub
		cleared += k
	}
	if c == nil {
		return n, 0
	}
	return c.normalize(), cleared
}

func clip(a, b Rect) Rect {
	return Rect{
		Top:    max(a.Top, b.Top),
		Left:   max(a.Left, b.Left),
		Right:  min(a.Right, b.Right),
		Bottom: min(a.Bottom, b.Bottom),
	}
}
