package regiontree

import "fmt"

type slotKind uint8

const (
	slotSelf slotKind = iota
	slotCenter
	slotEdge
)

type pathEntry[T any] struct {
	node   *Node[T]
	origin Point    // absolute top-left of node
	via    Quadrant // quadrant followed to reach the next entry
}

// slotKey identifies a payload slot independently of node identity:
// absolute origin and size determine a node of the quadtree.
type slotKey struct {
	origin Point
	size   int
	slot   slotKind
	edge   Edge
	index  int
}

// target is the result of descending to the slot owning a cell.
type target[T any] struct {
	path []pathEntry[T]
	slot slotKind
	edge Edge
	// index into the edge bucket
	index int
	// region in absolute coordinates, carrying the payload found in the tree
	region  Region[T]
	present bool
}

func (t *target[T]) key() slotKey {
	last := t.path[len(t.path)-1]
	return slotKey{
		origin: last.origin,
		size:   last.node.size,
		slot:   t.slot,
		edge:   t.edge,
		index:  t.index,
	}
}

func (t *target[T]) relative(p Point) Point {
	return Point{Top: p.Top - t.region.Top, Left: p.Left - t.region.Left}
}

func checkBounds[T any](root *Node[T], p Point) error {
	if !squareRect(root.size).Contains(p) {
		return fmt.Errorf("%w: %v in tree of size %d", ErrOutOfBounds, p, root.size)
	}
	return nil
}

// locate descends from root to the slot owning the cell p. At every
// internal node the center is checked first, then the top or bottom
// bucket, then the left or right bucket, and only then the quadrant.
func locate[T any](root *Node[T], p Point) (*target[T], error) {
	if err := checkBounds(root, p); err != nil {
		return nil, err
	}
	t := &target[T]{}
	node, origin, local := root, Point{}, p
	for {
		t.path = append(t.path, pathEntry[T]{node: node, origin: origin})
		switch node.kind {
		case KindEmpty, KindLeaf:
			t.slot = slotSelf
			t.region = Region[T]{
				Rect:    squareRect(node.size).Translate(origin.Top, origin.Left),
				Payload: node.payload,
			}
			t.present = node.kind == KindLeaf
			return t, nil
		case KindInternal:
			unit := unitRect(local)
			if node.center != nil && Overlaps(&node.center.Rect, unit) {
				t.slot = slotCenter
				t.region = Region[T]{
					Rect:    node.center.Translate(origin.Top, origin.Left),
					Payload: node.center.Payload,
				}
				t.present = true
				return t, nil
			}
			half := node.size / 2
			for _, e := range bucketOrder(local, half) {
				for i := range node.edges[e] {
					r := &node.edges[e][i]
					if !Overlaps(&r.Rect, unit) {
						continue
					}
					t.slot = slotEdge
					t.edge = e
					t.index = i
					t.region = Region[T]{
						Rect:    r.Translate(origin.Top, origin.Left),
						Payload: r.Payload,
					}
					t.present = true
					return t, nil
				}
			}
			q := quadrantFor(local, half)
			t.path[len(t.path)-1].via = q
			o := q.origin(half)
			origin = Point{Top: origin.Top + o.Top, Left: origin.Left + o.Left}
			local = Point{Top: local.Top - o.Top, Left: local.Left - o.Left}
			node = node.child(q)
		default:
			panic(fmt.Sprintf("unhandled node kind %v", node.kind))
		}
	}
}

// Lookup returns the region, in absolute coordinates, that contains the
// cell p. It returns false for nil trees, empty cells and cells outside
// the tree.
func Lookup[T any](tree *Node[T], p Point) (Region[T], bool) {
	if tree == nil {
		return Region[T]{}, false
	}
	t, err := locate(tree, p)
	if err != nil || !t.present {
		return Region[T]{}, false
	}
	return t.region, true
}
