package regiontree

import "go.uber.org/zap"

type nodeKey struct {
	origin Point
	size   int
}

// materialize copies the path from the root to every slot with a net
// change, sharing the copies between paths, and writes the staged
// payloads into them. Nodes off those paths are reused as they are.
func (u *Updater[T, C]) materialize() *Node[T] {
	if u.tree == nil {
		return nil
	}
	copies := map[nodeKey]*Node[T]{}
	var root *Node[T]
	writes := 0
	for _, k := range u.order {
		s := u.staged[k]
		if !s.changed {
			continue
		}
		path := s.target.path
		var parent *Node[T]
		for i, e := range path {
			nk := nodeKey{e.origin, e.node.size}
			c, ok := copies[nk]
			if !ok {
				c = e.node.clone()
				copies[nk] = c
			}
			if i == 0 {
				root = c
			} else {
				parent.quadrants[path[i-1].via] = c
			}
			parent = c
		}
		writeSlot(parent, s.target, s.value)
		writes++
	}
	resultsMaterialized.Inc()
	if root == nil {
		logger.Debug("materialized unchanged tree", zap.Int("staged", len(u.order)))
		return u.tree
	}
	nodesCopied.Add(float64(len(copies)))
	logger.Debug("materialized tree",
		zap.Int("staged", len(u.order)),
		zap.Int("writes", writes),
		zap.Int("copied", len(copies)))
	return root
}

// writeSlot stores value into the slot t names on n, which must be a
// private copy.
func writeSlot[T any](n *Node[T], t *target[T], value T) {
	switch t.slot {
	case slotSelf:
		n.kind = KindLeaf
		n.payload = value
	case slotCenter:
		r := *n.center
		r.Payload = value
		n.center = &r
	case slotEdge:
		b := append([]Region[T](nil), n.edges[t.edge]...)
		b[t.index].Payload = value
		n.edges[t.edge] = b
	}
}
