/*
Package regiontree provides an immutable, structurally-shared spatial
index over a square grid of integer cells. Each stored rectangular region
carries a payload, and the tree answers one question quickly: which
region owns this cell?

Uses

- Incremental re-rendering: update a handful of cells, then skip every
subtree whose pointer did not change.

- Cheap snapshots of a mutable-looking grid: every version shares all
unmodified subtrees with its predecessor.

- Content-addressed storage of grid versions (see Store), where
successive versions store only their changed paths.

How regions are indexed

The tree is a quadtree whose nodes also hold regions that cannot be
pushed into a single quadrant. A node of size s has a vertical and a
horizontal midline at s/2. A region crossing both midlines is the node's
center; a region crossing only the vertical midline lives in the top or
bottom bucket, and one crossing only the horizontal midline in the left or
right bucket. Any other region descends into the quadrant containing it,
until it covers a whole node, which then becomes a leaf.

A point lookup checks the center first, then the top or bottom bucket,
then the left or right bucket, and only then descends into a quadrant.
Regions stored in one tree never overlap, so at most one of these can
match.

Updates

Updates happen in sessions:

	u := regiontree.Update(tree, func(old int, delta int, _ regiontree.Point) int {
		return old + delta
	}, nil)
	u.Update(regiontree.Point{Top: 3, Left: 5}, 1)
	u.Update(regiontree.Point{Top: 3, Left: 6}, 1)
	next, err := u.Result()

A session stages payloads without touching the tree. Result copies only
the nodes on the paths from the root to regions whose payload actually
changed, and returns the original tree when none did. Callers can rely on
pointer equality between the old and new tree (and any of their subtrees)
to tell what changed; Diff does exactly that.

Concurrency

Trees are never modified after they are returned, so any number of
goroutines may read a tree while another builds its successor. An
Updater belongs to one goroutine.
*/
package regiontree
