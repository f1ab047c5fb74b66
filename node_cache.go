package regiontree

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// NodeCache holds decoded nodes by link. Save consults it to skip nodes
// that are already persisted, and Load returns the nodes it holds instead
// of decoding them again. A cache must only be shared by stores writing to
// the same Persist.
type NodeCache interface {
	Add(link string, node interface{})
	Contains(link string) bool
	Get(link string) (node interface{}, ok bool)
}

type arcNodeCache struct {
	arc *lru.ARCCache
}

// NewNodeCache returns a thread-safe NodeCache holding up to size nodes,
// evicted by adaptive replacement.
func NewNodeCache(size int) NodeCache {
	arc, err := lru.NewARC(size)
	if err != nil {
		panic(fmt.Sprintf("node cache of size %d: %v", size, err))
	}
	return arcNodeCache{arc: arc}
}

func (c arcNodeCache) Add(link string, node interface{}) {
	c.arc.Add(link, node)
}

func (c arcNodeCache) Contains(link string) bool {
	return c.arc.Contains(link)
}

func (c arcNodeCache) Get(link string) (interface{}, bool) {
	return c.arc.Get(link)
}
