package regiontree

import (
	"context"
	"fmt"
	"sync"
)

type memoryPersist struct {
	mu    sync.RWMutex
	nodes map[string][]byte
}

// NewInMemoryStore returns a Persist keeping encoded nodes in process
// memory. Trees saved to it live as long as the Persist does.
func NewInMemoryStore() Persist {
	return &memoryPersist{nodes: map[string][]byte{}}
}

func (p *memoryPersist) Store(ctx context.Context, link string, encoded []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := append([]byte(nil), encoded...)
	p.mu.Lock()
	p.nodes[link] = b
	p.mu.Unlock()
	return nil
}

func (p *memoryPersist) Load(ctx context.Context, link string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	b, ok := p.nodes[link]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no node stored as %s", link)
	}
	return b, nil
}

func (p *memoryPersist) len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.nodes)
}
