package regiontree

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/minio/blake2b-simd"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
)

var (
	defaultUnmarshal = json.Unmarshal
	defaultMarshal   = json.Marshal
)

// Store saves trees to, and loads them from, a Persist. Nodes are
// content-addressed, so unchanged subtrees of successive versions are
// stored once.
type Store[T any] struct {
	persist     Persist
	cache       NodeCache
	codec       codec
	log         *zap.Logger
	concurrency int
}

// NewStore returns a Store for trees with payloads of type T.
func NewStore[T any](config RemoteConfig) (*Store[T], error) {
	if config.StoreImmutablePartsWith == nil {
		return nil, errors.New("no persistence mechanism set; set RemoteConfig.StoreImmutablePartsWith")
	}
	s := &Store[T]{
		persist: config.StoreImmutablePartsWith,
		cache:   config.NodeCache,
		codec: codec{
			marshal:   config.Marshal,
			unmarshal: config.Unmarshal,
		},
		log:         config.Logger,
		concurrency: config.StoreConcurrency,
	}
	if s.codec.marshal == nil {
		s.codec.marshal = defaultMarshal
	}
	if s.codec.unmarshal == nil {
		s.codec.unmarshal = defaultUnmarshal
	}
	if s.log == nil {
		s.log = logger
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultStoreConcurrency
	}
	return s, nil
}

// Save writes every node of tree not already known to the node cache and
// returns the Root naming it. Saving the nil tree returns a Root with a
// nil Link.
func (s *Store[T]) Save(ctx context.Context, tree *Node[T]) (*Root, error) {
	if tree == nil {
		return &Root{}, nil
	}
	w := newWriter(s.concurrency)
	link, err := s.storeNode(ctx, tree, w, map[*Node[T]]string{})
	werr := w.wait()
	if err != nil {
		return nil, err
	}
	if werr != nil {
		return nil, werr
	}
	s.log.Debug("saved tree", zap.String("link", link), zap.Int("size", tree.size))
	return &Root{Link: &link, Size: tree.size}, nil
}

// storeNode encodes n after its children, since a node's encoding names
// its children's links, and queues the write.
func (s *Store[T]) storeNode(ctx context.Context, n *Node[T], w *writer, seen map[*Node[T]]string) (string, error) {
	if link, ok := seen[n]; ok {
		return link, nil
	}
	var links [4]string
	if n.kind == KindInternal {
		for q, c := range n.quadrants {
			if c == nil || c.kind == KindEmpty {
				continue
			}
			l, err := s.storeNode(ctx, c, w, seen)
			if err != nil {
				return "", err
			}
			links[q] = l
		}
	}
	encoded, err := marshalNode(s.codec, n, links)
	if err != nil {
		return "", fmt.Errorf("marshal node: %w", err)
	}
	link := nodeLink(encoded)
	seen[n] = link
	if s.cache != nil && s.cache.Contains(link) {
		nodesPersisted.WithLabelValues("cached").Inc()
		return link, nil
	}
	w.submit(func() error {
		err := s.persist.Store(ctx, link, encoded)
		if err != nil {
			return fmt.Errorf("persist store %s: %w", link, err)
		}
		if s.cache != nil {
			s.cache.Add(link, n)
		}
		return nil
	})
	nodesPersisted.WithLabelValues("stored").Inc()
	return link, nil
}

func nodeLink(encoded []byte) string {
	hashBytes := blake2b.Sum256(encoded)
	return base64.RawURLEncoding.EncodeToString(hashBytes[:])
}

// Load returns the tree named by root. Nodes found in the node cache are
// returned as they are, so trees loaded through one cache share common
// subtrees by reference.
func (s *Store[T]) Load(ctx context.Context, root *Root) (*Node[T], error) {
	if root == nil || root.Link == nil {
		return nil, nil
	}
	n, err := s.loadNode(ctx, *root.Link)
	if err != nil {
		return nil, fmt.Errorf("load root: %w", err)
	}
	if n.size != root.Size {
		return nil, fmt.Errorf("%w: root %s has size %d, expected %d", ErrCorruptNode, *root.Link, n.size, root.Size)
	}
	return n, nil
}

func (s *Store[T]) loadNode(ctx context.Context, link string) (*Node[T], error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(link); ok {
			if n, ok := v.(*Node[T]); ok {
				nodeCacheLookups.WithLabelValues("hit").Inc()
				return n, nil
			}
		}
		nodeCacheLookups.WithLabelValues("miss").Inc()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	encoded, err := s.persist.Load(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("persist load %s: %w", link, err)
	}
	if nodeLink(encoded) != link {
		return nil, fmt.Errorf("%w: content of %s does not match its link", ErrCorruptNode, link)
	}
	n, links, err := unmarshalNode[T](s.codec, encoded)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", link, err)
	}
	for q, l := range links {
		if l == "" {
			continue
		}
		c, err := s.loadNode(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("load %v of %s: %w", Quadrant(q), link, err)
		}
		if c.size != n.size/2 {
			return nil, fmt.Errorf("%w: %v of %s has size %d", ErrCorruptNode, Quadrant(q), link, c.size)
		}
		n.quadrants[q] = c
	}
	s.log.Debug("loaded node", zap.String("link", link), zap.Stringer("kind", n.kind), zap.Int("size", n.size))
	if s.cache != nil {
		s.cache.Add(link, n)
	}
	return n, nil
}

// writer runs persist writes with bounded parallelism, keeping the first
// error. Once a write has failed, later ones are not started.
type writer struct {
	gate chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex
	err  error
}

func newWriter(n int) *writer {
	return &writer{gate: make(chan struct{}, n)}
}

func (w *writer) failed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err != nil
}

func (w *writer) submit(f func() error) {
	if w.failed() {
		return
	}
	w.gate <- struct{}{}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.gate }()
		if w.failed() {
			return
		}
		if err := f(); err != nil {
			w.mu.Lock()
			if w.err == nil {
				w.err = err
			}
			w.mu.Unlock()
		}
	}()
}

func (w *writer) wait() error {
	w.wg.Wait()
	return w.err
}
