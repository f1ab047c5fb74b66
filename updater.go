package regiontree

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// UpdateFunc computes a region's new payload. It receives the current
// payload (the zero value for an empty region), the caller's context, and
// the updated cell's position relative to the region's top-left corner.
// It must be pure.
type UpdateFunc[T, C any] func(old T, ctx C, pos Point) T

// UnchangedFunc reports whether replacing old with new is a no-op. A
// session only copies nodes for slots where it returns false.
type UnchangedFunc[T, C any] func(old, new T, ctx C) bool

// DefaultUnchanged is strict equality. Payloads compare as == would,
// except that slices, maps, funcs and values held in interfaces never
// panic: slices and maps are unchanged only when they are the same
// reference (same backing array and length, or same map), and non-nil
// funcs always count as changed. A fresh slice with equal contents is a
// change; callers wanting value comparison pass their own UnchangedFunc.
func DefaultUnchanged[T, C any](old, new T, _ C) bool {
	return identical(reflect.ValueOf(&old).Elem(), reflect.ValueOf(&new).Elem())
}

func identical(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan, reflect.Map:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len() && a.IsNil() == b.IsNil()
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return identical(a.Elem(), b.Elem())
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !identical(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !identical(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	}
	return false
}

// BatchEntry is one update folded in by Result.
type BatchEntry[C any] struct {
	Area    Locator
	Context C
}

type staged[T any] struct {
	target  *target[T]
	value   T
	changed bool
}

// Updater accumulates point updates against one tree snapshot. Nothing is
// copied until Result is called. An Updater must not be used by more than
// one goroutine at a time.
type Updater[T, C any] struct {
	tree      *Node[T]
	fn        UpdateFunc[T, C]
	unchanged UnchangedFunc[T, C]
	staged    map[slotKey]*staged[T]
	order     []slotKey
}

// Update starts an update session over tree. A nil unchanged uses
// DefaultUnchanged. A nil tree gives a session where every update is a
// no-op and Result returns nil.
func Update[T, C any](tree *Node[T], fn UpdateFunc[T, C], unchanged UnchangedFunc[T, C]) *Updater[T, C] {
	if unchanged == nil {
		unchanged = DefaultUnchanged[T, C]
	}
	return &Updater[T, C]{
		tree:      tree,
		fn:        fn,
		unchanged: unchanged,
		staged:    map[slotKey]*staged[T]{},
	}
}

// Update applies the session's update function to the region owning pos.
// Later calls observe payloads staged by earlier ones. Positions outside
// the tree are rejected with ErrOutOfBounds and nothing is staged.
func (u *Updater[T, C]) Update(pos Point, ctx C) error {
	if u.tree == nil {
		return nil
	}
	t, err := locate(u.tree, pos)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	k := t.key()
	s, ok := u.staged[k]
	old := t.region.Payload
	if ok {
		old = s.value
	}
	value := u.fn(old, ctx, t.relative(pos))
	changed := !u.unchanged(t.region.Payload, value, ctx)
	if !ok {
		s = &staged[T]{target: t}
		u.staged[k] = s
		u.order = append(u.order, k)
	}
	s.value = value
	s.changed = changed
	updatesStaged.Inc()
	logger.Debug("staged update",
		zap.Stringer("pos", pos),
		zap.Stringer("region", t.region.Rect),
		zap.Int("depth", len(t.path)),
		zap.Bool("changed", changed))
	return nil
}

// Result applies the batch entries in order, as if passed to Update, and
// then returns the tree reflecting every update of the session. When no
// update changed anything the original tree is returned. Entries are
// validated before any is applied.
func (u *Updater[T, C]) Result(batch ...BatchEntry[C]) (*Node[T], error) {
	for i, e := range batch {
		if isNilLocator(e.Area) {
			return nil, fmt.Errorf("entry %d: %w", i, ErrMissingArea)
		}
		if u.tree != nil {
			if err := checkBounds(u.tree, e.Area.Position()); err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
		}
	}
	for i, e := range batch {
		if err := u.Update(e.Area.Position(), e.Context); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return u.materialize(), nil
}

// Changed reports whether Result would return a new tree.
func (u *Updater[T, C]) Changed() bool {
	for _, s := range u.staged {
		if s.changed {
			return true
		}
	}
	return false
}

// Len is the number of distinct regions touched by the session.
func (u *Updater[T, C]) Len() int {
	return len(u.order)
}

func isNilLocator(l Locator) bool {
	if l == nil {
		return true
	}
	v := reflect.ValueOf(l)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
