package regiontree

import "errors"

var (
	// ErrOutOfBounds is returned for positions or regions outside the
	// root's extent. Nothing is staged or stored when it is returned.
	ErrOutOfBounds = errors.New("outside tree bounds")
	// ErrMissingArea is returned by Result for a batch entry without an
	// area. The batch is rejected before any entry is applied.
	ErrMissingArea = errors.New("batch entry has no area")
	// ErrOverlap is returned when inserting a region that overlaps one
	// already stored.
	ErrOverlap = errors.New("region overlaps a stored region")
	// ErrEmptyRegion is returned when inserting a region covering no cells.
	ErrEmptyRegion = errors.New("region covers no cells")
	// ErrNotPowerOfTwo is returned when a node that is not a power of two
	// in size would have to be subdivided.
	ErrNotPowerOfTwo = errors.New("node size is not a power of two")
	// ErrCorruptNode is returned when a persisted node cannot be decoded
	// into a valid node.
	ErrCorruptNode = errors.New("corrupt node")
)
