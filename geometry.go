package regiontree

import "fmt"

// Point addresses a single cell of the grid.
type Point struct {
	Top  int
	Left int
}

// Rect is an axis-aligned rectangle of cells. Right and Bottom are
// exclusive, so a Rect covers [Left,Right) x [Top,Bottom).
type Rect struct {
	Top    int
	Left   int
	Right  int
	Bottom int
}

// A Locator names the cell an update should be applied to. Point, Rect
// and Region all implement it, so batch entries can carry whatever area
// the caller already has at hand.
type Locator interface {
	Position() Point
}

// Position returns p itself.
func (p Point) Position() Point { return p }

// Position returns the top-left cell of the rectangle.
func (r Rect) Position() Point { return Point{Top: r.Top, Left: r.Left} }

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Top, p.Left)
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d)x[%d,%d)", r.Left, r.Right, r.Top, r.Bottom)
}

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Contains reports whether the cell p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return r.Left <= p.Left && p.Left < r.Right &&
		r.Top <= p.Top && p.Top < r.Bottom
}

// Translate moves the rectangle by the given offset.
func (r Rect) Translate(top, left int) Rect {
	return Rect{
		Top:    r.Top + top,
		Left:   r.Left + left,
		Right:  r.Right + left,
		Bottom: r.Bottom + top,
	}
}

// Overlaps reports whether a and b share at least one cell. A nil a
// overlaps nothing; rectangles that only touch along an edge do not overlap.
func Overlaps(a *Rect, b Rect) bool {
	if a == nil {
		return false
	}
	if b.Left >= a.Right {
		return false
	}
	if b.Right <= a.Left {
		return false
	}
	if b.Top >= a.Bottom {
		return false
	}
	if b.Bottom <= a.Top {
		return false
	}
	return true
}

func unitRect(p Point) Rect {
	return Rect{Top: p.Top, Left: p.Left, Right: p.Left + 1, Bottom: p.Top + 1}
}

func squareRect(size int) Rect {
	return Rect{Right: size, Bottom: size}
}
