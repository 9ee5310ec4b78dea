// Package graph converts parsed schemas into graph fragments and merges them
// into existing graphs.
package graph

import (
	"fastcontrol/internal/domain"
)

// Layout is the canvas placement policy for new tables. Slots form a grid of
// CellWidth x CellHeight cells, packed left to right in rows no wider than
// RowWidth. A table occupies a CardWidth x CardHeight card at its position.
type Layout struct {
	CellWidth  float64
	CellHeight float64
	CardWidth  float64
	CardHeight float64
	RowWidth   float64
}

// DefaultLayout returns the layout used for imports. Cells are larger than
// the biggest expected card so adjacent slots never touch.
func DefaultLayout() Layout {
	return Layout{
		CellWidth:  320,
		CellHeight: 420,
		CardWidth:  280,
		CardHeight: 380,
		RowWidth:   1600,
	}
}

// Validate checks that cards fit their cells.
func (l Layout) Validate() error {
	switch {
	case l.CardWidth <= 0 || l.CardHeight <= 0:
		return domain.ErrValidation("layout card size must be positive")
	case l.CellWidth < l.CardWidth || l.CellHeight < l.CardHeight:
		return domain.ErrValidation("layout cells must be at least as large as cards")
	case l.RowWidth < l.CardWidth:
		return domain.ErrValidation("layout row width must fit at least one card")
	}
	return nil
}

// columns returns the number of slots per row.
func (l Layout) columns() int {
	n := int((l.RowWidth-l.CardWidth)/l.CellWidth) + 1
	if n < 1 {
		return 1
	}
	return n
}

// Overlaps reports whether cards placed at a and b intersect. Cards that only
// share an edge do not overlap.
func (l Layout) Overlaps(ax, ay, bx, by float64) bool {
	return ax < bx+l.CardWidth && bx < ax+l.CardWidth &&
		ay < by+l.CardHeight && by < ay+l.CardHeight
}

// Next returns the first free slot for a card given the tables already on
// the canvas.
func (l Layout) Next(placed []domain.TableNode) (x, y float64) {
	return l.NewPlacer(placed).Place()
}

// Placer places a sequence of cards. Every placed card is remembered, so a
// batch never collides with itself.
type Placer struct {
	layout Layout
	placed [][2]float64
	slot   int // first slot that may still be free
}

// NewPlacer returns a Placer that avoids the given tables.
func (l Layout) NewPlacer(existing []domain.TableNode) *Placer {
	p := &Placer{layout: l, placed: make([][2]float64, 0, len(existing))}
	for _, t := range existing {
		p.placed = append(p.placed, [2]float64{t.X, t.Y})
	}
	return p
}

// Place returns the next free slot in row-major order and marks it used.
// Slots are only ever taken, never freed, so the scan resumes where the
// previous call stopped.
func (p *Placer) Place() (x, y float64) {
	cols := p.layout.columns()
	for ; ; p.slot++ {
		x = float64(p.slot%cols) * p.layout.CellWidth
		y = float64(p.slot/cols) * p.layout.CellHeight
		if !p.occupied(x, y) {
			p.placed = append(p.placed, [2]float64{x, y})
			p.slot++
			return x, y
		}
	}
}

func (p *Placer) occupied(x, y float64) bool {
	for _, c := range p.placed {
		if p.layout.Overlaps(x, y, c[0], c[1]) {
			return true
		}
	}
	return false
}
