package valueobjects

// Position is a canvas coordinate owned by the layout engine.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition creates a position
func NewPosition(x, y float64) *Position {
	return &Position{X: x, Y: y}
}

// Offset returns the position shifted by d on both axes.
func (p Position) Offset(d float64) Position {
	return Position{X: p.X + d, Y: p.Y + d}
}
