package domain

// ElementType distinguishes native text blocks from image placeholders during
// page reconstruction.
type ElementType string

const (
	ElementText  ElementType = "text"
	ElementImage ElementType = "image"
)

// PositionedElement is an extraction-time value: a text block or image caption
// with its position on the page. It exists only to compute reading order and is
// discarded after linearization.
type PositionedElement struct {
	Type    ElementType
	Content string
	X       float64
	Y       float64
	Width   float64
}

// Before reports whether e precedes other in reading order, approximated as
// ascending (Y, X).
func (e PositionedElement) Before(other PositionedElement) bool {
	if e.Y != other.Y {
		return e.Y < other.Y
	}
	return e.X < other.X
}
