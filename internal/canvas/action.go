package canvas

import (
	"errors"
	"fmt"
)

// Point is a normalized 2D canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Kind identifies a drawing primitive.
type Kind string

const (
	KindBrush    Kind = "brush"
	KindEraser   Kind = "eraser"
	KindLine     Kind = "line"
	KindRect     Kind = "rect"
	KindCircle   Kind = "circle"
	KindFill     Kind = "fill"
	KindArrow    Kind = "arrow"
	KindStar     Kind = "star"
	KindTriangle Kind = "triangle"
	KindText     Kind = "text"
	KindImage    Kind = "image"
)

var kinds = map[Kind]bool{
	KindBrush:    true,
	KindEraser:   true,
	KindLine:     true,
	KindRect:     true,
	KindCircle:   true,
	KindFill:     true,
	KindArrow:    true,
	KindStar:     true,
	KindTriangle: true,
	KindText:     true,
	KindImage:    true,
}

// twoPointKinds are shape tools whose point buffer is always a
// start/end pair; streamed updates replace the endpoint instead of
// accumulating.
var twoPointKinds = map[Kind]bool{
	KindLine:     true,
	KindRect:     true,
	KindCircle:   true,
	KindArrow:    true,
	KindStar:     true,
	KindTriangle: true,
}

func (k Kind) Valid() bool {
	return kinds[k]
}

func (k Kind) TwoPoint() bool {
	return twoPointKinds[k]
}

// Action is one committed drawing operation. Once appended to a Log it
// is immutable; undo removes whole actions, never edits them.
type Action struct {
	ID       string  `json:"id"`
	AuthorID string  `json:"userId"`
	Kind     Kind    `json:"tool"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
	Points   []Point `json:"points"`
	// Text is set only for text actions.
	Text string `json:"text,omitempty"`
	// ImageData is a data URL, set only for image actions. The server
	// treats it as opaque.
	ImageData string `json:"imageData,omitempty"`
}

var (
	ErrMissingID   = errors.New("action id is required")
	ErrUnknownKind = errors.New("unknown action kind")
)

// Validate checks the structural contract of a committed action. It
// does not judge geometry; the sender is trusted for that.
func (a *Action) Validate() error {
	if a.ID == "" {
		return ErrMissingID
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
	if a.Kind.TwoPoint() && len(a.Points) != 2 {
		return fmt.Errorf("kind %q requires exactly 2 points, got %d", a.Kind, len(a.Points))
	}
	return nil
}

// AppendStream merges a streamed point batch into an in-progress point
// buffer. Two-point kinds keep a fixed start/end pair and replace the
// endpoint with the latest streamed point; free-form kinds append the
// whole batch.
func (a *Action) AppendStream(points []Point) {
	if len(points) == 0 {
		return
	}
	if a.Kind.TwoPoint() {
		end := points[len(points)-1]
		if len(a.Points) < 2 {
			a.Points = append(a.Points, end)
		} else {
			a.Points[1] = end
		}
		return
	}
	a.Points = append(a.Points, points...)
}
