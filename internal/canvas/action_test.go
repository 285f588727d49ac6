package canvas

import (
	"errors"
	"testing"
)

func TestValidateRequiresIDAndKnownKind(t *testing.T) {
	a := Action{Kind: KindBrush}
	if err := a.Validate(); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}

	a = Action{ID: "a1", Kind: Kind("spraycan")}
	if err := a.Validate(); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}

	a = Action{ID: "a1", Kind: KindBrush, Points: []Point{{X: 1, Y: 2}}}
	if err := a.Validate(); err != nil {
		t.Fatalf("valid brush action rejected: %v", err)
	}
}

func TestValidateTwoPointArity(t *testing.T) {
	a := Action{ID: "a1", Kind: KindLine, Points: []Point{{X: 0, Y: 0}}}
	if err := a.Validate(); err == nil {
		t.Fatalf("line with one point accepted")
	}
	a.Points = append(a.Points, Point{X: 5, Y: 5})
	if err := a.Validate(); err != nil {
		t.Fatalf("line with two points rejected: %v", err)
	}
}

func TestTwoPointClassification(t *testing.T) {
	for _, k := range []Kind{KindLine, KindRect, KindCircle, KindArrow, KindStar, KindTriangle} {
		if !k.TwoPoint() {
			t.Fatalf("%s should be a two-point kind", k)
		}
	}
	for _, k := range []Kind{KindBrush, KindEraser, KindFill, KindText, KindImage} {
		if k.TwoPoint() {
			t.Fatalf("%s should not be a two-point kind", k)
		}
	}
}

func TestAppendStreamTwoPointReplacesEndpoint(t *testing.T) {
	a := Action{ID: "a1", Kind: KindRect, Points: []Point{{X: 0, Y: 0}}}
	a.AppendStream([]Point{{X: 3, Y: 3}})
	a.AppendStream([]Point{{X: 7, Y: 9}})
	if len(a.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(a.Points))
	}
	if a.Points[1].X != 7 || a.Points[1].Y != 9 {
		t.Fatalf("endpoint not replaced: %v", a.Points[1])
	}
}

func TestAppendStreamFreeFormAccumulates(t *testing.T) {
	a := Action{ID: "a1", Kind: KindBrush}
	a.AppendStream([]Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	a.AppendStream([]Point{{X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}})
	if len(a.Points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(a.Points))
	}
}
