// Package geom provides page geometry shared by the document model and the
// composition engine.
//
// Coordinates follow the page convention used by layout applications: the
// origin is the top-left corner of the page, x grows to the right and y grows
// downward. Bounds are stored as (top, left, bottom, right), the same order
// layout tools report geometric bounds in.
package geom

import (
	"fmt"
	"math"
)

// Orientation classifies the aspect of a frame or photograph.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
	Square     Orientation = "square"
	Unknown    Orientation = "unknown"
)

// Aspect thresholds for [Classify]. A height/width ratio above VerticalRatio
// is vertical, below HorizontalRatio is horizontal, anything between is square.
const (
	VerticalRatio   = 1.2
	HorizontalRatio = 0.8
)

// ParseOrientation converts a plan string into an Orientation.
// The empty string maps to Unknown.
func ParseOrientation(s string) (Orientation, error) {
	switch o := Orientation(s); o {
	case Horizontal, Vertical, Square, Unknown:
		return o, nil
	case "":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid orientation %q (must be horizontal, vertical, square or unknown)", s)
}

// Classify returns the orientation of a width × height box.
// Non-positive dimensions yield Unknown.
func Classify(width, height float64) Orientation {
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		return Unknown
	}
	ratio := height / width
	switch {
	case ratio > VerticalRatio:
		return Vertical
	case ratio < HorizontalRatio:
		return Horizontal
	default:
		return Square
	}
}

// Point is a position in page coordinates.
type Point struct {
	X, Y float64
}

// Bounds is an axis-aligned box in page coordinates.
type Bounds struct {
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// FromSlice builds Bounds from a [top, left, bottom, right] slice.
func FromSlice(v []float64) (Bounds, error) {
	if len(v) != 4 {
		return Bounds{}, fmt.Errorf("bounds need 4 values (top, left, bottom, right), got %d", len(v))
	}
	b := Bounds{Top: v[0], Left: v[1], Bottom: v[2], Right: v[3]}
	if b.Bottom < b.Top || b.Right < b.Left {
		return Bounds{}, fmt.Errorf("bounds %v are inverted", v)
	}
	return b, nil
}

// BoundsOf returns the smallest Bounds containing all points.
func BoundsOf(pts []Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{Top: pts[0].Y, Left: pts[0].X, Bottom: pts[0].Y, Right: pts[0].X}
	for _, p := range pts[1:] {
		b.Top = math.Min(b.Top, p.Y)
		b.Left = math.Min(b.Left, p.X)
		b.Bottom = math.Max(b.Bottom, p.Y)
		b.Right = math.Max(b.Right, p.X)
	}
	return b
}

// Slice returns the bounds as [top, left, bottom, right].
func (b Bounds) Slice() []float64 {
	return []float64{b.Top, b.Left, b.Bottom, b.Right}
}

func (b Bounds) Width() float64  { return b.Right - b.Left }
func (b Bounds) Height() float64 { return b.Bottom - b.Top }
func (b Bounds) Area() float64   { return b.Width() * b.Height() }

// Center returns the midpoint of the box.
func (b Bounds) Center() Point {
	return Point{X: (b.Left + b.Right) / 2, Y: (b.Top + b.Bottom) / 2}
}

// Orientation classifies the box with [Classify].
func (b Bounds) Orientation() Orientation {
	return Classify(b.Width(), b.Height())
}

// Translate shifts the box by dx, dy.
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{Top: b.Top + dy, Left: b.Left + dx, Bottom: b.Bottom + dy, Right: b.Right + dx}
}

// Sized returns a box anchored at the top-left corner of b with the given size.
func (b Bounds) Sized(width, height float64) Bounds {
	return Bounds{Top: b.Top, Left: b.Left, Bottom: b.Top + height, Right: b.Left + width}
}

// CenterIn returns b moved so its center coincides with the center of outer.
func (b Bounds) CenterIn(outer Bounds) Bounds {
	oc, bc := outer.Center(), b.Center()
	return b.Translate(oc.X-bc.X, oc.Y-bc.Y)
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%.1f %.1f %.1f %.1f]", b.Top, b.Left, b.Bottom, b.Right)
}
