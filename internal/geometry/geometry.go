// Package geometry provides the small amount of plane geometry the detectors
// need: boxes, polygons and distances in pixel coordinates.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// Point is a pixel coordinate.
type Point struct {
	X int
	Y int
}

// Box is an axis-aligned box given by two corners.
type Box struct {
	X1, Y1, X2, Y2 int
}

// BoxFromRect converts an image.Rectangle to a Box.
func BoxFromRect(r image.Rectangle) Box {
	return Box{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Canon returns the box with X1 <= X2 and Y1 <= Y2.
func (b Box) Canon() Box {
	if b.X1 > b.X2 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y1 > b.Y2 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
	return b
}

// Rect returns the box as an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Width of the box.
func (b Box) Width() int { return b.X2 - b.X1 }

// Height of the box.
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Center is the box midpoint, using integer division.
func (b Box) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Foot is the horizontal midpoint of the bottom edge, where a standing
// person touches the floor.
func (b Box) Foot() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: b.Y2}
}

// Distance is the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Polygon is a closed polygon; the last point connects back to the first.
type Polygon []Point

// ErrPolygon is returned for polygons with fewer than three vertices.
var ErrPolygon = errors.New("polygon needs at least 3 points")

// PolygonFromBox returns the four corners of b, clockwise from top-left.
func PolygonFromBox(b Box) Polygon {
	b = b.Canon()
	return Polygon{{b.X1, b.Y1}, {b.X2, b.Y1}, {b.X2, b.Y2}, {b.X1, b.Y2}}
}

// Contains reports whether p is inside the polygon or on its boundary.
func (poly Polygon) Contains(p Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[j], poly[i]
		if onSegment(a, b, p) {
			return true
		}
		// Ray casting towards +X.
		if (b.Y > p.Y) != (a.Y > p.Y) {
			xCross := float64(a.X-b.X)*float64(p.Y-b.Y)/float64(a.Y-b.Y) + float64(b.X)
			if float64(p.X) < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(a, b, p Point) bool {
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	if cross != 0 {
		return false
	}
	return p.X >= min(a.X, b.X) && p.X <= max(a.X, b.X) &&
		p.Y >= min(a.Y, b.Y) && p.Y <= max(a.Y, b.Y)
}

// Bounds returns the bounding box of the polygon.
func (poly Polygon) Bounds() Box {
	if len(poly) == 0 {
		return Box{}
	}
	b := Box{X1: poly[0].X, Y1: poly[0].Y, X2: poly[0].X, Y2: poly[0].Y}
	for _, p := range poly[1:] {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X)
		b.Y2 = max(b.Y2, p.Y)
	}
	return b
}

// String formats the polygon as "x,y;x,y;...", the form ParsePolygon reads.
func (poly Polygon) String() string {
	parts := make([]string, len(poly))
	for i, p := range poly {
		parts[i] = strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)
	}
	return strings.Join(parts, ";")
}

// ParsePolygon reads a polygon written as "x,y;x,y;x,y".
func ParsePolygon(s string) (Polygon, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrPolygon
	}
	var poly Polygon
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		xy := strings.Split(part, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("parse point %q: want x,y", part)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xy[0]))
		if err != nil {
			return nil, fmt.Errorf("parse point %q: %w", part, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(xy[1]))
		if err != nil {
			return nil, fmt.Errorf("parse point %q: %w", part, err)
		}
		poly = append(poly, Point{X: x, Y: y})
	}
	if len(poly) < 3 {
		return nil, ErrPolygon
	}
	return poly, nil
}
