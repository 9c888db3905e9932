// Package world provides generic 2D world-space primitives.
// These are engine-level constructs usable by any grid-based simulation.
package world

import (
	"fmt"
	"math"
)

// Point is a position in world space. Grid tiles sit on integer coordinates.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// String returns the point as "x,y"
func (p Point) String() string {
	return fmt.Sprintf("%g,%g", p.X, p.Y)
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dot returns the dot product of p and q treated as vectors
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Distance returns the euclidean distance between two points
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistanceToSegment returns the shortest distance from p to the segment a-b.
// A degenerate segment (a == b) collapses to the distance from p to a.
func DistanceToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return Distance(p, a)
	}

	// Project p onto the segment and clamp to its endpoints.
	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Point{X: a.X + t*ab.X, Y: a.Y + t*ab.Y}
	return Distance(p, closest)
}
