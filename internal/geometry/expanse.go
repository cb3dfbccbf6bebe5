// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

// Package geometry provides the rectangle and point primitives used by the
// spatial context tree.
package geometry

import "math"

// Point is a tile coordinate within a room.
type Point struct {
	X int
	Y int
}

// DistanceTo returns the Euclidean distance to another point.
func (p Point) DistanceTo(q Point) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Expanse is an axis-aligned rectangle anchored at its bottom-left corner.
// Bounds are inclusive on all edges: a point at (X+Width, Y+Height) is
// still inside.
type Expanse struct {
	BottomLeft Point
	Width      int
	Height     int
}

// NewExpanse constructs an expanse from its bottom-left corner and size.
func NewExpanse(x, y, width, height int) Expanse {
	return Expanse{BottomLeft: Point{X: x, Y: y}, Width: width, Height: height}
}

// ContainsPoint reports whether p lies within the expanse.
func (e Expanse) ContainsPoint(p Point) bool {
	return p.X >= e.BottomLeft.X && p.X <= e.BottomLeft.X+e.Width &&
		p.Y >= e.BottomLeft.Y && p.Y <= e.BottomLeft.Y+e.Height
}

// ContainsExpanse reports whether other lies entirely within the expanse.
// Map building uses this to enforce that a child area never spills outside
// its parent.
func (e Expanse) ContainsExpanse(other Expanse) bool {
	return e.ContainsPoint(other.BottomLeft) &&
		e.ContainsPoint(Point{X: other.BottomLeft.X + other.Width, Y: other.BottomLeft.Y + other.Height})
}

// DistanceTo returns the Euclidean distance from p to the nearest point of
// the expanse, or 0 if p is inside.
func (e Expanse) DistanceTo(p Point) float64 {
	dx := axisDistance(p.X, e.BottomLeft.X, e.BottomLeft.X+e.Width)
	dy := axisDistance(p.Y, e.BottomLeft.Y, e.BottomLeft.Y+e.Height)
	return math.Sqrt(float64(dx*dx + dy*dy))
}

// axisDistance returns how far v lies outside the closed interval [lo, hi].
func axisDistance(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}
