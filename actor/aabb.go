package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// NewAABB builds the box of the given size centered on center
func NewAABB(center, size mgl64.Vec2) AABB {
	half := size.Mul(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// ContainsPoint checks if a point is inside the AABB, min edges included and max edges excluded
func (a AABB) ContainsPoint(point mgl64.Vec2) bool {
	return point.X() >= a.Min.X() && point.X() < a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() < a.Max.Y()
}

// Overlaps checks if two AABBs overlap with a strictly positive area.
// Boxes that only touch along an edge do not overlap.
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() > other.Min.X() && a.Min.X() < other.Max.X() &&
		a.Max.Y() > other.Min.Y() && a.Min.Y() < other.Max.Y()
}

// Touches checks if two AABBs overlap or are at most gap apart on both axes.
// Boxes sharing an edge touch.
func (a AABB) Touches(other AABB, gap float64) bool {
	return a.Max.X()+gap >= other.Min.X() && a.Min.X()-gap <= other.Max.X() &&
		a.Max.Y()+gap >= other.Min.Y() && a.Min.Y()-gap <= other.Max.Y()
}

// Intersection returns the overlapping box, and false when the boxes do not overlap
func (a AABB) Intersection(other AABB) (AABB, bool) {
	if !a.Overlaps(other) {
		return AABB{}, false
	}

	return AABB{
		Min: mgl64.Vec2{math.Max(a.Min.X(), other.Min.X()), math.Max(a.Min.Y(), other.Min.Y())},
		Max: mgl64.Vec2{math.Min(a.Max.X(), other.Max.X()), math.Min(a.Max.Y(), other.Max.Y())},
	}, true
}

func (a AABB) Size() mgl64.Vec2 {
	return a.Max.Sub(a.Min)
}

func (a AABB) Center() mgl64.Vec2 {
	return a.Min.Add(a.Max).Mul(0.5)
}
