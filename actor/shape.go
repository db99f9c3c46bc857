package actor

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// TileType identifies one of the closed set of tile variants
type TileType int

const (
	TileRectangle TileType = iota
	TileSquare
	TileBeam

	tileTypeCount
)

var tileNames = [tileTypeCount]string{
	TileRectangle: "rectangle",
	TileSquare:    "square",
	TileBeam:      "beam",
}

func (t TileType) String() string {
	if t < 0 || t >= tileTypeCount {
		return fmt.Sprintf("TileType(%d)", int(t))
	}
	return tileNames[t]
}

// Valid reports whether t belongs to the catalog
func (t TileType) Valid() bool {
	return t >= 0 && t < tileTypeCount
}

// TileTypes lists every catalog entry in declaration order
func TileTypes() []TileType {
	return []TileType{TileRectangle, TileSquare, TileBeam}
}

// ParseTileType resolves a catalog name (case-insensitive)
func ParseTileType(name string) (TileType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t, n := range tileNames {
		if n == key {
			return TileType(t), nil
		}
	}

	return 0, fmt.Errorf("unknown tile type %q", name)
}

// Material holds the contact response coefficients of a tile type
type Material struct {
	Mass        float64
	Friction    float64 // combined geometrically with the other body
	Restitution float64 // 0 = no rebound, 1 = perfect restitution
}

// Shape is the immutable geometric and material record shared by every body of a tile type
type Shape struct {
	Type     TileType
	Size     mgl64.Vec2 // width, height in pixels
	Material Material
	// Inertia is a rotational proxy consumed by the visual tumbling only
	Inertia float64
	Mask    *Mask
}

// InverseMass returns 1/mass, or 0 for massless shapes
func (s *Shape) InverseMass() float64 {
	if s.Material.Mass <= 0 {
		return 0
	}
	return 1.0 / s.Material.Mass
}

func newShape(t TileType, width, height float64, material Material, inertia float64) *Shape {
	return &Shape{
		Type:     t,
		Size:     mgl64.Vec2{width, height},
		Material: material,
		Inertia:  inertia,
		Mask:     NewSolidMask(width, height),
	}
}

// catalog is built once; entries are read-only and shared by all bodies
var catalog = [tileTypeCount]*Shape{
	// 2x1 tiles: heavier foundation block
	TileRectangle: newShape(TileRectangle, 192, 96, Material{Mass: 1.5, Friction: 0.98, Restitution: 0.2}, 1.2),
	TileSquare:    newShape(TileSquare, 96, 96, Material{Mass: 0.8, Friction: 0.98, Restitution: 0.2}, 0.8),
	// half a tile wide, two tiles high: light and unstable
	TileBeam: newShape(TileBeam, 48, 192, Material{Mass: 0.8, Friction: 0.96, Restitution: 0.3}, 0.4),
}

// ShapeOf returns the catalog shape of a tile type.
// It panics on a value outside the catalog: tile types are validated at load time.
func ShapeOf(t TileType) *Shape {
	if !t.Valid() {
		panic(fmt.Sprintf("actor: unknown tile type %d", int(t)))
	}
	return catalog[t]
}
