package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaskCellSize is the edge length, in pixels, of one occupancy cell
const MaskCellSize = 4.0

// Mask is a cell-grid occupancy bitmap of an upright footprint.
// Cell (0, 0) is the bottom-left corner; rows grow upward.
type Mask struct {
	Cols     int
	Rows     int
	CellSize float64
	bits     []uint64
}

// NewMask builds a mask covering a width x height footprint.
// fill reports whether the cell at (col, row) is occupied.
func NewMask(width, height, cellSize float64, fill func(col, row int) bool) *Mask {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	m := &Mask{
		Cols:     cols,
		Rows:     rows,
		CellSize: cellSize,
		bits:     make([]uint64, (cols*rows+63)/64),
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if fill(col, row) {
				i := row*cols + col
				m.bits[i/64] |= 1 << (i % 64)
			}
		}
	}

	return m
}

// NewSolidMask builds a fully occupied mask
func NewSolidMask(width, height float64) *Mask {
	return NewMask(width, height, MaskCellSize, func(int, int) bool { return true })
}

// At reports whether the cell is occupied. Out of range cells are empty.
func (m *Mask) At(col, row int) bool {
	if col < 0 || row < 0 || col >= m.Cols || row >= m.Rows {
		return false
	}
	i := row*m.Cols + col

	return m.bits[i/64]&(1<<(i%64)) != 0
}

// Contains reports whether a point, relative to the bottom-left corner of the footprint, is occupied
func (m *Mask) Contains(local mgl64.Vec2) bool {
	if local.X() < 0 || local.Y() < 0 {
		return false
	}

	return m.At(int(local.X()/m.CellSize), int(local.Y()/m.CellSize))
}

// Count returns the number of occupied cells
func (m *Mask) Count() int {
	n := 0
	for row := 0; row < m.Rows; row++ {
		for col := 0; col < m.Cols; col++ {
			if m.At(col, row) {
				n++
			}
		}
	}

	return n
}
