package grid

import "math"

// Cell is one integer grid coordinate pair, the unit of token position
// and room boundaries.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Transform is a snapshot of the rendering surface's pan/zoom state.
// A plane coordinate maps to screen space as plane*Scale + Offset.
type Transform struct {
	OffsetX float64
	OffsetY float64
	Scale   float64
}

// ToPlane inverts the pan/zoom transform, recovering logical-plane
// coordinates from screen-space pointer input.
func ToPlane(pointerX, pointerY float64, t Transform) (float64, float64) {
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	return (pointerX - t.OffsetX) / scale, (pointerY - t.OffsetY) / scale
}

// SnapToGrid maps plane coordinates to the containing cell. Cell (0,0)
// spans [0,cellSize) on both axes. Uses floor, never round, so cell
// boundaries stay stable under repeated snapping.
func SnapToGrid(planeX, planeY, cellSize float64) Cell {
	return Cell{
		X: int(math.Floor(planeX / cellSize)),
		Y: int(math.Floor(planeY / cellSize)),
	}
}
