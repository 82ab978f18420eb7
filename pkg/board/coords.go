package board

// AspectRatio is the height/width ratio of every board. Boards are square.
const AspectRatio = 1.0

// Tile is an integer grid position. X counts tiles left to right and Y
// counts tiles bottom to top.
type Tile struct {
	X, Y int
}

// Point is a continuous layout coordinate.
type Point struct {
	X, Y float64
}

// GridToCoords maps a tile of a square grid with gridSize tiles per side to
// layout coordinates on a square of side coordSize:
//
//	x = tile.X / gridSize * coordSize
//	y = tile.Y / gridSize * coordSize
//
// No bounds checking is performed; tiles outside [0, gridSize) map outside
// the nominal drawing area.
func GridToCoords(gridSize int, coordSize float64, tile Tile) Point {
	n := float64(gridSize)
	return Point{
		X: float64(tile.X) / n * coordSize,
		Y: float64(tile.Y) / n * coordSize,
	}
}
