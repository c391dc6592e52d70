package canvas

// Tool selects the stamp footprint the brush leaves on each pen-down move.
type Tool uint8

const (
	ToolPoint Tool = iota
	ToolBrush
	ToolLargeBrush
	ToolLargerBrush
	ToolStar
	ToolCircle
	ToolDiamond

	toolCount = int(ToolDiamond) + 1
)

// DefaultTool is what a fresh brush starts with.
const DefaultTool = ToolBrush

var toolNames = [toolCount]string{
	ToolPoint:       "point",
	ToolBrush:       "brush",
	ToolLargeBrush:  "large_brush",
	ToolLargerBrush: "larger_brush",
	ToolStar:        "star",
	ToolCircle:      "circle",
	ToolDiamond:     "diamond",
}

var toolFootprints [toolCount][]Point

func init() {
	toolFootprints[ToolPoint] = []Point{{0, 0}}
	toolFootprints[ToolBrush] = disc(1)
	toolFootprints[ToolLargeBrush] = disc(2)
	toolFootprints[ToolLargerBrush] = disc(3)
	toolFootprints[ToolStar] = star()
	toolFootprints[ToolCircle] = ring(3)
	toolFootprints[ToolDiamond] = diamond(2)
}

func (t Tool) Valid() bool { return int(t) < toolCount }

func (t Tool) String() string {
	if !t.Valid() {
		return "invalid"
	}
	return toolNames[t]
}

// Footprint returns the pixel offsets the tool paints around the brush
// position. The returned slice is shared; callers must not mutate it.
func (t Tool) Footprint() []Point {
	if !t.Valid() {
		return toolFootprints[ToolPoint]
	}
	return toolFootprints[t]
}

// Radius is the maximum axis offset of the footprint, used to size fallback
// coverage windows.
func (t Tool) Radius() int {
	r := 0
	for _, p := range t.Footprint() {
		if p.X > r {
			r = p.X
		}
		if -p.X > r {
			r = -p.X
		}
		if p.Y > r {
			r = p.Y
		}
		if -p.Y > r {
			r = -p.Y
		}
	}
	return r
}

// ParseTool resolves a tool keyword. The boolean reports recognition.
func ParseTool(name string) (Tool, bool) {
	for i := 0; i < toolCount; i++ {
		if toolNames[i] == name {
			return Tool(i), true
		}
	}
	return ToolPoint, false
}

// ToolNames lists the tool keywords in definition order.
func ToolNames() []string {
	names := make([]string, toolCount)
	copy(names, toolNames[:])
	return names
}

// disc builds a filled euclidean disc of the given radius.
func disc(r int) []Point {
	var pts []Point
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				pts = append(pts, Point{dx, dy})
			}
		}
	}
	return pts
}

// ring builds a one-pixel-wide circle outline of the given radius.
func ring(r int) []Point {
	var pts []Point
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d2 := dx*dx + dy*dy
			if d2 >= (r-1)*(r-1)+r && d2 <= r*r+r {
				pts = append(pts, Point{dx, dy})
			}
		}
	}
	return pts
}

// diamond builds a filled manhattan disc of the given radius.
func diamond(r int) []Point {
	var pts []Point
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if abs(dx)+abs(dy) <= r {
				pts = append(pts, Point{dx, dy})
			}
		}
	}
	return pts
}

// star builds a four-point burst: cardinal arms of length two plus the
// diagonal corners.
func star() []Point {
	return []Point{
		{0, 0},
		{1, 0}, {2, 0}, {-1, 0}, {-2, 0},
		{0, 1}, {0, 2}, {0, -1}, {0, -2},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
