package canvas

import (
	"fmt"
	"image"
	col "image/color"
)

// Point is a pixel coordinate on the canvas.
type Point struct {
	X, Y int
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Rect is a half-open pixel region [X0,X1) x [Y0,Y1).
type Rect struct {
	X0, Y0, X1, Y1 int
}

func (r Rect) Dx() int { return r.X1 - r.X0 }

func (r Rect) Dy() int { return r.Y1 - r.Y0 }

func (r Rect) Empty() bool { return r.X0 >= r.X1 || r.Y0 >= r.Y1 }

func (r Rect) Area() int { return r.Dx() * r.Dy() }

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d)x[%d,%d)", r.X0, r.X1, r.Y0, r.Y1)
}

// Union returns the smallest rect covering both r and s.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	if s.X0 < r.X0 {
		r.X0 = s.X0
	}
	if s.Y0 < r.Y0 {
		r.Y0 = s.Y0
	}
	if s.X1 > r.X1 {
		r.X1 = s.X1
	}
	if s.Y1 > r.Y1 {
		r.Y1 = s.Y1
	}
	return r
}

// Intersect clips r to s.
func (r Rect) Intersect(s Rect) Rect {
	if s.X0 > r.X0 {
		r.X0 = s.X0
	}
	if s.Y0 > r.Y0 {
		r.Y0 = s.Y0
	}
	if s.X1 < r.X1 {
		r.X1 = s.X1
	}
	if s.Y1 < r.Y1 {
		r.Y1 = s.Y1
	}
	if r.Empty() {
		return Rect{}
	}
	return r
}

// Canvas is a fixed-size grid of palette indices. Index 0 (Unset) means the
// pixel has never been painted. All mutation goes through Stamp; coordinates
// outside the grid are clipped, never an error.
type Canvas struct {
	w, h  int
	cells []Color
}

func New(w, h int) (*Canvas, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("canvas dimensions must be positive, got %dx%d", w, h)
	}
	return &Canvas{
		w:     w,
		h:     h,
		cells: make([]Color, w*h),
	}, nil
}

func (c *Canvas) Dimensions() (int, int) { return c.w, c.h }

// Bounds returns the full canvas rect.
func (c *Canvas) Bounds() Rect { return Rect{0, 0, c.w, c.h} }

// At returns the palette index at (x, y), or Unset outside the grid.
func (c *Canvas) At(x, y int) Color {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return Unset
	}
	return c.cells[y*c.w+x]
}

// Occupied reports whether the pixel has been painted.
func (c *Canvas) Occupied(x, y int) bool { return c.At(x, y) != Unset }

// Stamp paints the footprint offsets around center with the given color and
// returns the touched region clipped to the canvas. Offsets falling outside
// the grid are absorbed.
func (c *Canvas) Stamp(center Point, footprint []Point, color Color) (Rect, error) {
	if !color.Valid() {
		return Rect{}, fmt.Errorf("invalid palette index %d", color)
	}
	if len(footprint) == 0 {
		return Rect{}, fmt.Errorf("empty footprint")
	}
	touched := Rect{}
	for _, off := range footprint {
		x := center.X + off.X
		y := center.Y + off.Y
		if x < 0 || x >= c.w || y < 0 || y >= c.h {
			continue
		}
		c.cells[y*c.w+x] = color
		touched = touched.Union(Rect{x, y, x + 1, y + 1})
	}
	return touched, nil
}

// ReadRegion counts painted pixels within the region clipped to the canvas.
// It returns the painted count and the total pixels inspected.
func (c *Canvas) ReadRegion(r Rect) (occupied, total int) {
	r = r.Intersect(c.Bounds())
	for y := r.Y0; y < r.Y1; y++ {
		row := c.cells[y*c.w : y*c.w+c.w]
		for x := r.X0; x < r.X1; x++ {
			total++
			if row[x] != Unset {
				occupied++
			}
		}
	}
	return occupied, total
}

// OccupiedRatio returns the painted fraction of the region, 0 for an empty
// region.
func (c *Canvas) OccupiedRatio(r Rect) float64 {
	occ, total := c.ReadRegion(r)
	if total == 0 {
		return 0
	}
	return float64(occ) / float64(total)
}

// DominantColor returns the most frequent painted color in the region and
// false when the region holds no paint.
func (c *Canvas) DominantColor(r Rect) (Color, bool) {
	r = r.Intersect(c.Bounds())
	var counts [paletteSize]int
	for y := r.Y0; y < r.Y1; y++ {
		for x := r.X0; x < r.X1; x++ {
			counts[c.cells[y*c.w+x]]++
		}
	}
	best, bestN := Unset, 0
	for i := int(Unset) + 1; i < paletteSize; i++ {
		if counts[i] > bestN {
			best, bestN = Color(i), counts[i]
		}
	}
	return best, bestN > 0
}

// Clear resets every pixel to Unset.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = Unset
	}
}

// Image renders the canvas into an RGBA image for export. Unpainted pixels
// render as the background color.
func (c *Canvas) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.w, c.h))
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			img.SetRGBA(x, y, c.cells[y*c.w+x].RGBA())
		}
	}
	return img
}

// SetImage restores canvas contents from a previously exported image. Pixels
// that do not match a palette entry exactly are left unset.
func (c *Canvas) SetImage(img image.Image) {
	b := img.Bounds()
	for y := 0; y < c.h && y < b.Dy(); y++ {
		for x := 0; x < c.w && x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			c.cells[y*c.w+x] = fromRGB(col.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), 255})
		}
	}
}
