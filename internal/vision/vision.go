// Package vision re-encodes canvas state as a fixed-size character grid, the
// only "sight" the oracle gets. Encoding is a pure function of canvas
// contents and the grid resolution.
package vision

import (
	"strings"

	"github.com/san-kum/opcanvas/internal/canvas"
)

// Density ramp and its occupancy thresholds. A cell at or above threshold i
// renders ramp[i]; empty cells render ramp[0].
var (
	ramp       = []rune{'·', '░', '▒', '▓', '█'}
	thresholds = []float64{0, 0.05, 0.25, 0.55, 0.85}
)

// Brush marker characters overlaid on the grid cell holding the brush.
const (
	markerPenDown = '◉'
	markerPenUp   = '○'
)

// Encoder downsamples a canvas into a Cols x Rows character grid.
type Encoder struct {
	cols, rows int
}

func New(cols, rows int) *Encoder {
	if cols <= 0 {
		cols = 60
	}
	if rows <= 0 {
		rows = 30
	}
	return &Encoder{cols: cols, rows: rows}
}

func (e *Encoder) Dimensions() (cols, rows int) { return e.cols, e.rows }

// Encode renders the density view: each cell's painted fraction mapped onto
// the fixed ramp. The output always has exactly Rows lines of Cols runes.
func (e *Encoder) Encode(c *canvas.Canvas) string {
	return e.render(c, func(cell canvas.Rect) rune {
		return densityRune(c.OccupiedRatio(cell))
	})
}

// EncodeColor renders the palette view: each cell shows the letter of its
// dominant color, or the empty mark.
func (e *Encoder) EncodeColor(c *canvas.Canvas) string {
	return e.render(c, func(cell canvas.Rect) rune {
		col, ok := c.DominantColor(cell)
		if !ok {
			return rune(ramp[0])
		}
		return rune(col.Letter())
	})
}

// EncodeWithBrush renders the density view with the brush position overlaid.
func (e *Encoder) EncodeWithBrush(c *canvas.Canvas, pos canvas.Point, penDown bool) string {
	w, h := c.Dimensions()
	mx := pos.X * e.cols / w
	my := pos.Y * e.rows / h

	lines := strings.Split(e.Encode(c), "\n")
	if my >= 0 && my < len(lines) {
		row := []rune(lines[my])
		if mx >= 0 && mx < len(row) {
			if penDown {
				row[mx] = markerPenDown
			} else {
				row[mx] = markerPenUp
			}
			lines[my] = string(row)
		}
	}
	return strings.Join(lines, "\n")
}

func (e *Encoder) render(c *canvas.Canvas, cell func(canvas.Rect) rune) string {
	w, h := c.Dimensions()
	var b strings.Builder
	b.Grow(e.rows * (e.cols + 1))

	for row := 0; row < e.rows; row++ {
		y0 := row * h / e.rows
		y1 := (row + 1) * h / e.rows
		if y1 == y0 {
			y1 = y0 + 1
		}
		for col := 0; col < e.cols; col++ {
			x0 := col * w / e.cols
			x1 := (col + 1) * w / e.cols
			if x1 == x0 {
				x1 = x0 + 1
			}
			b.WriteRune(cell(canvas.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}))
		}
		if row < e.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func densityRune(ratio float64) rune {
	if ratio <= 0 {
		return ramp[0]
	}
	r := ramp[0]
	for i := 1; i < len(thresholds); i++ {
		if ratio >= thresholds[i] {
			r = ramp[i]
		}
	}
	return r
}
