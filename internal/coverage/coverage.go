// Package coverage samples painted density over canvas regions. Sampling is
// strictly read-only; results feed the adaptive policy.
package coverage

import (
	"sync"

	"github.com/san-kum/opcanvas/internal/canvas"
)

// Sample is one coverage observation: the region inspected, its painted
// fraction, and the cycle index it was taken at. Samples are immutable once
// created.
type Sample struct {
	Region canvas.Rect `json:"region"`
	Ratio  float64     `json:"ratio"`
	Step   int         `json:"step"`
}

// parallelThreshold is the region area above which the scan is split across
// row chunks.
const parallelThreshold = 1 << 14

// Analyzer computes coverage samples. The window is the half-size of the
// fallback region centered on the brush when a cycle touched nothing.
type Analyzer struct {
	window int
}

func New(window int) *Analyzer {
	if window <= 0 {
		window = 8
	}
	return &Analyzer{window: window}
}

// Sample measures the painted fraction of the dirty region, or of a fixed
// window centered on pos when the cycle touched nothing.
func (a *Analyzer) Sample(c *canvas.Canvas, dirty canvas.Rect, pos canvas.Point, step int) Sample {
	region := dirty
	if region.Empty() {
		region = canvas.Rect{
			X0: pos.X - a.window,
			Y0: pos.Y - a.window,
			X1: pos.X + a.window + 1,
			Y1: pos.Y + a.window + 1,
		}
	}
	region = region.Intersect(c.Bounds())
	if region.Empty() {
		return Sample{Region: region, Step: step}
	}

	occupied := countOccupied(c, region)
	return Sample{
		Region: region,
		Ratio:  float64(occupied) / float64(region.Area()),
		Step:   step,
	}
}

func countOccupied(c *canvas.Canvas, r canvas.Rect) int {
	if r.Area() < parallelThreshold {
		occ, _ := c.ReadRegion(r)
		return occ
	}

	rows := r.Dy()
	partials := make([]int, rows)
	parallelRows(rows, 64, func(start, end int) {
		for row := start; row < end; row++ {
			sub := canvas.Rect{X0: r.X0, Y0: r.Y0 + row, X1: r.X1, Y1: r.Y0 + row + 1}
			occ, _ := c.ReadRegion(sub)
			partials[row] = occ
		}
	})

	total := 0
	for _, p := range partials {
		total += p
	}
	return total
}

// parallelRows executes fn over [0, n) in row chunks.
func parallelRows(n, minChunk int, fn func(start, end int)) {
	const numWorkers = 4
	if n <= minChunk {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
