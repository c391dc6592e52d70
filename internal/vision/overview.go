package vision

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/opcanvas/internal/canvas"
)

// Overview builds the one-line canvas summary shown alongside the vision
// grid: painted pixel count, coverage percentage and the color breakdown.
func Overview(c *canvas.Canvas) string {
	w, h := c.Dimensions()
	counts := make(map[canvas.Color]int)
	painted := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if col := c.At(x, y); col != canvas.Unset {
				counts[col]++
				painted++
			}
		}
	}
	if painted == 0 {
		return fmt.Sprintf("Canvas %dx%d, blank.", w, h)
	}

	type colorCount struct {
		color canvas.Color
		n     int
	}
	byUse := make([]colorCount, 0, len(counts))
	for col, n := range counts {
		byUse = append(byUse, colorCount{col, n})
	}
	sort.Slice(byUse, func(i, j int) bool {
		if byUse[i].n != byUse[j].n {
			return byUse[i].n > byUse[j].n
		}
		return byUse[i].color < byUse[j].color
	})

	parts := make([]string, len(byUse))
	for i, cc := range byUse {
		parts[i] = fmt.Sprintf("%s %d", cc.color, cc.n)
	}
	pct := 100 * float64(painted) / float64(w*h)
	return fmt.Sprintf("Canvas %dx%d, %d pixels painted (%.1f%%): %s.",
		w, h, painted, pct, strings.Join(parts, ", "))
}
