package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/gravsim/internal/render"
	"github.com/san-kum/gravsim/internal/storage"
)

// Palette colors successive bodies in TrajectoriesToSVG.
var Palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *render.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	w, h := canvas.PixelSize()
	width := float64(w) * scale
	height := float64(h) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) add(x, y float64) {
	b.minX = math.Min(b.minX, x)
	b.maxX = math.Max(b.maxX, x)
	b.minY = math.Min(b.minY, y)
	b.maxY = math.Max(b.maxY, y)
}

// padded widens the box by 10% on every side. A flat axis gets a unit range.
func (b bounds) padded() bounds {
	rx, ry := b.maxX-b.minX, b.maxY-b.minY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	return bounds{b.minX - rx*0.1, b.maxX + rx*0.1, b.minY - ry*0.1, b.maxY + ry*0.1}
}

// TrajectoriesToSVG draws one path per body, plotting position component
// ax horizontally against ay vertically. An ay outside the trajectory's
// dimensions plots time vertically instead, which is how 1D runs are
// drawn. Non-finite samples break the path.
func TrajectoriesToSVG(tr *storage.Trajectory, ax, ay, width, height int) (string, error) {
	if tr == nil || tr.Len() < 2 {
		return "", fmt.Errorf("export: need at least 2 samples")
	}
	if ax < 0 || ax >= tr.Dims {
		return "", fmt.Errorf("export: axis %d out of range for %d dimensions", ax, tr.Dims)
	}
	useTime := ay < 0 || ay >= tr.Dims

	point := func(i, idx int) (float64, float64) {
		p := tr.Position(i, idx)
		if useTime {
			return p[ax], tr.Times[i]
		}
		return p[ax], p[ay]
	}

	b := bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i := 0; i < tr.Len(); i++ {
		for idx := range tr.Labels {
			x, y := point(i, idx)
			if finite(x) && finite(y) {
				b.add(x, y)
			}
		}
	}
	if math.IsInf(b.minX, 1) {
		return "", fmt.Errorf("export: no finite samples")
	}
	b = b.padded()
	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for idx, label := range tr.Labels {
		color := Palette[idx%len(Palette)]
		fmt.Fprintf(&sb, `<path id="%s" fill="none" stroke="%s" stroke-width="1.5" d="`, label, color)
		pen := false
		for i := 0; i < tr.Len(); i++ {
			x, y := point(i, idx)
			if !finite(x) || !finite(y) {
				pen = false
				continue
			}
			px := (x - b.minX) / rangeX * float64(width)
			py := float64(height) - (y-b.minY)/rangeY*float64(height)
			if pen {
				fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
			} else {
				fmt.Fprintf(&sb, " M%.1f,%.1f", px, py)
				pen = true
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String(), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
