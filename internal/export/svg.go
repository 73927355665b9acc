// Package export renders stored runs as standalone SVG documents.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/blobsim/internal/sim"
	"github.com/san-kum/blobsim/internal/viz"
)

const (
	background = "#0a0a0a"
	foreground = "#00ff00"
)

func header(sb *strings.Builder, width, height float64) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

// SnapshotToSVG draws every blob of snap as its square footprint with a
// dot at its position. Arena units are multiplied by scale.
func SnapshotToSVG(width, height int, blobSize float64, snap sim.Snapshot, scale float64) string {
	if scale <= 0 {
		scale = 1
	}

	var sb strings.Builder
	header(&sb, float64(width)*scale, float64(height)*scale)
	sb.WriteString(fmt.Sprintf(`<g fill="none" stroke="%s" stroke-width="1">
`, foreground))

	side := blobSize * scale
	dotRadius := scale * 0.5
	var dots strings.Builder
	for _, b := range snap {
		if !b.Position.IsFinite() {
			continue
		}
		x, y := b.Position.X*scale, b.Position.Y*scale
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>
`, x, y, side, side))
		dots.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, x, y, dotRadius))
	}

	sb.WriteString("</g>\n")
	sb.WriteString(fmt.Sprintf(`<g fill="%s">
`, foreground))
	sb.WriteString(dots.String())
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrailsToSVG draws the path of each blob across snapshots as a polyline.
// Blobs with fewer than two finite positions are skipped.
func TrailsToSVG(width, height int, snapshots []sim.Snapshot, scale float64) string {
	if scale <= 0 {
		scale = 1
	}

	paths := make(map[int][]string)
	for _, snap := range snapshots {
		for _, b := range snap {
			if !b.Position.IsFinite() {
				continue
			}
			paths[b.ID] = append(paths[b.ID], fmt.Sprintf("%.1f,%.1f", b.Position.X*scale, b.Position.Y*scale))
		}
	}

	ids := make([]int, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var sb strings.Builder
	header(&sb, float64(width)*scale, float64(height)*scale)
	sb.WriteString(fmt.Sprintf(`<g fill="none" stroke="%s" stroke-width="1.5">
`, foreground))
	for _, id := range ids {
		pts := paths[id]
		if len(pts) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path data-blob="%d" d="M%s"/>
`, id, strings.Join(pts, " L")))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	header(&sb, width, height)
	sb.WriteString(fmt.Sprintf(`<g fill="%s">
`, foreground))

	dotRadius := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.Get(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
