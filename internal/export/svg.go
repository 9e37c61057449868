// Package export renders stored trajectories as standalone SVG charts.
package export

import (
	"fmt"
	"strings"
)

const background = "#0a0a0a"

// DefaultPalette colors series that carry no explicit stroke.
var DefaultPalette = []string{"#00ff88", "#00aaff", "#ff5577", "#ffaa00", "#cc88ff"}

// Series is one named polyline sharing the chart axes.
type Series struct {
	Name   string
	Color  string
	Values []float64
}

// TimeSeriesSVG renders series against a shared time axis. All series
// must have one value per time sample.
func TimeSeriesSVG(times []float64, series []Series, width, height int) string {
	if len(times) < 2 || len(series) == 0 {
		return ""
	}

	minT, maxT := bounds(times)
	rangeT := maxT - minT
	if rangeT == 0 {
		rangeT = 1
	}

	minV, maxV := bounds(series[0].Values)
	for _, s := range series[1:] {
		lo, hi := bounds(s.Values)
		if lo < minV {
			minV = lo
		}
		if hi > maxV {
			maxV = hi
		}
	}
	minV, maxV = pad(minV, maxV)
	rangeV := maxV - minV

	var sb strings.Builder
	header(&sb, width, height)

	for i, s := range series {
		if len(s.Values) != len(times) {
			continue
		}
		color := s.Color
		if color == "" {
			color = DefaultPalette[i%len(DefaultPalette)]
		}

		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for j, v := range s.Values {
			x := (times[j] - minT) / rangeT * float64(width)
			y := float64(height) - (v-minV)/rangeV*float64(height)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")

		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>`,
			16*(i+1), color, s.Name))
		sb.WriteString("\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// PhaseSVG renders one state component against another as a phase
// trajectory. An empty color picks the first palette entry.
func PhaseSVG(xs, ys []float64, width, height int, color string) string {
	if len(xs) < 2 || len(xs) != len(ys) {
		return ""
	}
	if color == "" {
		color = DefaultPalette[0]
	}

	minX, maxX := pad(bounds(xs))
	minY, maxY := pad(bounds(ys))
	rangeX := maxX - minX
	rangeY := maxY - minY

	var sb strings.Builder
	header(&sb, width, height)

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
	for i := range xs {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}

func header(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

func bounds(vals []float64) (min, max float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	min, max = vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// pad widens a range by 10% on each side so trajectories never touch
// the chart edge. A degenerate range widens to a unit band.
func pad(min, max float64) (float64, float64) {
	r := max - min
	if r == 0 {
		r = 1
	}
	return min - r*0.1, max + r*0.1
}
