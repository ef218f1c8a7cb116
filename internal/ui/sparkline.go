package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ceilingSteps are the discrete scaling ceilings for auto-scaled charts. The
// first step with peak < step*0.85 is chosen, leaving ~15% headroom.
var ceilingSteps = [...]float64{10, 15, 25, 50, 75, 100}

// selectCeiling returns the y-axis ceiling. A positive knownMax is used as
// is; otherwise the ceiling is derived from the peak.
func selectCeiling(peak, knownMax float64) float64 {
	if knownMax > 0 {
		return knownMax
	}
	for _, step := range ceilingSteps {
		if peak < step*0.85 {
			return step
		}
	}
	return peak / 0.85
}

// Chart renders data as a braille area chart rows characters high. Each
// character covers two samples and four dot levels, so the chart resolves
// rows*4 levels. Samples fill from the right when there are fewer than the
// width holds.
func Chart(data []float64, width, rows int, color lipgloss.Color, knownMax float64) string {
	if width < 1 || rows < 1 {
		return ""
	}

	samples := resample(data, width*2)
	var peak float64
	for _, v := range samples {
		peak = max(peak, v)
	}
	ceiling := selectCeiling(peak, knownMax)
	levels := rows * 4

	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat("⠀", width))
	}

	offset := width - (len(samples)+1)/2
	for i := 0; i+offset < width && i*2 < len(samples); i++ {
		lh := dotHeight(samples, i*2, ceiling, levels)
		rh := dotHeight(samples, i*2+1, ceiling, levels)
		for r := 0; r < rows; r++ {
			// Row 0 is the top; base is the level at the bottom of row r.
			base := (rows - 1 - r) * 4
			bits := leftColBits(clamp(lh-base, 0, 4)) | rightColBits(clamp(rh-base, 0, 4))
			grid[r][i+offset] = rune(0x2800 | bits)
		}
	}

	style := lipgloss.NewStyle().Foreground(color)
	out := make([]string, rows)
	for r, line := range grid {
		out[r] = style.Render(string(line))
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// dotHeight converts a sample to a dot height in [0, levels]. Any nonzero
// value gets at least one dot.
func dotHeight(samples []float64, idx int, ceiling float64, levels int) int {
	if idx >= len(samples) || ceiling <= 0 {
		return 0
	}
	v := samples[idx]
	if v <= 0 {
		return 0
	}
	return clamp(int(math.Round(v/ceiling*float64(levels))), 1, levels)
}

// leftColBits maps a fill height (0-4 dots from the bottom) to left column
// braille bits.
func leftColBits(h int) int {
	switch h {
	case 1:
		return 0x40
	case 2:
		return 0x44
	case 3:
		return 0x46
	case 4:
		return 0x47
	default:
		return 0
	}
}

func rightColBits(h int) int {
	switch h {
	case 1:
		return 0x80
	case 2:
		return 0xA0
	case 3:
		return 0xB0
	case 4:
		return 0xB8
	default:
		return 0
	}
}

// resample fits data to at most n samples, averaging buckets when there are
// more. Shorter data is returned as is so it can be right aligned.
func resample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	ratio := float64(len(data)) / float64(n)
	for i := range out {
		lo := int(float64(i) * ratio)
		hi := min(int(float64(i+1)*ratio), len(data))
		var sum float64
		for _, v := range data[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}
