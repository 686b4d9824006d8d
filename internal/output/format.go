package output

import (
	"fmt"
	"strconv"
	"strings"
)

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// KeyValue returns one aligned label/value line.
func KeyValue(label, value string) string {
	return fmt.Sprintf(" %s %s", StyleLabel.Render(label), StyleValue.Render(value))
}

// Weight formats kilograms without trailing zeros: 82.5 -> "82.5kg".
func Weight(kg float64) string {
	return Number(kg) + "kg"
}

// Number formats a float without trailing zeros.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Volume formats a volume with thousands separators, rounded to whole kilograms.
func Volume(v float64) string {
	n := int64(v + 0.5)
	if v < 0 {
		n = int64(v - 0.5)
	}
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var sb strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

// Delta renders a signed change styled green when it went up and red when
// it went down. Zero renders as a muted dash.
func Delta(v float64, format func(float64) string) string {
	switch {
	case v > 0:
		return StyleSuccess.Render("▲ +" + format(v))
	case v < 0:
		return StyleError.Render("▼ -" + format(-v))
	default:
		return StyleMuted.Render("─")
	}
}

// Bar renders ratio in [0,1] as a fixed-width bar.
func Bar(ratio float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int(ratio*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// HeatCell renders a heatmap intensity level 0-4 as a single glyph.
func HeatCell(level int) string {
	switch {
	case level <= 0:
		return StyleMuted.Render("·")
	case level == 1:
		return StyleSuccess.Render("░")
	case level == 2:
		return StyleSuccess.Render("▒")
	case level == 3:
		return StyleSuccess.Render("▓")
	default:
		return StyleSuccess.Render("█")
	}
}
