// Package terminal draws the dashboard panel, rankings and One-Pager as
// fixed-width text.
package terminal

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/yoypulse/pkg/money"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// HumanMoney abbreviates v with K/M/B suffixes.
func HumanMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
	}
	a := math.Abs(v)
	switch {
	case a >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, a/1e9)
	case a >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, a/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%s$%.2fK", sign, a/1e3)
	default:
		return money.Whole(v)
	}
}

// Money renders v with thousands separators and two decimals.
func Money(v float64) string {
	return money.Cents(v)
}

// Fit trims or pads s to exactly width runes.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	n := utf8.RuneCountInString(s)
	if n == width {
		return s
	}
	if n > width {
		return string([]rune(s)[:width])
	}
	return s + strings.Repeat(" ", width-n)
}

// FitRight right-aligns s in width runes.
func FitRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return Fit(s, width)
	}
	return strings.Repeat(" ", width-n) + s
}

// Sparkline maps the trailing width values onto eight block levels.
// Negative values are fine; a flat series draws the lowest block.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return Fit(strings.Repeat(string(sparkBlocks[0]), len(values)), width)
	}
	out := make([]rune, 0, len(values))
	span := hi - lo
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkBlocks)-1))
		out = append(out, sparkBlocks[idx])
	}
	return Fit(string(out), width)
}

// Gauge fills width columns in proportion to where value sits in [lo, hi].
func Gauge(value, lo, hi float64, width int) string {
	if width <= 0 {
		return ""
	}
	span := math.Max(1, hi-lo)
	fill := int(math.Round((value - lo) / span * float64(width)))
	fill = max(0, min(width, fill))
	return strings.Repeat("█", fill) + strings.Repeat("░", width-fill)
}
