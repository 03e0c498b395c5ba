// Package money formats dollar amounts with English digit grouping.
package money

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Grouped renders n with comma thousands separators.
func Grouped(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// Whole rounds v to whole dollars: -1234567.8 is "-$1,234,568".
func Whole(v float64) string {
	return sign(v) + "$" + Grouped(int64(math.Round(math.Abs(v))))
}

// Cents keeps two decimals: 1234.5 is "$1,234.50".
func Cents(v float64) string {
	a := math.Abs(v)
	whole := math.Floor(a)
	cents := int64(math.Round((a - whole) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	return fmt.Sprintf("%s$%s.%02d", sign(v), Grouped(int64(whole)), cents)
}

func sign(v float64) string {
	if v < 0 {
		return "-"
	}
	return ""
}
