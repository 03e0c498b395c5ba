package narrative

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/angelmondragon/yoypulse/pkg/money"
)

// Summary is the headline slice of a One-Pager the model sees.
type Summary struct {
	CustomerID string  `json:"customer_id"`
	CYSales    float64 `json:"cy_sales"`
	PYSales    float64 `json:"py_sales"`
	YoYDelta   float64 `json:"yoy_delta"`
	YoYPct     float64 `json:"yoy_pct"`
}

func (s Summary) Performance() string {
	if s.YoYDelta > 0 {
		return "growing"
	}
	return "declining"
}

// Prompt renders the user message for Recommend.
func (s Summary) Prompt() string {
	perf := s.Performance()
	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s\n", s.CustomerID)
	fmt.Fprintf(&b, "Current Year Sales: %s\n", money.Whole(s.CYSales))
	fmt.Fprintf(&b, "Previous Year Sales: %s\n", money.Whole(s.PYSales))
	fmt.Fprintf(&b, "YoY Change: %s (%+.1f%%)\n", money.Whole(s.YoYDelta), s.YoYPct)
	fmt.Fprintf(&b, "Performance: %s\n\n", perf)
	fmt.Fprintf(&b, "Generate specific sales actions for this %s customer.", perf)
	return b.String()
}

var listMarker = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+`)

// SplitRecommendations turns a numbered or bulleted reply into one entry per
// item. Lines without a marker continue the previous item; preamble text
// before the first marker is dropped. A reply with no markers at all comes
// back as its non-empty lines.
func SplitRecommendations(text string) []string {
	items := make([]string, 0)
	var plain []string
	inList := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if loc := listMarker.FindStringIndex(line); loc != nil {
			inList = true
			item := cleanItem(line[loc[1]:])
			if item != "" {
				items = append(items, item)
			}
			continue
		}
		if inList && len(items) > 0 {
			items[len(items)-1] = items[len(items)-1] + " " + cleanItem(trimmed)
			continue
		}
		plain = append(plain, cleanItem(trimmed))
	}
	if !inList {
		return append(items, plain...)
	}
	return items
}

func cleanItem(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
}
