package terminal

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/angelmondragon/yoypulse/internal/pulse"
	"github.com/angelmondragon/yoypulse/internal/yoy"
	"github.com/shopspring/decimal"
)

// Rankings prints a ranked list as an aligned table.
func (r Renderer) Rankings(w io.Writer, res pulse.RankingResult) error {
	title := "TOP DECLINERS"
	if res.Direction == yoy.Growers {
		title = "TOP GROWERS"
	}
	if _, err := fmt.Fprintf(w, "%s  (%d of %d customers, %d excluded, %s)\n", title, len(res.Rows), res.Total, res.Excluded, res.Mode); err != nil {
		return err
	}
	if len(res.Rows) == 0 {
		_, err := io.WriteString(w, "No data\n")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tCustomer\tCY Sales\tPY Sales\tYoY Δ\tYoY %\tPriority\t")
	for i, row := range res.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%+.1f%%\t%.3f\t\n",
			i+1, row.CustomerID, Money(row.CYSales), Money(row.PYSales), Money(row.YoYDelta), row.YoYPct, row.PriorityScore)
	}
	return tw.Flush()
}

// OnePager prints every bundle section; empty sections say "No data".
func (r Renderer) OnePager(w io.Writer, b yoy.CustomerBundle) error {
	var sb strings.Builder
	width := r.width()
	rule := strings.Repeat("─", width)

	fmt.Fprintf(&sb, "ONE-PAGER  %s\n%s\n", b.CustomerID, rule)

	h := b.Headline
	fmt.Fprintf(&sb, "Headline\n")
	fmt.Fprintf(&sb, "  CY Sales %s   PY Sales %s   YoY %s (%s%%)\n", dec(h.CYSales), dec(h.PYSales), dec(h.YoYDelta), h.YoYPct.StringFixed(1))
	fmt.Fprintf(&sb, "  CY Gross Margin %s   PY Gross Margin %s\n\n", dec(h.CYGrossMargin), dec(h.PYGrossMargin))

	p := b.PVM
	fmt.Fprintf(&sb, "Price / Volume / Mix\n")
	fmt.Fprintf(&sb, "  Volume %s   Price %s   Mix %s   Total %s\n\n", dec(p.VolumeEffect), dec(p.PriceEffect), dec(p.MixEffect), dec(p.TotalDelta))

	ret := b.Returns
	fmt.Fprintf(&sb, "Returns (proxy)\n")
	fmt.Fprintf(&sb, "  CY Qty %s   PY Qty %s   Unit Price %s   Value Δ %s\n\n",
		ret.CYReturnQty.StringFixed(0), ret.PYReturnQty.StringFixed(0), dec(ret.CYUnitPrice), dec(ret.ReturnsValueDelta))

	fmt.Fprintf(&sb, "Geography\n")
	if len(b.Geo) == 0 {
		sb.WriteString("  No data\n")
	}
	for _, g := range b.Geo {
		fmt.Fprintf(&sb, "  %s %s\n", Fit(g.Branch, 14), dec(g.YoYDelta))
	}
	if s := b.GeoSummary; s.Best != nil && s.Worst != nil {
		fmt.Fprintf(&sb, "  best %s  worst %s  in %s  out %s\n", s.Best.Branch, s.Worst.Branch, dec(s.PositiveFlow), dec(s.NegativeFlow))
	}
	sb.WriteByte('\n')

	fmt.Fprintf(&sb, "Cadence\n")
	if len(b.Cadence) == 0 {
		sb.WriteString("  No data\n")
	} else {
		values := make([]float64, 0, len(b.Cadence))
		for _, c := range b.Cadence {
			values = append(values, c.CYSales.InexactFloat64())
		}
		fmt.Fprintf(&sb, "  %s  %s → %s\n", Sparkline(values, len(values)), b.Cadence[0].Week, b.Cadence[len(b.Cadence)-1].Week)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func dec(v decimal.Decimal) string {
	return Money(v.InexactFloat64())
}
