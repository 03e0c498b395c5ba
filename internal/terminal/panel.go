package terminal

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/angelmondragon/yoypulse/internal/live"
	"github.com/angelmondragon/yoypulse/pkg/money"
)

const (
	MinWidth = 60

	ansiReset   = "\x1b[0m"
	ansiGreen   = "\x1b[32m"
	ansiRed     = "\x1b[31m"
	ansiCyan    = "\x1b[1;36m"
	ansiMagenta = "\x1b[35m"
	ansiDim     = "\x1b[2m"
	clearScreen = "\x1b[H\x1b[2J"
)

// Renderer writes panels at a fixed width.
type Renderer struct {
	Width int
	Color bool
	// Clear emits a home-and-clear sequence before each dashboard frame.
	Clear bool
}

func (r Renderer) width() int {
	return max(MinWidth, r.Width)
}

func (r Renderer) paint(code, s string) string {
	if !r.Color {
		return s
	}
	return code + s + ansiReset
}

type card struct {
	title  string
	value  float64
	shown  float64
	series []float64
	color  string
	border string
}

// Dashboard renders the three momentum cards and the records row.
func (r Renderer) Dashboard(w io.Writer, view live.View, now time.Time) error {
	width := r.width()
	var b strings.Builder
	if r.Clear {
		b.WriteString(clearScreen)
	}

	mode := "waiting"
	if view.Snapshot != nil {
		mode = string(view.Snapshot.Mode)
	}
	title := fmt.Sprintf(" DASHBOARD  live status of YoY momentum  %s  [%s]", now.Format("2006-01-02 15:04:05"), mode)
	b.WriteString(r.paint(ansiCyan, Fit(title, width)))
	b.WriteByte('\n')
	b.WriteString(r.paint(ansiDim, strings.Repeat("═", width)))
	b.WriteByte('\n')

	cur := view.Current
	netColor := ansiGreen
	if cur.Net < 0 {
		netColor = ansiRed
	}
	cards := []card{
		{" GROWERS ↑", cur.Growers, cur.Growers, view.History.Growers, ansiGreen, ""},
		{" DECLINERS ↓", cur.Decliners, -cur.Decliners, view.History.Decliners, ansiRed, ansiMagenta},
		{" NET MOMENTUM", cur.Net, cur.Net, view.History.Net, netColor, ""},
	}
	lo, hi := seriesRange(view.History)
	widths := cardWidths(width)

	rows := make([][]string, 6)
	for i, c := range cards {
		inner := widths[i] - 2
		rows[0] = append(rows[0], r.paint(c.border, "┏"+strings.Repeat("━", inner)+"┓"))
		rows[1] = append(rows[1], r.paint(c.color, "┃"+Fit(c.title, inner)+"┃"))
		rows[2] = append(rows[2], r.paint(c.color, "┃"+Fit(FitRight(HumanMoney(c.shown), inner-1), inner)+"┃"))
		rows[3] = append(rows[3], "┃"+r.paint(c.color, Fit(Gauge(c.value, lo, hi, max(8, inner-2)), inner))+"┃")
		rows[4] = append(rows[4], r.paint(c.color, "┃"+Fit(Sparkline(c.series, max(8, inner-2)), inner)+"┃"))
		rows[5] = append(rows[5], r.paint(c.border, "┗"+strings.Repeat("━", inner)+"┛"))
	}
	for _, row := range rows {
		b.WriteString(strings.Join(row, " "))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	declining, growing := 0, 0
	if view.Snapshot != nil {
		declining = view.Snapshot.Momentum.DecliningCount
		growing = view.Snapshot.Momentum.GrowingCount
	}
	records := fmt.Sprintf(" Records   Decliners: %s   Growers: %s   Total: %s ",
		money.Grouped(int64(declining)), money.Grouped(int64(growing)), money.Grouped(int64(declining+growing)))
	b.WriteString(r.paint(ansiDim, "┏"+strings.Repeat("━", width-2)+"┓"))
	b.WriteByte('\n')
	b.WriteString("┃" + Fit(records, width-2) + "┃")
	b.WriteByte('\n')
	b.WriteString(r.paint(ansiDim, "┗"+strings.Repeat("━", width-2)+"┛"))
	b.WriteByte('\n')

	if view.LastError != "" {
		b.WriteString(r.paint(ansiRed, Fit(" No data: "+view.LastError, width)))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// cardWidths splits width into three cards separated by single spaces,
// giving any remainder to the leftmost cards.
func cardWidths(width int) [3]int {
	avail := width - 2
	base := avail / 3
	rem := avail - base*3
	var out [3]int
	for i := range out {
		out[i] = base
		if rem > i {
			out[i]++
		}
	}
	return out
}

// seriesRange scales every gauge against the same visible range.
func seriesRange(s live.Series) (lo, hi float64) {
	lo, hi = 0, 0
	for _, vals := range [][]float64{s.Growers, s.Decliners, s.Net} {
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}
