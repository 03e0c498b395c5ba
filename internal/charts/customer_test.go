package charts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/angelmondragon/yoypulse/internal/yoy"
)

func testBundle() yoy.CustomerBundle {
	return yoy.Decompose("CUST0042", yoy.BundleInputs{
		CYSales: 1200, PYSales: 1000, CYQtySold: 20,
		LineItems: []yoy.LineItem{{Key: "A", CYSales: 1200, PYSales: 1000, CYQty: 20, PYQty: 20}},
		Branches: []yoy.BranchSales{
			{Branch: "NORTH", CYSales: 500, PYSales: 700},
			{Branch: "SOUTH", CYSales: 700, PYSales: 300},
		},
		Weeks: []yoy.WeekSales{{Week: "W01", CYSales: 90}, {Week: "W02", CYSales: 110}},
	})
}

func TestThemeFallsBackToDark(t *testing.T) {
	p, ok := Theme("Tokyo")
	if !ok || p.Background != "#1a1b26" {
		t.Fatalf("expected tokyo palette, got %+v ok=%v", p, ok)
	}
	p, ok = Theme("neon")
	if ok || p.Background != themes[DefaultTheme].Background {
		t.Fatalf("expected dark fallback, got %+v ok=%v", p, ok)
	}
	for _, name := range ThemeNames() {
		if _, ok := Theme(name); !ok {
			t.Fatalf("listed theme %q missing", name)
		}
	}
}

func TestCustomerPageRendersAllCharts(t *testing.T) {
	var buf bytes.Buffer
	if err := CustomerPage(&buf, testBundle(), Options{Theme: "bright"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"Weekly Cadence", "Branch YoY Delta", "Price / Volume / Mix", "CUST0042", "W01", "NORTH", "#ffffff"} {
		if !strings.Contains(html, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestSignedBarColours(t *testing.T) {
	pal, _ := Theme("dark")
	b := testBundle()
	if got := signedBar(b.Geo[0].YoYDelta, pal).ItemStyle.Color; got != pal.negative() {
		t.Fatalf("negative delta coloured %s", got)
	}
	if got := signedBar(b.Geo[1].YoYDelta, pal).ItemStyle.Color; got != pal.positive() {
		t.Fatalf("positive delta coloured %s", got)
	}
}

func TestEmptyBundleStillRenders(t *testing.T) {
	var buf bytes.Buffer
	if err := CustomerPage(&buf, yoy.Decompose("CUST0000", yoy.BundleInputs{}), Options{}); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !strings.Contains(buf.String(), "CUST0000") {
		t.Fatal("expected customer id in subtitle")
	}
}
