package export

import (
	"bytes"
	"testing"

	"github.com/angelmondragon/yoypulse/internal/yoy"
	"github.com/xuri/excelize/v2"
)

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	raw, err := Bytes(f)
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestRankingsWorkbook(t *testing.T) {
	decliners := []yoy.ScoredRow{{CustomerID: "CUST0001", CYSales: 80, PYSales: 100, YoYDelta: -20, YoYPct: -20, PriorityScore: 0.9}}
	growers := []yoy.ScoredRow{
		{CustomerID: "CUST0002", CYSales: 150, PYSales: 100, YoYDelta: 50, YoYPct: 50, PriorityScore: 0.8},
		{CustomerID: "CUST0003", CYSales: 110, PYSales: 100, YoYDelta: 10, YoYPct: 10, PriorityScore: 0.3},
	}
	f, err := NewExporter().Rankings(decliners, growers)
	if err != nil {
		t.Fatalf("rankings: %v", err)
	}
	wb := reopen(t, f)

	if got := wb.GetSheetList(); len(got) != 2 || got[0] != "Decliners" || got[1] != "Growers" {
		t.Fatalf("unexpected sheets %v", got)
	}
	rows, err := wb.GetRows("Growers")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "CustomerID" || rows[2][0] != "CUST0003" {
		t.Fatalf("unexpected growers rows %v", rows)
	}
	if v, _ := wb.GetCellValue("Decliners", "D2"); v != "-20" {
		t.Fatalf("expected delta -20, got %q", v)
	}
}

func TestOnePagerWorkbook(t *testing.T) {
	bundle := yoy.Decompose("CUST0042", yoy.BundleInputs{
		CYSales: 1200, PYSales: 1000, CYCOGS: 900, PYCOGS: 700, CYQtySold: 12,
		Branches: []yoy.BranchSales{{Branch: "EAST", CYSales: 1200, PYSales: 1000}},
	})
	f, err := NewExporter().OnePager(bundle)
	if err != nil {
		t.Fatalf("onepager: %v", err)
	}
	wb := reopen(t, f)

	want := []string{"Headline", "PVM", "Returns", "Geo", "Cadence"}
	got := wb.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("unexpected sheets %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheet %d = %q, want %q", i, got[i], want[i])
		}
	}
	if v, _ := wb.GetCellValue("Headline", "B2"); v != "CUST0042" {
		t.Fatalf("customer cell %q", v)
	}
	if v, _ := wb.GetCellValue("Headline", "B5"); v != "200" {
		t.Fatalf("delta cell %q", v)
	}
	if v, _ := wb.GetCellValue("Geo", "A2"); v != "EAST" {
		t.Fatalf("geo cell %q", v)
	}
	if v, _ := wb.GetCellValue("Cadence", "A2"); v != "No data" {
		t.Fatalf("empty cadence should say No data, got %q", v)
	}
}
