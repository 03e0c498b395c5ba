// Package export writes rankings and One-Pagers as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"

	"github.com/angelmondragon/yoypulse/internal/yoy"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var rankingHeaders = []any{"CustomerID", "CY Sales", "PY Sales", "YoY Delta", "YoY %", "Priority"}

// Exporter builds workbooks.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Rankings writes a Decliners and a Growers sheet.
func (e *Exporter) Rankings(decliners, growers []yoy.ScoredRow) (*excelize.File, error) {
	f := excelize.NewFile()
	header, err := headerStyle(f)
	if err != nil {
		return nil, closeOnError(f, err)
	}

	if err := f.SetSheetName("Sheet1", "Decliners"); err != nil {
		return nil, closeOnError(f, err)
	}
	if _, err := f.NewSheet("Growers"); err != nil {
		return nil, closeOnError(f, err)
	}
	for sheet, rows := range map[string][]yoy.ScoredRow{"Decliners": decliners, "Growers": growers} {
		if err := writeRanking(f, sheet, rows, header); err != nil {
			return nil, closeOnError(f, fmt.Errorf("sheet %s: %w", sheet, err))
		}
	}
	return f, nil
}

// OnePager writes one sheet per bundle section.
func (e *Exporter) OnePager(bundle yoy.CustomerBundle) (*excelize.File, error) {
	f := excelize.NewFile()
	header, err := headerStyle(f)
	if err != nil {
		return nil, closeOnError(f, err)
	}
	if err := f.SetSheetName("Sheet1", "Headline"); err != nil {
		return nil, closeOnError(f, err)
	}

	h := bundle.Headline
	sections := []struct {
		name  string
		rows  [][]any
		width float64
	}{
		{"Headline", [][]any{
			{"Metric", "Value"},
			{"Customer", bundle.CustomerID},
			{"CY Sales", num(h.CYSales)},
			{"PY Sales", num(h.PYSales)},
			{"YoY Delta", num(h.YoYDelta)},
			{"YoY %", num(h.YoYPct)},
			{"CY Gross Margin", num(h.CYGrossMargin)},
			{"PY Gross Margin", num(h.PYGrossMargin)},
		}, 20},
		{"PVM", [][]any{
			{"Effect", "Value"},
			{"Volume", num(bundle.PVM.VolumeEffect)},
			{"Price", num(bundle.PVM.PriceEffect)},
			{"Mix", num(bundle.PVM.MixEffect)},
			{"Total", num(bundle.PVM.TotalDelta)},
		}, 16},
		{"Returns", [][]any{
			{"Metric", "Value"},
			{"CY Return Qty", num(bundle.Returns.CYReturnQty)},
			{"PY Return Qty", num(bundle.Returns.PYReturnQty)},
			{"CY Unit Price", num(bundle.Returns.CYUnitPrice)},
			{"Returns Value Delta", num(bundle.Returns.ReturnsValueDelta)},
		}, 22},
		{"Geo", geoRows(bundle.Geo), 16},
		{"Cadence", cadenceRows(bundle.Cadence), 14},
	}

	for i, s := range sections {
		if i > 0 {
			if _, err := f.NewSheet(s.name); err != nil {
				return nil, closeOnError(f, err)
			}
		}
		if err := writeRows(f, s.name, s.rows, header); err != nil {
			return nil, closeOnError(f, fmt.Errorf("sheet %s: %w", s.name, err))
		}
		if err := f.SetColWidth(s.name, "A", "D", s.width); err != nil {
			return nil, closeOnError(f, err)
		}
	}
	return f, nil
}

// Bytes serialises and closes the workbook.
func Bytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	err = multierr.Append(err, f.Close())
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func writeRanking(f *excelize.File, sheet string, rows []yoy.ScoredRow, header int) error {
	data := make([][]any, 0, len(rows)+1)
	data = append(data, rankingHeaders)
	for _, r := range rows {
		data = append(data, []any{r.CustomerID, r.CYSales, r.PYSales, r.YoYDelta, r.YoYPct, r.PriorityScore})
	}
	if err := writeRows(f, sheet, data, header); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 14); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "F", 16)
}

// writeRows writes data from A1 and styles the first row as a header.
func writeRows(f *excelize.File, sheet string, data [][]any, header int) error {
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetRowStyle(sheet, 1, 1, header)
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func geoRows(geo []yoy.BranchDelta) [][]any {
	rows := [][]any{{"Branch", "CY Sales", "PY Sales", "YoY Delta"}}
	if len(geo) == 0 {
		return append(rows, []any{"No data"})
	}
	for _, b := range geo {
		rows = append(rows, []any{b.Branch, num(b.CYSales), num(b.PYSales), num(b.YoYDelta)})
	}
	return rows
}

func cadenceRows(weeks []yoy.CadencePoint) [][]any {
	rows := [][]any{{"Week", "CY Sales"}}
	if len(weeks) == 0 {
		return append(rows, []any{"No data"})
	}
	for _, w := range weeks {
		rows = append(rows, []any{w.Week, num(w.CYSales)})
	}
	return rows
}

func num(v decimal.Decimal) float64 {
	return v.Round(2).InexactFloat64()
}

func closeOnError(f *excelize.File, err error) error {
	return multierr.Append(err, f.Close())
}
