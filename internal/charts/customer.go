package charts

import (
	"fmt"
	"io"

	"github.com/angelmondragon/yoypulse/internal/yoy"
	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/shopspring/decimal"
)

// Options controls page rendering.
type Options struct {
	Theme      string
	AssetsHost string
}

// CustomerPage renders the cadence, geo and PVM charts for one bundle as a
// standalone HTML page.
func CustomerPage(w io.Writer, bundle yoy.CustomerBundle, o Options) error {
	pal, _ := Theme(o.Theme)

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s One-Pager", bundle.CustomerID)
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	page.AddCharts(
		CadenceLine(bundle, pal, o.AssetsHost),
		GeoBar(bundle, pal, o.AssetsHost),
		PVMBar(bundle, pal, o.AssetsHost),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render customer page: %w", err)
	}
	return nil
}

// CadenceLine plots current-year weekly sales.
func CadenceLine(bundle yoy.CustomerBundle, pal Palette, assetsHost string) *echarts.Line {
	weeks := make([]string, 0, len(bundle.Cadence))
	points := make([]opts.LineData, 0, len(bundle.Cadence))
	for _, p := range bundle.Cadence {
		weeks = append(weeks, p.Week)
		points = append(points, opts.LineData{Value: money(p.CYSales)})
	}

	line := echarts.NewLine()
	line.SetGlobalOptions(globalOptions(pal, assetsHost, "Weekly Cadence", bundle.CustomerID)...)
	line.SetXAxis(weeks).
		AddSeries("CY sales", points,
			echarts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		)
	return line
}

// GeoBar plots the YoY delta per branch, coloured by sign.
func GeoBar(bundle yoy.CustomerBundle, pal Palette, assetsHost string) *echarts.Bar {
	branches := make([]string, 0, len(bundle.Geo))
	bars := make([]opts.BarData, 0, len(bundle.Geo))
	for _, b := range bundle.Geo {
		branches = append(branches, b.Branch)
		bars = append(bars, signedBar(b.YoYDelta, pal))
	}

	bar := echarts.NewBar()
	bar.SetGlobalOptions(globalOptions(pal, assetsHost, "Branch YoY Delta", bundle.CustomerID)...)
	bar.SetXAxis(branches).
		AddSeries("YoY delta", bars,
			echarts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// PVMBar plots the volume, price and mix effects next to the total.
func PVMBar(bundle yoy.CustomerBundle, pal Palette, assetsHost string) *echarts.Bar {
	p := bundle.PVM
	bars := []opts.BarData{
		signedBar(p.VolumeEffect, pal),
		signedBar(p.PriceEffect, pal),
		signedBar(p.MixEffect, pal),
		signedBar(p.TotalDelta, pal),
	}

	bar := echarts.NewBar()
	bar.SetGlobalOptions(globalOptions(pal, assetsHost, "Price / Volume / Mix", bundle.CustomerID)...)
	bar.SetXAxis([]string{"Volume", "Price", "Mix", "Total"}).
		AddSeries("effect", bars,
			echarts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func globalOptions(pal Palette, assetsHost, title, subtitle string) []echarts.GlobalOpts {
	return []echarts.GlobalOpts{
		echarts.WithInitializationOpts(opts.Initialization{
			PageTitle:       title,
			BackgroundColor: pal.Background,
			Width:           "100%",
			Height:          "420px",
			AssetsHost:      assetsHost,
		}),
		echarts.WithColorsOpts(opts.Colors(pal.Colors)),
		echarts.WithTitleOpts(opts.Title{
			Title:      title,
			Subtitle:   subtitle,
			Left:       "center",
			TitleStyle: &opts.TextStyle{Color: pal.Foreground},
		}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		echarts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Bottom:    "0",
			TextStyle: &opts.TextStyle{Color: pal.Foreground},
		}),
	}
}

func signedBar(v decimal.Decimal, pal Palette) opts.BarData {
	color := pal.positive()
	if v.IsNegative() {
		color = pal.negative()
	}
	return opts.BarData{Value: money(v), ItemStyle: &opts.ItemStyle{Color: color}}
}

func money(v decimal.Decimal) float64 {
	return v.Round(2).InexactFloat64()
}
