package yoy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"github.com/shopspring/decimal"
)

// LineItem is one product line (sub-commodity) for a customer in both years.
type LineItem struct {
	Key     string  `json:"key"`
	CYSales float64 `json:"cy_sales"`
	PYSales float64 `json:"py_sales"`
	CYQty   float64 `json:"cy_qty"`
	PYQty   float64 `json:"py_qty"`
}

// BranchSales is one branch's sales for a customer in both years.
type BranchSales struct {
	Branch  string  `json:"branch"`
	CYSales float64 `json:"cy_sales"`
	PYSales float64 `json:"py_sales"`
}

// WeekSales is one week of current-year sales.
type WeekSales struct {
	Week    string  `json:"week"`
	CYSales float64 `json:"cy_sales"`
}

// BundleInputs is everything a data source supplies for a One-Pager.
type BundleInputs struct {
	CYSales     float64       `json:"cy_sales"`
	PYSales     float64       `json:"py_sales"`
	CYCOGS      float64       `json:"cy_cogs"`
	PYCOGS      float64       `json:"py_cogs"`
	CYQtySold   float64       `json:"cy_qty_sold"`
	CYReturnQty float64       `json:"cy_return_qty"`
	PYReturnQty float64       `json:"py_return_qty"`
	LineItems   []LineItem    `json:"line_items"`
	Branches    []BranchSales `json:"branches"`
	Weeks       []WeekSales   `json:"weeks"`
}

type Headline struct {
	CYSales       decimal.Decimal `json:"cy_sales"`
	PYSales       decimal.Decimal `json:"py_sales"`
	YoYDelta      decimal.Decimal `json:"yoy_delta"`
	YoYPct        decimal.Decimal `json:"yoy_pct"`
	CYGrossMargin decimal.Decimal `json:"cy_gross_margin"`
	PYGrossMargin decimal.Decimal `json:"py_gross_margin"`
}

// PVM splits the total change into price, volume and mix effects.
// VolumeEffect + PriceEffect + MixEffect == TotalDelta exactly.
type PVM struct {
	TotalDelta   decimal.Decimal `json:"total_delta"`
	VolumeEffect decimal.Decimal `json:"volume_effect"`
	PriceEffect  decimal.Decimal `json:"price_effect"`
	MixEffect    decimal.Decimal `json:"mix_effect"`
}

// Returns values the change in returned units at the current-year average
// unit price. It is a proxy, not an exact return value.
type Returns struct {
	CYReturnQty       decimal.Decimal `json:"cy_return_qty"`
	PYReturnQty       decimal.Decimal `json:"py_return_qty"`
	CYUnitPrice       decimal.Decimal `json:"cy_unit_price"`
	ReturnsValueDelta decimal.Decimal `json:"returns_value_delta"`
}

type BranchDelta struct {
	Branch   string          `json:"branch"`
	CYSales  decimal.Decimal `json:"cy_sales"`
	PYSales  decimal.Decimal `json:"py_sales"`
	YoYDelta decimal.Decimal `json:"yoy_delta"`
}

// GeoSummary locates where the customer's business moved between branches.
type GeoSummary struct {
	Best         *BranchDelta    `json:"best,omitempty"`
	Worst        *BranchDelta    `json:"worst,omitempty"`
	PositiveFlow decimal.Decimal `json:"positive_flow"`
	NegativeFlow decimal.Decimal `json:"negative_flow"`
}

type CadencePoint struct {
	Week    string          `json:"week"`
	CYSales decimal.Decimal `json:"cy_sales"`
}

// CustomerBundle is the One-Pager for a single customer.
type CustomerBundle struct {
	CustomerID string         `json:"customer_id"`
	Headline   Headline       `json:"headline"`
	PVM        PVM            `json:"pvm"`
	Returns    Returns        `json:"returns"`
	Geo        []BranchDelta  `json:"geo"`
	GeoSummary GeoSummary     `json:"geo_summary"`
	Cadence    []CadencePoint `json:"cadence"`
}

type decomposeOptions struct {
	rankGeo bool
}

// DecomposeOption tunes Decompose.
type DecomposeOption func(*decomposeOptions)

// WithRankedGeo orders Geo by ascending delta, worst branch first.
func WithRankedGeo() DecomposeOption {
	return func(o *decomposeOptions) { o.rankGeo = true }
}

var hundred = decimal.NewFromInt(100)

// ErrInvalidBundle marks bundle inputs carrying a NaN or infinite figure.
var ErrInvalidBundle = errors.New("invalid bundle inputs")

var lineItemFields = [...]string{"cy_sales", "py_sales", "cy_qty", "py_qty"}

// ValidateBundle reports the first non-finite figure in in, naming its
// field as it appears in JSON, e.g. "line_items[2].cy_qty".
func ValidateBundle(in BundleInputs) error {
	check := func(field string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidBundle, field+" must be finite").
				WithDetails(map[string]any{"field": field})
		}
		return nil
	}
	totals := []struct {
		field string
		v     float64
	}{
		{"cy_sales", in.CYSales},
		{"py_sales", in.PYSales},
		{"cy_cogs", in.CYCOGS},
		{"py_cogs", in.PYCOGS},
		{"cy_qty_sold", in.CYQtySold},
		{"cy_return_qty", in.CYReturnQty},
		{"py_return_qty", in.PYReturnQty},
	}
	for _, f := range totals {
		if err := check(f.field, f.v); err != nil {
			return err
		}
	}
	for i, item := range in.LineItems {
		for j, v := range []float64{item.CYSales, item.PYSales, item.CYQty, item.PYQty} {
			if err := check(fmt.Sprintf("line_items[%d].%s", i, lineItemFields[j]), v); err != nil {
				return err
			}
		}
	}
	for i, b := range in.Branches {
		if err := check(fmt.Sprintf("branches[%d].cy_sales", i), b.CYSales); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("branches[%d].py_sales", i), b.PYSales); err != nil {
			return err
		}
	}
	for i, w := range in.Weeks {
		if err := check(fmt.Sprintf("weeks[%d].cy_sales", i), w.CYSales); err != nil {
			return err
		}
	}
	return nil
}

// amount converts a source figure, reading NaN and infinities as zero.
func amount(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// Decompose builds the One-Pager. Missing sections come back as empty
// collections or zero values and never as an error. Non-finite figures count
// as zero; sources reject them earlier with ValidateBundle.
func Decompose(customerID string, in BundleInputs, opts ...DecomposeOption) CustomerBundle {
	var o decomposeOptions
	for _, opt := range opts {
		opt(&o)
	}

	geo := geoDeltas(in.Branches)
	summary := summarizeGeo(geo)
	if o.rankGeo {
		sort.SliceStable(geo, func(i, j int) bool {
			return geo[i].YoYDelta.LessThan(geo[j].YoYDelta)
		})
	}

	return CustomerBundle{
		CustomerID: customerID,
		Headline:   headline(in),
		PVM:        pvm(in.LineItems),
		Returns:    returns(in),
		Geo:        geo,
		GeoSummary: summary,
		Cadence:    cadence(in.Weeks),
	}
}

func headline(in BundleInputs) Headline {
	cy := amount(in.CYSales)
	py := amount(in.PYSales)
	delta := cy.Sub(py)
	return Headline{
		CYSales:       cy,
		PYSales:       py,
		YoYDelta:      delta,
		YoYPct:        percent(delta, py),
		CYGrossMargin: cy.Sub(amount(in.CYCOGS)),
		PYGrossMargin: py.Sub(amount(in.PYCOGS)),
	}
}

func percent(delta, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return delta.Mul(hundred).Div(base)
}

// unitPrice is sales/qty, or zero when qty is zero.
func unitPrice(sales, qty decimal.Decimal) decimal.Decimal {
	if qty.IsZero() {
		return decimal.Zero
	}
	return sales.Div(qty)
}

func pvm(items []LineItem) PVM {
	total, volume, price := decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range items {
		cySales := amount(item.CYSales)
		pySales := amount(item.PYSales)
		cyQty := amount(item.CYQty)
		pyQty := amount(item.PYQty)

		cyPrice := unitPrice(cySales, cyQty)
		pyPrice := unitPrice(pySales, pyQty)

		total = total.Add(cySales.Sub(pySales))
		volume = volume.Add(cyQty.Sub(pyQty).Mul(pyPrice))
		price = price.Add(cyPrice.Sub(pyPrice).Mul(cyQty))
	}
	return PVM{
		TotalDelta:   total,
		VolumeEffect: volume,
		PriceEffect:  price,
		MixEffect:    total.Sub(volume).Sub(price),
	}
}

func returns(in BundleInputs) Returns {
	cyRet := amount(in.CYReturnQty)
	pyRet := amount(in.PYReturnQty)
	price := unitPrice(amount(in.CYSales), amount(in.CYQtySold))
	return Returns{
		CYReturnQty:       cyRet,
		PYReturnQty:       pyRet,
		CYUnitPrice:       price,
		ReturnsValueDelta: cyRet.Sub(pyRet).Mul(price),
	}
}

func geoDeltas(branches []BranchSales) []BranchDelta {
	out := make([]BranchDelta, 0, len(branches))
	for _, b := range branches {
		cy := amount(b.CYSales)
		py := amount(b.PYSales)
		out = append(out, BranchDelta{
			Branch:   b.Branch,
			CYSales:  cy,
			PYSales:  py,
			YoYDelta: cy.Sub(py),
		})
	}
	return out
}

// summarizeGeo picks the first branch among equals for Best and Worst.
func summarizeGeo(geo []BranchDelta) GeoSummary {
	s := GeoSummary{PositiveFlow: decimal.Zero, NegativeFlow: decimal.Zero}
	for i := range geo {
		d := geo[i].YoYDelta
		if d.IsPositive() {
			s.PositiveFlow = s.PositiveFlow.Add(d)
		} else if d.IsNegative() {
			s.NegativeFlow = s.NegativeFlow.Add(d)
		}
		if s.Best == nil || d.GreaterThan(s.Best.YoYDelta) {
			best := geo[i]
			s.Best = &best
		}
		if s.Worst == nil || d.LessThan(s.Worst.YoYDelta) {
			worst := geo[i]
			s.Worst = &worst
		}
	}
	return s
}

func cadence(weeks []WeekSales) []CadencePoint {
	out := make([]CadencePoint, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, CadencePoint{Week: w.Week, CYSales: amount(w.CYSales)})
	}
	return out
}
