package yoy

import (
	"errors"
	"math"

	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"go.uber.org/multierr"
)

// Priority weights. They sum to 1 so every score lands in [0, 1].
const (
	WeightAbs       = 0.5
	WeightPct       = 0.3
	WeightStrategic = 0.2
)

// ErrInvalidAggregate marks a row with negative or non-finite sales.
var ErrInvalidAggregate = errors.New("invalid aggregate")

// Validate rejects rows with negative, NaN or infinite sales.
func Validate(row RawAggregate) error {
	if validSales(row.CYSales) && validSales(row.PYSales) {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidAggregate, "sales must be finite and non-negative").
		WithDetails(map[string]any{
			"customer_id": row.CustomerID,
			"cy_sales":    row.CYSales,
			"py_sales":    row.PYSales,
		})
}

func validSales(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Partition splits pop into valid rows and a combined error for the rejects.
// The returned error is nil when every row is valid.
func Partition(pop []RawAggregate) ([]RawAggregate, error) {
	valid := make([]RawAggregate, 0, len(pop))
	var errs error
	for _, row := range pop {
		if err := Validate(row); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		valid = append(valid, row)
	}
	return valid, errs
}

// Delta returns cy-py and the percentage change, which is 0 when py is 0.
func Delta(cy, py float64) (delta, pct float64) {
	delta = cy - py
	if py > 0 {
		pct = 100 * delta / py
	}
	return delta, pct
}

// Score computes YoY measures and a composite priority for every row.
// Any invalid row fails the whole call with ErrInvalidAggregate; use
// Partition first to skip bad rows instead.
func Score(pop []RawAggregate) ([]ScoredRow, error) {
	rows := make([]ScoredRow, 0, len(pop))
	for _, agg := range pop {
		if err := Validate(agg); err != nil {
			return nil, err
		}
		delta, pct := Delta(agg.CYSales, agg.PYSales)
		rows = append(rows, ScoredRow{
			CustomerID: agg.CustomerID,
			CYSales:    agg.CYSales,
			PYSales:    agg.PYSales,
			YoYDelta:   delta,
			YoYPct:     pct,
		})
	}

	maxPY, maxAbsDelta, maxAbsPct := normalizers(rows)
	for i := range rows {
		strategic := rows[i].PYSales / maxPY
		absDrop := math.Abs(rows[i].YoYDelta) / maxAbsDelta
		pctDrop := math.Abs(rows[i].YoYPct) / maxAbsPct
		rows[i].PriorityScore = clamp01(WeightAbs*absDrop + WeightPct*pctDrop + WeightStrategic*strategic)
	}
	return rows, nil
}

// normalizers returns the population maxima, each replaced by 1 when zero.
func normalizers(rows []ScoredRow) (maxPY, maxAbsDelta, maxAbsPct float64) {
	for _, r := range rows {
		maxPY = math.Max(maxPY, r.PYSales)
		maxAbsDelta = math.Max(maxAbsDelta, math.Abs(r.YoYDelta))
		maxAbsPct = math.Max(maxAbsPct, math.Abs(r.YoYPct))
	}
	return orOne(maxPY), orOne(maxAbsDelta), orOne(maxAbsPct)
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
