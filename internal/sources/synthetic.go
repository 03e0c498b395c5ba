package sources

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/angelmondragon/yoypulse/internal/yoy"
	"github.com/angelmondragon/yoypulse/pkg/config"
	"gonum.org/v1/gonum/stat/distuv"
)

// SyntheticParams shapes the generated population.
type SyntheticParams struct {
	Seed          uint64
	PYMin         float64
	PYMax         float64
	PYFloor       float64
	MovementSigma float64
	MovementClamp float64
	CYFloor       float64
}

func DefaultSyntheticParams() SyntheticParams {
	return SyntheticParams{
		Seed:          42,
		PYMin:         10_000,
		PYMax:         250_000,
		PYFloor:       1_000,
		MovementSigma: 0.18,
		MovementClamp: 0.55,
		CYFloor:       500,
	}
}

// ParamsFromConfig applies the configured seed to the defaults.
func ParamsFromConfig(cfg config.SourceConfig) SyntheticParams {
	p := DefaultSyntheticParams()
	p.Seed = cfg.Seed
	return p
}

var branchNames = []string{"NORTH", "SOUTH", "EAST", "WEST", "CENTRAL", "NE", "NW", "SE", "SW"}

var subCommodities = []string{"FERT-01", "FERT-02", "SEED-11", "CHEM-21", "FEED-31", "TOOL-41"}

const cadenceWeeks = 13

// SyntheticSource generates a reproducible population: the same seed and
// size always yield the same rows, and a customer's bundle depends only on
// its id.
type SyntheticSource struct {
	params SyntheticParams
}

func NewSyntheticSource(params SyntheticParams) *SyntheticSource {
	return &SyntheticSource{params: params}
}

func (s *SyntheticSource) Mode() Mode { return ModeSynthetic }

func (s *SyntheticSource) Population(ctx context.Context, sampleSize int) ([]yoy.RawAggregate, Mode, error) {
	if err := ctx.Err(); err != nil {
		return nil, ModeSynthetic, err
	}
	if sampleSize < 0 {
		sampleSize = 0
	}

	src := rand.NewPCG(s.params.Seed, s.params.Seed)
	prior := distuv.Uniform{Min: s.params.PYMin, Max: s.params.PYMax, Src: src}
	movement := distuv.Normal{Mu: 0, Sigma: s.params.MovementSigma, Src: src}

	rows := make([]yoy.RawAggregate, 0, sampleSize)
	for i := 0; i < sampleSize; i++ {
		py := math.Max(s.params.PYFloor, prior.Rand())
		m := clamp(movement.Rand(), -s.params.MovementClamp, s.params.MovementClamp)
		cy := math.Max(s.params.CYFloor, py*(1+m))
		rows = append(rows, yoy.RawAggregate{
			CustomerID: CustomerID(i + 1),
			CYSales:    cy,
			PYSales:    py,
		})
	}
	return rows, ModeSynthetic, nil
}

// CustomerID formats the synthetic id for the n-th customer (1-based).
func CustomerID(n int) string {
	return fmt.Sprintf("CUST%04d", n)
}

// customerSeed is the sum of the id's code points.
func customerSeed(customerID string) uint64 {
	var seed uint64
	for _, r := range customerID {
		seed += uint64(r)
	}
	return seed
}

func (s *SyntheticSource) BundleInputs(ctx context.Context, customerID string) (yoy.BundleInputs, Mode, error) {
	if err := ctx.Err(); err != nil {
		return yoy.BundleInputs{}, ModeSynthetic, err
	}

	seed := customerSeed(customerID)
	rnd := rand.New(rand.NewPCG(seed, seed))
	uniform := func(lo, hi float64) float64 { return lo + rnd.Float64()*(hi-lo) }
	between := func(lo, hi int) int { return lo + rnd.IntN(hi-lo+1) }

	py := uniform(20_000, 200_000)
	cy := py * (1 + uniform(-0.35, 0.45))

	in := yoy.BundleInputs{
		CYSales: round2(cy),
		PYSales: round2(py),
		CYCOGS:  round2(cy * (1 - uniform(0.14, 0.24))),
		PYCOGS:  round2(py * (1 - uniform(0.14, 0.24))),
	}

	in.LineItems = syntheticLineItems(uniform, between(2, len(subCommodities)), in.CYSales, in.PYSales)
	for _, item := range in.LineItems {
		in.CYQtySold += item.CYQty
	}

	pyRet := between(5, 80)
	cyRet := max(0, pyRet+between(-15, 25))
	in.PYReturnQty = float64(pyRet)
	in.CYReturnQty = float64(cyRet)

	in.Branches = make([]yoy.BranchSales, 0, 6)
	for _, b := range branchNames[:between(3, 6)] {
		bPY := uniform(2_000, 40_000)
		bCY := bPY * (1 + uniform(-0.45, 0.55))
		in.Branches = append(in.Branches, yoy.BranchSales{Branch: b, CYSales: math.Trunc(bCY), PYSales: math.Trunc(bPY)})
	}

	in.Weeks = make([]yoy.WeekSales, 0, cadenceWeeks)
	base := cy / cadenceWeeks
	for wk := 1; wk <= cadenceWeeks; wk++ {
		factor := 1 + 0.25*math.Sin(float64(wk)/2.8)
		noise := uniform(0.85, 1.15)
		in.Weeks = append(in.Weeks, yoy.WeekSales{Week: fmt.Sprintf("W%02d", wk), CYSales: math.Trunc(base * factor * noise)})
	}
	return in, ModeSynthetic, nil
}

// syntheticLineItems splits the yearly totals across n product lines, each
// with its own unit price and a small year-on-year price move.
func syntheticLineItems(uniform func(lo, hi float64) float64, n int, cy, py float64) []yoy.LineItem {
	cyWeights := make([]float64, n)
	pyWeights := make([]float64, n)
	var cyTotal, pyTotal float64
	for i := range n {
		cyWeights[i] = uniform(0.5, 1.5)
		pyWeights[i] = uniform(0.5, 1.5)
		cyTotal += cyWeights[i]
		pyTotal += pyWeights[i]
	}

	items := make([]yoy.LineItem, 0, n)
	for i := range n {
		pyPrice := uniform(20, 80)
		cyPrice := pyPrice * (1 + uniform(-0.1, 0.15))
		lineCY := round2(cy * cyWeights[i] / cyTotal)
		linePY := round2(py * pyWeights[i] / pyTotal)
		items = append(items, yoy.LineItem{
			Key:     subCommodities[i],
			CYSales: lineCY,
			PYSales: linePY,
			CYQty:   math.Max(1, math.Round(lineCY/cyPrice)),
			PYQty:   math.Max(1, math.Round(linePY/pyPrice)),
		})
	}
	return items
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
