package pulse

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/yoypulse/internal/narrative"
	"github.com/angelmondragon/yoypulse/internal/sources"
	"github.com/angelmondragon/yoypulse/internal/yoy"
	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"github.com/angelmondragon/yoypulse/pkg/logger"
	"github.com/angelmondragon/yoypulse/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mode       sources.Mode
	rows       []yoy.RawAggregate
	bundle     yoy.BundleInputs
	err        error
	sampleSeen int
	idSeen     string
}

func (f *fakeSource) Mode() sources.Mode { return f.mode }

func (f *fakeSource) Population(ctx context.Context, sampleSize int) ([]yoy.RawAggregate, sources.Mode, error) {
	f.sampleSeen = sampleSize
	return f.rows, f.mode, f.err
}

func (f *fakeSource) BundleInputs(ctx context.Context, customerID string) (yoy.BundleInputs, sources.Mode, error) {
	f.idSeen = customerID
	return f.bundle, f.mode, f.err
}

// splitWarehouse answers bundle reads but has lost its population query.
type splitWarehouse struct{}

func (splitWarehouse) Mode() sources.Mode { return sources.ModeWarehouse }

func (splitWarehouse) Population(context.Context, int) ([]yoy.RawAggregate, sources.Mode, error) {
	return nil, sources.ModeWarehouse, fmt.Errorf("population: %w", sources.ErrDataUnavailable)
}

func (splitWarehouse) BundleInputs(context.Context, string) (yoy.BundleInputs, sources.Mode, error) {
	return yoy.BundleInputs{CYSales: 10, PYSales: 5}, sources.ModeWarehouse, nil
}

type fakeNarrator struct {
	text    string
	err     error
	summary narrative.Summary
}

func (f *fakeNarrator) Recommend(ctx context.Context, s narrative.Summary) (string, error) {
	f.summary = s
	return f.text, f.err
}

func newTestService(t *testing.T, src sources.Source, narr Narrator, m *metrics.PulseMetrics) Service {
	t.Helper()
	params := ServiceParams{
		Source:     src,
		Metrics:    m,
		Logger:     logger.Nop(),
		SampleSize: 100,
		Now:        func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
	if narr != nil {
		params.Narrator = narr
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func threeCustomers() []yoy.RawAggregate {
	return []yoy.RawAggregate{
		{CustomerID: "A", CYSales: 80000, PYSales: 100000},
		{CustomerID: "B", CYSales: 150000, PYSales: 100000},
		{CustomerID: "C", CYSales: 100000, PYSales: 100000},
	}
}

func TestNewServiceRequiresSourceAndLogger(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.Nop()})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Source: &fakeSource{}})
	require.Error(t, err)
}

func TestRankings(t *testing.T) {
	src := &fakeSource{mode: sources.ModeSynthetic, rows: threeCustomers()}
	svc := newTestService(t, src, nil, nil)

	res, err := svc.Rankings(context.Background(), yoy.Decliners, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, src.sampleSeen, "default sample size")
	assert.Equal(t, yoy.Decliners, res.Direction)
	assert.Equal(t, sources.ModeSynthetic, res.Mode)
	assert.Equal(t, 3, res.Total)
	assert.Zero(t, res.Excluded)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "A", res.Rows[0].CustomerID)

	res, err = svc.Rankings(context.Background(), yoy.Growers, 50, 250)
	require.NoError(t, err)
	assert.Equal(t, 250, src.sampleSeen)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "B", res.Rows[0].CustomerID)
}

func TestRankingsExcludesInvalidRows(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPulseMetrics(reg)
	rows := append(threeCustomers(),
		yoy.RawAggregate{CustomerID: "BAD1", CYSales: -5, PYSales: 10},
		yoy.RawAggregate{CustomerID: "BAD2", CYSales: math.NaN(), PYSales: 10},
	)
	svc := newTestService(t, &fakeSource{mode: sources.ModeWarehouse, rows: rows}, nil, m)

	res, err := svc.Rankings(context.Background(), yoy.Decliners, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Excluded)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Rows, 1)

	count, err := testutil.GatherAndCount(reg, "yoypulse_excluded_rows_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRankingsPropagatesSourceErrors(t *testing.T) {
	srcErr := pkgerrors.Wrap(pkgerrors.CodeUnavailable, sources.ErrDataUnavailable, "data source unavailable")
	svc := newTestService(t, &fakeSource{mode: sources.ModeWarehouse, err: srcErr}, nil, nil)

	_, err := svc.Rankings(context.Background(), yoy.Growers, 10, 0)
	require.ErrorIs(t, err, sources.ErrDataUnavailable)
}

func TestSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPulseMetrics(reg)
	svc := newTestService(t, &fakeSource{mode: sources.ModeSynthetic, rows: threeCustomers()}, nil, m)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), snap.TakenAt)
	assert.Equal(t, 50000.0, snap.Momentum.GrowersTotal)
	assert.Equal(t, -20000.0, snap.Momentum.DeclinersTotal)
	assert.Equal(t, 30000.0, snap.Momentum.Net)
	assert.Equal(t, 3, snap.Momentum.Total)
}

func TestOnePager(t *testing.T) {
	src := &fakeSource{mode: sources.ModeSynthetic, bundle: yoy.BundleInputs{
		CYSales: 12000,
		PYSales: 10000,
		Branches: []yoy.BranchSales{
			{Branch: "NORTH", CYSales: 100, PYSales: 50},
			{Branch: "SOUTH", CYSales: 10, PYSales: 50},
		},
	}}
	svc := newTestService(t, src, nil, nil)

	bundle, err := svc.OnePager(context.Background(), "  CUST0001 ", true)
	require.NoError(t, err)
	assert.Equal(t, "CUST0001", src.idSeen)
	assert.Equal(t, "CUST0001", bundle.CustomerID)
	require.Len(t, bundle.Geo, 2)
	assert.Equal(t, "SOUTH", bundle.Geo[0].Branch, "ranked geo puts the worst branch first")

	_, err = svc.OnePager(context.Background(), " ", false)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestOnePagerNotFound(t *testing.T) {
	notFound := pkgerrors.Wrap(pkgerrors.CodeNotFound, sources.ErrCustomerNotFound, "customer not found")
	svc := newTestService(t, &fakeSource{mode: sources.ModeWarehouse, err: notFound}, nil, nil)
	_, err := svc.OnePager(context.Background(), "NOPE", false)
	require.ErrorIs(t, err, sources.ErrCustomerNotFound)
}

func TestNarrative(t *testing.T) {
	narr := &fakeNarrator{text: "1. Call the buyer\n2. Review pricing\n3. Offer a rebate"}
	src := &fakeSource{mode: sources.ModeSynthetic, bundle: yoy.BundleInputs{CYSales: 80000, PYSales: 100000}}
	svc := newTestService(t, src, narr, nil)

	res, err := svc.Narrative(context.Background(), "CUST0007")
	require.NoError(t, err)
	assert.Equal(t, "CUST0007", res.CustomerID)
	assert.Equal(t, []string{"Call the buyer", "Review pricing", "Offer a rebate"}, res.Recommendations)
	assert.Equal(t, -20000.0, narr.summary.YoYDelta)
	assert.Equal(t, -20.0, narr.summary.YoYPct)
}

func TestNarrativeUnavailable(t *testing.T) {
	src := &fakeSource{mode: sources.ModeSynthetic}

	svc := newTestService(t, src, nil, nil)
	_, err := svc.Narrative(context.Background(), "CUST0001")
	require.ErrorIs(t, err, narrative.ErrUnavailable)

	failing := &fakeNarrator{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(narrative.ErrUnavailable, errors.New("timeout")), "chat request failed")}
	svc = newTestService(t, src, failing, nil)
	_, err = svc.Narrative(context.Background(), "CUST0001")
	require.ErrorIs(t, err, narrative.ErrUnavailable)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestRankingPairScoresOnce(t *testing.T) {
	src := &fakeSource{mode: sources.ModeWarehouse, rows: threeCustomers()}
	svc := newTestService(t, src, nil, nil)

	pair, err := svc.RankingPair(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, sources.ModeWarehouse, pair.Mode)
	require.Len(t, pair.Decliners.Rows, 1)
	require.Len(t, pair.Growers.Rows, 1)
	assert.Equal(t, "A", pair.Decliners.Rows[0].CustomerID)
	assert.Equal(t, "B", pair.Growers.Rows[0].CustomerID)
	assert.Equal(t, yoy.Decliners, pair.Decliners.Direction)
	assert.Equal(t, 3, pair.Growers.Total)
}

func TestRankingModeFollowsServingBackendUnderConcurrency(t *testing.T) {
	src := sources.NewFallbackSource(splitWarehouse{}, sources.NewSyntheticSource(sources.DefaultSyntheticParams()), nil)
	svc := newTestService(t, src, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			_, _ = svc.OnePager(ctx, "CUST0001", false)
		}
	}()

	for i := 0; i < 200; i++ {
		res, err := svc.Rankings(context.Background(), yoy.Growers, 5, 20)
		if err != nil {
			cancel()
			wg.Wait()
			t.Fatalf("rankings: %v", err)
		}
		if res.Mode != sources.ModeSynthetic {
			cancel()
			wg.Wait()
			t.Fatalf("iteration %d: synthetic rows labelled %q", i, res.Mode)
		}
	}
	cancel()
	wg.Wait()

	bundle, err := svc.OnePager(context.Background(), "CUST0001", false)
	require.NoError(t, err)
	assert.Equal(t, "10", bundle.Headline.CYSales.String())
}
