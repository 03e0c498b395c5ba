package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/yoypulse/internal/yoy"
	"github.com/angelmondragon/yoypulse/pkg/config"
	"github.com/angelmondragon/yoypulse/pkg/logger"
	"github.com/rs/zerolog"
)

type stubSource struct {
	mode   Mode
	rows   []yoy.RawAggregate
	bundle yoy.BundleInputs
	err    error
	calls  atomic.Int32
}

func (s *stubSource) Mode() Mode { return s.mode }

func (s *stubSource) Population(ctx context.Context, sampleSize int) ([]yoy.RawAggregate, Mode, error) {
	s.calls.Add(1)
	return s.rows, s.mode, s.err
}

func (s *stubSource) BundleInputs(ctx context.Context, customerID string) (yoy.BundleInputs, Mode, error) {
	s.calls.Add(1)
	return s.bundle, s.mode, s.err
}

func TestFallbackServesSecondaryWhenPrimaryUnavailable(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: &buf})

	primary := &stubSource{mode: ModeWarehouse, err: unavailable("population", errors.New("timeout"))}
	secondary := &stubSource{mode: ModeSynthetic, rows: []yoy.RawAggregate{{CustomerID: "CUST0001", CYSales: 1, PYSales: 1}}}
	src := NewFallbackSource(primary, secondary, logg)

	rows, mode, err := src.Population(context.Background(), 5)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if len(rows) != 1 || secondary.calls.Load() != 1 || mode != ModeSynthetic {
		t.Fatalf("expected secondary rows, got %+v mode=%s", rows, mode)
	}
	if src.Mode() != ModeWarehouse {
		t.Fatalf("configured mode should stay primary, got %s", src.Mode())
	}
	if !strings.Contains(buf.String(), "serving fallback data") {
		t.Fatalf("expected warning log, got %q", buf.String())
	}

	primary.err = nil
	primary.rows = []yoy.RawAggregate{}
	if _, mode, err = src.Population(context.Background(), 5); err != nil || mode != ModeWarehouse {
		t.Fatalf("expected warehouse once primary recovers, got mode=%s err=%v", mode, err)
	}
}

func TestFallbackPassesThroughNotFound(t *testing.T) {
	primary := &stubSource{mode: ModeWarehouse, err: notFound("X")}
	secondary := &stubSource{mode: ModeSynthetic}
	src := NewFallbackSource(primary, secondary, nil)

	_, mode, err := src.BundleInputs(context.Background(), "X")
	if !errors.Is(err, ErrCustomerNotFound) || mode != ModeWarehouse {
		t.Fatalf("expected ErrCustomerNotFound from warehouse, got mode=%s err=%v", mode, err)
	}
	if secondary.calls.Load() != 0 {
		t.Fatal("secondary must not serve a missing customer")
	}
}

func TestFallbackBundleInputs(t *testing.T) {
	primary := &stubSource{mode: ModeWarehouse, err: unavailable("totals", errors.New("down"))}
	secondary := &stubSource{mode: ModeSynthetic, bundle: yoy.BundleInputs{CYSales: 42}}
	in, mode, err := NewFallbackSource(primary, secondary, nil).BundleInputs(context.Background(), "CUST0001")
	if err != nil || in.CYSales != 42 || mode != ModeSynthetic {
		t.Fatalf("expected secondary bundle, got %+v mode=%s err=%v", in, mode, err)
	}
}

// Population falls back while bundle reads keep hitting the primary; each
// read must report its own backend no matter how the two interleave.
func TestFallbackModeIsPerRead(t *testing.T) {
	primary := popDownSource{}
	src := NewFallbackSource(primary, NewSyntheticSource(DefaultSyntheticParams()), nil)

	var wg sync.WaitGroup
	errs := make(chan string, 400)
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if _, mode, err := src.Population(context.Background(), 3); err != nil || mode != ModeSynthetic {
					errs <- fmt.Sprintf("population mode=%s err=%v", mode, err)
				}
				if _, mode, err := src.BundleInputs(context.Background(), "CUST0001"); err != nil || mode != ModeWarehouse {
					errs <- fmt.Sprintf("bundle mode=%s err=%v", mode, err)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatal(msg)
	}
}

type popDownSource struct{}

func (popDownSource) Mode() Mode { return ModeWarehouse }

func (popDownSource) Population(context.Context, int) ([]yoy.RawAggregate, Mode, error) {
	return nil, ModeWarehouse, unavailable("population", errors.New("timeout"))
}

func (popDownSource) BundleInputs(context.Context, string) (yoy.BundleInputs, Mode, error) {
	return yoy.BundleInputs{CYSales: 1}, ModeWarehouse, nil
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{SampleSize: 10, Seed: 42}}
	cfg.BigQuery.SalesTable = "customer_weekly_sales"

	if _, ok := New(cfg, nil, nil).(*SyntheticSource); !ok {
		t.Fatal("expected synthetic source without a querier")
	}
	if _, ok := New(cfg, &fakeQuerier{}, nil).(*QuerySource); !ok {
		t.Fatal("expected query source with a querier")
	}
	cfg.Source.Fallback = true
	if _, ok := New(cfg, &fakeQuerier{}, nil).(*FallbackSource); !ok {
		t.Fatal("expected fallback source when enabled")
	}
}
