package sources

import (
	"context"
	"reflect"
	"testing"

	"github.com/angelmondragon/yoypulse/internal/yoy"
)

func TestSyntheticPopulationIsDeterministic(t *testing.T) {
	src := NewSyntheticSource(DefaultSyntheticParams())
	first, _, err := src.Population(context.Background(), 500)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	second, _, err := NewSyntheticSource(DefaultSyntheticParams()).Population(context.Background(), 500)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same seed produced different populations")
	}
	if len(first) != 500 {
		t.Fatalf("expected 500 rows, got %d", len(first))
	}
	if first[0].CustomerID != "CUST0001" || first[499].CustomerID != "CUST0500" {
		t.Fatalf("unexpected ids %s..%s", first[0].CustomerID, first[499].CustomerID)
	}

	other := DefaultSyntheticParams()
	other.Seed = 7
	third, _, err := NewSyntheticSource(other).Population(context.Background(), 500)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if reflect.DeepEqual(first, third) {
		t.Fatal("different seeds produced identical populations")
	}
}

func TestSyntheticPopulationBounds(t *testing.T) {
	p := DefaultSyntheticParams()
	rows, _, err := NewSyntheticSource(p).Population(context.Background(), 2000)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	var growers, decliners int
	for _, r := range rows {
		if r.PYSales < p.PYFloor || r.PYSales > p.PYMax {
			t.Fatalf("py out of range: %+v", r)
		}
		if r.CYSales < p.CYFloor {
			t.Fatalf("cy below floor: %+v", r)
		}
		ratio := r.CYSales / r.PYSales
		if ratio > 1+p.MovementClamp+1e-9 || ratio < 1-p.MovementClamp-1e-9 {
			t.Fatalf("movement outside clamp: %+v", r)
		}
		if err := yoy.Validate(r); err != nil {
			t.Fatalf("generated invalid row: %v", err)
		}
		switch {
		case r.CYSales > r.PYSales:
			growers++
		case r.CYSales < r.PYSales:
			decliners++
		}
	}
	if growers == 0 || decliners == 0 {
		t.Fatalf("expected both sides of zero, got %d growers %d decliners", growers, decliners)
	}
}

func TestSyntheticPopulationEdgeSizes(t *testing.T) {
	src := NewSyntheticSource(DefaultSyntheticParams())
	rows, _, err := src.Population(context.Background(), 0)
	if err != nil || rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty rows, got %#v err=%v", rows, err)
	}
	if _, _, err := src.Population(context.Background(), -3); err != nil {
		t.Fatalf("negative sample size: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := src.Population(ctx, 10); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestSyntheticBundleIsStablePerCustomer(t *testing.T) {
	src := NewSyntheticSource(DefaultSyntheticParams())
	first, _, err := src.BundleInputs(context.Background(), "CUST0042")
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	second, _, err := src.BundleInputs(context.Background(), "CUST0042")
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("bundle differs between calls")
	}

	if n := len(first.Branches); n < 3 || n > 6 {
		t.Fatalf("expected 3-6 branches, got %d", n)
	}
	if first.Branches[0].Branch != "NORTH" {
		t.Fatalf("branches should start at NORTH, got %s", first.Branches[0].Branch)
	}
	if len(first.Weeks) != cadenceWeeks || first.Weeks[0].Week != "W01" || first.Weeks[12].Week != "W13" {
		t.Fatalf("unexpected cadence %+v", first.Weeks)
	}
	if len(first.LineItems) < 2 {
		t.Fatalf("expected at least 2 line items, got %d", len(first.LineItems))
	}
	if first.PYReturnQty < 5 || first.PYReturnQty > 80 || first.CYReturnQty < 0 {
		t.Fatalf("unexpected returns %v/%v", first.CYReturnQty, first.PYReturnQty)
	}
	if first.CYQtySold <= 0 {
		t.Fatalf("expected positive quantity sold")
	}
}

func TestCustomerSeedIsCodePointSum(t *testing.T) {
	if got := customerSeed("AB"); got != 65+66 {
		t.Fatalf("expected 131, got %d", got)
	}
	// anagrams share a seed and therefore a bundle
	src := NewSyntheticSource(DefaultSyntheticParams())
	a, _, _ := src.BundleInputs(context.Background(), "CUST0012")
	b, _, _ := src.BundleInputs(context.Background(), "CUST0021")
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical bundles for ids with the same code point sum")
	}
}
