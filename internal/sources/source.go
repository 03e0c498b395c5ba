// Package sources supplies customer sales data to the analytics core, either
// from a deterministic synthetic generator or from the BigQuery warehouse.
package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/yoypulse/internal/yoy"
	"github.com/angelmondragon/yoypulse/pkg/config"
	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

// Mode names the backend that served a read.
type Mode string

const (
	ModeSynthetic Mode = "synthetic"
	ModeWarehouse Mode = "warehouse"
)

var (
	// ErrDataUnavailable is returned when the backend cannot be read.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrCustomerNotFound is returned when the backend has no rows for a customer.
	ErrCustomerNotFound = errors.New("customer not found")
)

// Source is a customer sales backend. Implementations never score or rank.
// Every read reports the backend that served it, which for a FallbackSource
// can differ from call to call; Mode is the configured primary backend.
type Source interface {
	Population(ctx context.Context, sampleSize int) ([]yoy.RawAggregate, Mode, error)
	BundleInputs(ctx context.Context, customerID string) (yoy.BundleInputs, Mode, error)
	Mode() Mode
}

// New picks the backend once at startup. A nil querier selects the synthetic
// source; otherwise the warehouse is used, optionally backed by synthetic data.
func New(cfg *config.Config, q Querier, logg *logger.Logger) Source {
	synthetic := NewSyntheticSource(ParamsFromConfig(cfg.Source))
	if q == nil {
		return synthetic
	}
	warehouse := NewQuerySource(q, cfg.BigQuery.SalesTable)
	if cfg.Source.Fallback {
		return NewFallbackSource(warehouse, synthetic, logg)
	}
	return warehouse
}

func unavailable(operation string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeUnavailable, fmt.Errorf("%s: %w: %w", operation, ErrDataUnavailable, err), "data source unavailable").
		WithDetails(map[string]any{"operation": operation})
}

func notFound(customerID string) error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrCustomerNotFound, "customer not found").
		WithDetails(map[string]any{"customer_id": customerID})
}
