package sources

import (
	"context"
	"errors"

	"github.com/angelmondragon/yoypulse/internal/yoy"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

// FallbackSource serves from primary and switches to secondary for a read
// when primary reports ErrDataUnavailable. A missing customer is an answer,
// not an outage, and is returned as is. Each read reports its own serving
// backend, so concurrent reads never relabel one another.
type FallbackSource struct {
	primary   Source
	secondary Source
	logg      *logger.Logger
}

func NewFallbackSource(primary, secondary Source, logg *logger.Logger) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary, logg: logg}
}

// Mode is the primary backend's mode.
func (s *FallbackSource) Mode() Mode {
	return s.primary.Mode()
}

func (s *FallbackSource) Population(ctx context.Context, sampleSize int) ([]yoy.RawAggregate, Mode, error) {
	rows, mode, err := s.primary.Population(ctx, sampleSize)
	if !errors.Is(err, ErrDataUnavailable) {
		return rows, mode, err
	}
	s.warn(ctx, "population", err)
	return s.secondary.Population(ctx, sampleSize)
}

func (s *FallbackSource) BundleInputs(ctx context.Context, customerID string) (yoy.BundleInputs, Mode, error) {
	in, mode, err := s.primary.BundleInputs(ctx, customerID)
	if !errors.Is(err, ErrDataUnavailable) {
		return in, mode, err
	}
	s.warn(ctx, "bundle_inputs", err)
	return s.secondary.BundleInputs(ctx, customerID)
}

func (s *FallbackSource) warn(ctx context.Context, operation string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"operation": operation,
		"primary":   string(s.primary.Mode()),
		"secondary": string(s.secondary.Mode()),
		"error":     err.Error(),
	})
	s.logg.Warn(ctx, "primary source unavailable, serving fallback data")
}
