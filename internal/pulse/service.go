package pulse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/yoypulse/internal/narrative"
	"github.com/angelmondragon/yoypulse/internal/sources"
	"github.com/angelmondragon/yoypulse/internal/yoy"
	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"github.com/angelmondragon/yoypulse/pkg/logger"
	"github.com/angelmondragon/yoypulse/pkg/metrics"
	"go.uber.org/multierr"
)

const defaultSampleSize = 500

// Service composes a data source with the scoring, ranking and
// decomposition core.
type Service interface {
	Rankings(ctx context.Context, dir yoy.Direction, limit, sampleSize int) (*RankingResult, error)
	RankingPair(ctx context.Context, limit, sampleSize int) (*RankingPair, error)
	Snapshot(ctx context.Context) (*Snapshot, error)
	OnePager(ctx context.Context, customerID string, rankGeo bool) (*yoy.CustomerBundle, error)
	Narrative(ctx context.Context, customerID string) (*NarrativeResult, error)
	Mode() sources.Mode
}

// Narrator produces recommendation text for a headline summary.
type Narrator interface {
	Recommend(ctx context.Context, s narrative.Summary) (string, error)
}

// RankingResult is one ranked side of the population. Excluded counts rows
// rejected as invalid aggregates; Total counts the rows that were scored.
type RankingResult struct {
	Direction yoy.Direction   `json:"direction"`
	Mode      sources.Mode    `json:"mode"`
	Rows      []yoy.ScoredRow `json:"rows"`
	Excluded  int             `json:"excluded"`
	Total     int             `json:"total"`
}

// RankingPair ranks both directions off one scored population, so a customer
// can sit on at most one side.
type RankingPair struct {
	Mode      sources.Mode  `json:"mode"`
	Decliners RankingResult `json:"decliners"`
	Growers   RankingResult `json:"growers"`
}

// Snapshot is a point-in-time momentum reading for the live dashboard.
type Snapshot struct {
	TakenAt  time.Time    `json:"taken_at"`
	Mode     sources.Mode `json:"mode"`
	Momentum yoy.Momentum `json:"momentum"`
	Excluded int          `json:"excluded"`
}

type NarrativeResult struct {
	CustomerID      string   `json:"customer_id"`
	Text            string   `json:"text"`
	Recommendations []string `json:"recommendations"`
}

// ServiceParams wires the service. Narrator and Metrics are optional.
type ServiceParams struct {
	Source     sources.Source
	Narrator   Narrator
	Metrics    *metrics.PulseMetrics
	Logger     *logger.Logger
	SampleSize int
	Now        func() time.Time
}

type service struct {
	source     sources.Source
	narrator   Narrator
	metrics    *metrics.PulseMetrics
	logg       *logger.Logger
	sampleSize int
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	sampleSize := params.SampleSize
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		source:     params.Source,
		narrator:   params.Narrator,
		metrics:    params.Metrics,
		logg:       params.Logger,
		sampleSize: sampleSize,
		now:        now,
	}, nil
}

func (s *service) Mode() sources.Mode {
	return s.source.Mode()
}

// scoredPopulation is one scored read and the backend that served it.
type scoredPopulation struct {
	rows     []yoy.ScoredRow
	mode     sources.Mode
	excluded int
}

func (p scoredPopulation) ranking(dir yoy.Direction, limit int) RankingResult {
	return RankingResult{
		Direction: dir,
		Mode:      p.mode,
		Rows:      yoy.Rank(p.rows, dir, limit),
		Excluded:  p.excluded,
		Total:     len(p.rows),
	}
}

// scored fetches and scores the population, skipping invalid rows.
func (s *service) scored(ctx context.Context, sampleSize int) (scoredPopulation, error) {
	if sampleSize <= 0 {
		sampleSize = s.sampleSize
	}

	start := time.Now()
	pop, mode, err := s.source.Population(ctx, sampleSize)
	s.metrics.ObserveSource("population", string(mode), time.Since(start), err)
	if err != nil {
		return scoredPopulation{}, err
	}

	valid, rejected := yoy.Partition(pop)
	excluded := len(pop) - len(valid)
	if excluded > 0 {
		s.metrics.AddExcluded(excluded)
		warnCtx := s.logg.WithFields(ctx, map[string]any{
			"excluded":     excluded,
			"population":   len(pop),
			"first_reason": firstError(rejected),
		})
		s.logg.Warn(warnCtx, "invalid aggregates excluded from scoring")
	}

	rows, err := yoy.Score(valid)
	if err != nil {
		return scoredPopulation{}, err
	}
	return scoredPopulation{rows: rows, mode: mode, excluded: excluded}, nil
}

func firstError(err error) string {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return ""
	}
	return errs[0].Error()
}

func (s *service) Rankings(ctx context.Context, dir yoy.Direction, limit, sampleSize int) (*RankingResult, error) {
	pop, err := s.scored(ctx, sampleSize)
	if err != nil {
		return nil, err
	}
	res := pop.ranking(dir, limit)
	return &res, nil
}

func (s *service) RankingPair(ctx context.Context, limit, sampleSize int) (*RankingPair, error) {
	pop, err := s.scored(ctx, sampleSize)
	if err != nil {
		return nil, err
	}
	return &RankingPair{
		Mode:      pop.mode,
		Decliners: pop.ranking(yoy.Decliners, limit),
		Growers:   pop.ranking(yoy.Growers, limit),
	}, nil
}

func (s *service) Snapshot(ctx context.Context) (*Snapshot, error) {
	pop, err := s.scored(ctx, s.sampleSize)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		TakenAt:  s.now(),
		Mode:     pop.mode,
		Momentum: yoy.Summarize(pop.rows),
		Excluded: pop.excluded,
	}
	s.metrics.SetMomentum(snap.Momentum.GrowersTotal, snap.Momentum.DeclinersTotal, snap.Momentum.Net)
	return snap, nil
}

func (s *service) OnePager(ctx context.Context, customerID string, rankGeo bool) (*yoy.CustomerBundle, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	ctx = s.logg.WithCustomerID(ctx, customerID)

	start := time.Now()
	in, mode, err := s.source.BundleInputs(ctx, customerID)
	s.metrics.ObserveSource("bundle_inputs", string(mode), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	var opts []yoy.DecomposeOption
	if rankGeo {
		opts = append(opts, yoy.WithRankedGeo())
	}
	bundle := yoy.Decompose(customerID, in, opts...)
	return &bundle, nil
}

// Narrative builds the headline summary for a customer and asks the
// narrator for recommendations.
func (s *service) Narrative(ctx context.Context, customerID string) (*NarrativeResult, error) {
	if s.narrator == nil {
		s.metrics.IncNarrative("disabled")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, narrative.ErrUnavailable, "narrative service not configured")
	}
	bundle, err := s.OnePager(ctx, customerID, false)
	if err != nil {
		return nil, err
	}

	summary := narrative.Summary{
		CustomerID: bundle.CustomerID,
		CYSales:    bundle.Headline.CYSales.InexactFloat64(),
		PYSales:    bundle.Headline.PYSales.InexactFloat64(),
		YoYDelta:   bundle.Headline.YoYDelta.InexactFloat64(),
		YoYPct:     bundle.Headline.YoYPct.InexactFloat64(),
	}
	text, err := s.narrator.Recommend(ctx, summary)
	if err != nil {
		s.metrics.IncNarrative("failure")
		s.logg.Error(s.logg.WithCustomerID(ctx, bundle.CustomerID), "narrative request failed", err)
		return nil, err
	}
	s.metrics.IncNarrative("success")
	return &NarrativeResult{
		CustomerID:      bundle.CustomerID,
		Text:            text,
		Recommendations: narrative.SplitRecommendations(text),
	}, nil
}
