package yoy

import (
	"fmt"
	"strings"
)

// RawAggregate is one customer's current-year and prior-year sales totals.
type RawAggregate struct {
	CustomerID string  `json:"customer_id"`
	CYSales    float64 `json:"cy_sales"`
	PYSales    float64 `json:"py_sales"`
}

// ScoredRow is a RawAggregate with its derived YoY measures and priority.
// PriorityScore is relative to the population it was scored with.
type ScoredRow struct {
	CustomerID    string  `json:"customer_id"`
	CYSales       float64 `json:"cy_sales"`
	PYSales       float64 `json:"py_sales"`
	YoYDelta      float64 `json:"yoy_delta"`
	YoYPct        float64 `json:"yoy_pct"`
	PriorityScore float64 `json:"priority_score"`
}

// Direction selects which side of the population a ranking covers.
type Direction string

const (
	Decliners Direction = "decliners"
	Growers   Direction = "growers"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == Decliners || d == Growers
}

func (d Direction) matches(row ScoredRow) bool {
	switch d {
	case Decliners:
		return row.YoYDelta < 0
	case Growers:
		return row.YoYDelta > 0
	default:
		return false
	}
}

// ParseDirection accepts "decliners" or "growers", case-insensitively.
func ParseDirection(value string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(value)))
	if !d.IsValid() {
		return "", fmt.Errorf("invalid direction %q", value)
	}
	return d, nil
}
