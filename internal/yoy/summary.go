package yoy

// Momentum is the population-level roll-up shown on the live dashboard.
type Momentum struct {
	GrowersTotal   float64 `json:"growers_total"`
	DeclinersTotal float64 `json:"decliners_total"`
	Net            float64 `json:"net"`
	GrowingCount   int     `json:"growing_count"`
	DecliningCount int     `json:"declining_count"`
	FlatCount      int     `json:"flat_count"`
	Total          int     `json:"total"`
}

// Summarize sums positive and negative deltas across rows.
func Summarize(rows []ScoredRow) Momentum {
	var m Momentum
	for _, r := range rows {
		switch {
		case r.YoYDelta > 0:
			m.GrowersTotal += r.YoYDelta
			m.GrowingCount++
		case r.YoYDelta < 0:
			m.DeclinersTotal += r.YoYDelta
			m.DecliningCount++
		default:
			m.FlatCount++
		}
	}
	m.Net = m.GrowersTotal + m.DeclinersTotal
	m.Total = len(rows)
	return m
}
