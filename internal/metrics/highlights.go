package metrics

// Highlights are the headline numbers for an executive summary.
type Highlights struct {
	LatestDAU         int            `json:"latest_dau"`
	LatestRolling     float64        `json:"latest_rolling_dau"`
	RollingChange     float64        `json:"rolling_change"`
	TopFeatures       []FeatureTotal `json:"top_features"`
	MonthOneRetention float64        `json:"month_one_retention"`
	NegativeShare     float64        `json:"negative_share"`
	LargestDropStage  string         `json:"largest_drop_stage,omitempty"`
	LargestDrop       float64        `json:"largest_drop"`
}

// rollingLookback is how many observed days back the rolling DAU is compared against.
const rollingLookback = 30

// ComputeHighlights derives the headline numbers from already computed results.
func ComputeHighlights(r *Results) Highlights {
	var h Highlights

	daily := r.Activity.Daily.Points
	rolling := r.Activity.Rolling
	if n := len(daily); n > 0 {
		h.LatestDAU = daily[n-1].Users
		if last := rolling[n-1]; last.Valid {
			h.LatestRolling = last.Mean
		}
		if n > rollingLookback {
			base := rolling[n-1-rollingLookback]
			if base.Valid && rolling[n-1].Valid {
				h.RollingChange = ratio(h.LatestRolling-base.Mean, base.Mean)
			}
		}
	}

	top := r.FeatureTrend.Top
	if len(top) > 3 {
		top = top[:3]
	}
	h.TopFeatures = append([]FeatureTotal{}, top...)

	if r.Cohorts.MaxOffset >= 1 && len(r.Cohorts.Rows) > 0 {
		sum := 0.0
		for _, row := range r.Cohorts.Rows {
			sum += row.Rates[1]
		}
		h.MonthOneRetention = sum / float64(len(r.Cohorts.Rows))
	}

	h.NegativeShare = r.Sentiment.NegativeShare()

	if st, ok := r.Funnel.LargestDrop(); ok {
		h.LargestDropStage = st.Name
		h.LargestDrop = st.StepDrop
	}
	return h
}
