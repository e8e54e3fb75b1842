// Package report renders metrics engine results as Markdown, CSV and JSON.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/productpulse/internal/metrics"
)

// TimestampFormat is used for the generation time shown in reports.
const TimestampFormat = "2006-01-02 15:04:05"

// Meta describes one report run. It is kept out of metrics.Results so that
// engine output stays identical across runs over the same data.
type Meta struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source,omitempty"`
}

// NewMeta stamps a run with a fresh identifier and the current UTC time.
func NewMeta(source string) Meta {
	return Meta{RunID: uuid.NewString(), GeneratedAt: time.Now().UTC(), Source: source}
}

// Number of trailing periods shown in the activity tables.
const (
	dauTail = 7
	wauTail = 6
)

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }

// Markdown renders the full metrics summary.
func Markdown(res *metrics.Results, meta Meta) string {
	var b strings.Builder
	b.WriteString("# Product Metrics & Behavioral Analysis\n\n")
	b.WriteString(fmt.Sprintf("Generated on %s UTC", meta.GeneratedAt.UTC().Format(TimestampFormat)))
	if meta.Source != "" {
		b.WriteString(fmt.Sprintf(" from `%s`", meta.Source))
	}
	b.WriteString("\n\n")

	writeDefinitions(&b, res)
	writeHighlights(&b, res.Highlights)
	writeActivity(&b, res.Activity)
	writeAdoption(&b, res.Adoption)
	writeRetention(&b, res.Retention, res.Cohorts)
	writeCorrelation(&b, res.Correlation)
	b.WriteString("\n### Onboarding Funnel\n\n")
	b.WriteString(FunnelTable(res.Funnel))
	writeSentiment(&b, res.Sentiment)
	writeFeatureTrend(&b, res.FeatureTrend)
	writeNotes(&b, res)
	return b.String()
}

func writeDefinitions(b *strings.Builder, res *metrics.Results) {
	d, w := res.Activity.Daily.Summary, res.Activity.Weekly.Summary
	b.WriteString("## Metric Definitions & Results\n\n")
	b.WriteString("- **Daily Active Users (DAU):** Unique users with at least one session on a given day.\n")
	b.WriteString(fmt.Sprintf("  Average DAU: **%.1f** across %d days (median %.1f, min %d, max %d).\n",
		d.Mean, d.Periods, d.Median, d.Min, d.Max))
	b.WriteString("- **Weekly Active Users (WAU):** Unique users with at least one session during an ISO week (Monday start).\n")
	b.WriteString(fmt.Sprintf("  Average WAU: **%.1f** across %d weeks (median %.1f, min %d, max %d).\n",
		w.Mean, w.Periods, w.Median, w.Min, w.Max))
	b.WriteString("- **Feature Adoption Rate:** Share of active users who engaged with each feature at least once during the observed window.\n")
	b.WriteString(fmt.Sprintf("  Overall feature adoption: **%s** of %d active users touched any feature.\n",
		pct(res.Adoption.OverallRate), res.Adoption.ActiveUsers))

	days := make([]string, 0, len(res.Retention.Probes))
	for _, p := range res.Retention.Probes {
		days = append(days, fmt.Sprintf("%d", p.Day))
	}
	b.WriteString(fmt.Sprintf("- **Retention Rate (Day %s):** Percentage of new users with a session exactly N days after signup.\n",
		strings.Join(days, " / ")))
	b.WriteString(fmt.Sprintf("  Cohort size: **%d** users with post-signup activity.\n", res.Retention.CohortSize))
}

func writeHighlights(b *strings.Builder, h metrics.Highlights) {
	b.WriteString("\n## Highlights\n\n")
	b.WriteString(fmt.Sprintf("- Latest DAU: **%d** (rolling average %.1f", h.LatestDAU, h.LatestRolling))
	if h.RollingChange != 0 {
		b.WriteString(fmt.Sprintf(", %+.1f%% vs. 30 days earlier", h.RollingChange*100))
	}
	b.WriteString(")\n")
	if len(h.TopFeatures) > 0 {
		names := make([]string, len(h.TopFeatures))
		for i, f := range h.TopFeatures {
			names[i] = fmt.Sprintf("%s (%d)", f.Feature, f.Events)
		}
		b.WriteString("- Most used features: " + strings.Join(names, ", ") + "\n")
	}
	b.WriteString(fmt.Sprintf("- Average month-1 cohort retention: %s\n", pct(h.MonthOneRetention)))
	b.WriteString(fmt.Sprintf("- Negative feedback share: %s\n", pct(h.NegativeShare)))
	if h.LargestDropStage != "" {
		b.WriteString(fmt.Sprintf("- Largest funnel drop: %s of users lost before **%s**\n", pct(h.LargestDrop), h.LargestDropStage))
	}
}

func writeActivity(b *strings.Builder, a metrics.ActivityResult) {
	b.WriteString(fmt.Sprintf("\n### Daily Active Users (last %d days of data)\n\n", dauTail))
	daily := tail(a.Daily.Points, dauTail)
	if len(daily) == 0 {
		b.WriteString("No daily activity recorded.\n")
	} else {
		b.WriteString(fmt.Sprintf("| Date | Active Users | %d-day Avg |\n| --- | ---: | ---: |\n", a.RollingWindow))
		offset := len(a.Daily.Points) - len(daily)
		for i, p := range daily {
			avg := "-"
			if j := offset + i; j < len(a.Rolling) && a.Rolling[j].Valid {
				avg = fmt.Sprintf("%.1f", a.Rolling[j].Mean)
			}
			b.WriteString(fmt.Sprintf("| %s | %d | %s |\n", p.Key, p.Users, avg))
		}
	}

	b.WriteString(fmt.Sprintf("\n### Weekly Active Users (last %d weeks of data)\n\n", wauTail))
	weekly := tail(a.Weekly.Points, wauTail)
	if len(weekly) == 0 {
		b.WriteString("No weekly activity recorded.\n")
		return
	}
	b.WriteString("| Week (Mon start) | Active Users |\n| --- | ---: |\n")
	for _, p := range weekly {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", p.Key, p.Users))
	}
}

func writeAdoption(b *strings.Builder, a metrics.AdoptionResult) {
	b.WriteString("\n### Feature Adoption Detail\n\n")
	b.WriteString("| Feature | Users | Adoption Rate |\n| --- | ---: | ---: |\n")
	for _, r := range a.Features {
		b.WriteString(fmt.Sprintf("| %s | %d | %s |\n", cell(r.Feature), r.Adopters, pct(r.AdoptionRate)))
	}
}

func writeRetention(b *strings.Builder, r metrics.RetentionResult, m metrics.CohortMatrix) {
	b.WriteString("\n### Retention Summary\n\n")
	b.WriteString("| Day | Retained Users | Retention Rate |\n| ---: | ---: | ---: |\n")
	for _, p := range r.Probes {
		b.WriteString(fmt.Sprintf("| %d | %d | %s |\n", p.Day, p.Retained, pct(p.RetentionRate)))
	}

	if len(m.Rows) == 0 {
		return
	}
	b.WriteString("\n### Monthly Cohort Retention\n\n")
	b.WriteString("| Cohort | Users |")
	for off := 0; off <= m.MaxOffset; off++ {
		b.WriteString(fmt.Sprintf(" M%d |", off))
	}
	b.WriteString("\n| --- | ---: |")
	for off := 0; off <= m.MaxOffset; off++ {
		b.WriteString(" ---: |")
	}
	b.WriteString("\n")
	for _, row := range m.Rows {
		b.WriteString(fmt.Sprintf("| %s | %d |", row.Cohort, row.Size))
		for _, rate := range row.Rates {
			b.WriteString(" " + pct(rate) + " |")
		}
		b.WriteString("\n")
	}
}

func writeCorrelation(b *strings.Builder, c metrics.CorrelationResult) {
	b.WriteString("\n### Features Correlated with Repeat Sessions\n\n")
	b.WriteString(fmt.Sprintf("Repeat sessions defined as users with %d+ sessions in the period. Phi coefficients capture the strength of\n", c.RepeatThreshold))
	b.WriteString("association between touching a feature and being a repeat user (higher = stronger positive correlation).\n\n")
	b.WriteString("| Feature | Users | Repeat Rate (Used) | Repeat Rate (Not Used) | Lift | Phi |\n| --- | ---: | ---: | ---: | ---: | ---: |\n")
	for _, r := range c.Features {
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %.3f |\n",
			cell(r.Feature), r.UsersUsed, pct(r.RepeatRateUsed), pct(r.RepeatRateNotUsed), pct(r.Lift), r.Phi))
	}
}

// FunnelTable renders the funnel stages as a Markdown table.
func FunnelTable(f metrics.FunnelResult) string {
	if len(f.Stages) == 0 {
		return "No funnel stages configured.\n"
	}
	var b strings.Builder
	b.WriteString("| Stage | Users | Overall Conversion | Step Conversion | Step Drop |\n| --- | ---: | ---: | ---: | ---: |\n")
	for _, st := range f.Stages {
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
			cell(st.Name), st.Users, pct(st.OverallConversion), pct(st.StepConversion), pct(st.StepDrop)))
	}
	return b.String()
}

func writeSentiment(b *strings.Builder, s metrics.SentimentTrend) {
	b.WriteString("\n### Feedback Sentiment by Month\n\n")
	if s.Classified == 0 {
		b.WriteString("No feedback recorded.\n")
		return
	}
	b.WriteString("| Month |")
	for _, label := range metrics.SentimentOrder {
		b.WriteString(fmt.Sprintf(" %s |", label))
	}
	b.WriteString("\n| --- |")
	for range metrics.SentimentOrder {
		b.WriteString(" ---: |")
	}
	b.WriteString("\n")

	for _, month := range sentimentMonths(s) {
		b.WriteString("| " + month.key + " |")
		for _, label := range metrics.SentimentOrder {
			b.WriteString(fmt.Sprintf(" %d |", month.counts[label]))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\nTotals: %d positive, %d neutral, %d negative (%s negative).\n",
		s.Totals[metrics.Positive], s.Totals[metrics.Neutral], s.Totals[metrics.Negative], pct(s.NegativeShare())))
}

type sentimentMonth struct {
	key    string
	counts map[metrics.Sentiment]int
}

// sentimentMonths pivots the already sorted buckets into one row per month.
func sentimentMonths(s metrics.SentimentTrend) []sentimentMonth {
	var out []sentimentMonth
	for _, bk := range s.Buckets {
		if len(out) == 0 || out[len(out)-1].key != bk.Key {
			out = append(out, sentimentMonth{key: bk.Key, counts: map[metrics.Sentiment]int{}})
		}
		out[len(out)-1].counts[bk.Sentiment] += bk.Count
	}
	return out
}

func writeFeatureTrend(b *strings.Builder, t metrics.FeatureTrend) {
	if len(t.Top) == 0 {
		return
	}
	b.WriteString("\n### Weekly Usage of Top Features\n\n")
	b.WriteString("| Week (Mon start) |")
	for _, f := range t.Top {
		b.WriteString(" " + cell(f.Feature) + " |")
	}
	b.WriteString("\n| --- |")
	for range t.Top {
		b.WriteString(" ---: |")
	}
	b.WriteString("\n")

	var weeks []string
	counts := map[string]map[string]int{}
	for _, w := range t.Weekly {
		if counts[w.Key] == nil {
			counts[w.Key] = map[string]int{}
			weeks = append(weeks, w.Key)
		}
		counts[w.Key][w.Feature] = w.Events
	}
	for _, wk := range weeks {
		b.WriteString("| " + wk + " |")
		for _, f := range t.Top {
			b.WriteString(fmt.Sprintf(" %d |", counts[wk][f.Feature]))
		}
		b.WriteString("\n")
	}
}

func writeNotes(b *strings.Builder, res *metrics.Results) {
	var notes []string
	if n := res.Adoption.DroppedEvents; n > 0 {
		notes = append(notes, fmt.Sprintf("%d feature usage events referenced unknown sessions and were excluded.", n))
	}
	if n := res.Sentiment.DroppedFeedback; n > 0 {
		notes = append(notes, fmt.Sprintf("%d feedback entries referenced unknown sessions and were excluded.", n))
	}
	if n := res.Retention.SkippedSessions; n > 0 {
		notes = append(notes, fmt.Sprintf("%d sessions preceded signup or belonged to unknown users and were excluded from retention.", n))
	}
	if len(notes) == 0 {
		return
	}
	b.WriteString("\n### Notes\n\n")
	for _, n := range notes {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
}

func tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func cell(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
