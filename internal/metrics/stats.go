package metrics

import (
	"math"
	"sort"
	"time"
)

// ratio divides guarding a zero denominator, the engine-wide convention for
// empty cohorts and empty tables.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// summarize computes count/mean/median/min/max over per-period counts.
// An empty input yields the zero Summary.
func summarize(counts []int) Summary {
	if len(counts) == 0 {
		return Summary{}
	}
	vals := make([]float64, len(counts))
	sum := 0.0
	mn, mx := counts[0], counts[0]
	for i, c := range counts {
		vals[i] = float64(c)
		sum += float64(c)
		if c < mn {
			mn = c
		}
		if c > mx {
			mx = c
		}
	}
	sort.Float64s(vals)
	return Summary{
		Periods: len(counts),
		Mean:    sum / float64(len(counts)),
		Median:  quantile(vals, 0.5),
		Min:     mn,
		Max:     mx,
	}
}

// civilDay drops the clock reading, keeping the calendar date the timestamp
// was recorded in, expressed as UTC midnight so day arithmetic is exact.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Monday that opens t's ISO week.
func weekStart(t time.Time) time.Time {
	day := civilDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// dayDiff is the whole number of calendar days from a to b.
func dayDiff(a, b time.Time) int {
	return int(civilDay(b).Sub(civilDay(a)).Hours() / 24)
}

func monthDiff(a, b time.Time) int {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return (by-ay)*12 + int(bm-am)
}
