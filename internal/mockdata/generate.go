// Package mockdata produces reproducible synthetic product analytics tables.
package mockdata

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

// Options controls dataset size and the random stream.
type Options struct {
	Seed                uint64
	Users               int
	MinSessions         int
	MaxSessions         int
	MinFeatures         int
	MaxFeatures         int
	FeedbackProbability float64
	// SignupStart and Now bound signup dates and session times.
	SignupStart time.Time
	Now         time.Time
}

// DefaultOptions returns the options for a 600 user demo dataset.
func DefaultOptions() Options {
	return Options{
		Seed:                42,
		Users:               600,
		MinSessions:         1,
		MaxSessions:         6,
		MinFeatures:         1,
		MaxFeatures:         6,
		FeedbackProbability: 0.35,
		SignupStart:         time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:                 time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC),
	}
}

var (
	Channels    = []string{"Organic", "Paid Search", "Referral", "Social", "Email", "Affiliate"}
	Regions     = []string{"North America", "Europe", "Latin America", "Asia Pacific", "Middle East", "Africa"}
	DeviceTypes = []string{"Desktop", "Mobile", "Tablet"}
	Features    = []string{
		"Dashboard", "Insights", "Notifications", "Collaboration",
		"Automation", "Reporting", "Settings", "Integrations",
	}
	Comments = []string{
		"Super intuitive flow, helped me finish tasks faster.",
		"Would love to see more customization options.",
		"Ran into a few slowdowns during peak hours.",
		"The new automation routine is a game changer.",
		"Notifications feel noisy, maybe add batching?",
		"Reporting export worked flawlessly for my client update.",
		"Collaboration tools could integrate better with Slack.",
		"App crashed once while editing settings, but recovered quickly.",
		"Mobile experience is fantastic, thanks!",
		"Great overall, but the insights could be more actionable.",
	}
)

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Users <= 0 {
		o.Users = d.Users
	}
	if o.MinSessions <= 0 {
		o.MinSessions = d.MinSessions
	}
	if o.MaxSessions < o.MinSessions {
		o.MaxSessions = max(o.MinSessions, d.MaxSessions)
	}
	if o.MinFeatures <= 0 {
		o.MinFeatures = d.MinFeatures
	}
	if o.MaxFeatures < o.MinFeatures {
		o.MaxFeatures = max(o.MinFeatures, d.MaxFeatures)
	}
	o.MaxFeatures = min(o.MaxFeatures, len(Features))
	o.MinFeatures = min(o.MinFeatures, o.MaxFeatures)
	if o.FeedbackProbability < 0 {
		o.FeedbackProbability = 0
	}
	if o.SignupStart.IsZero() {
		o.SignupStart = d.SignupStart
	}
	if o.Now.IsZero() {
		o.Now = d.Now
	}
	return o
}

type generator struct {
	rng *rand.Rand
	opt Options
}

// between returns a uniform integer in [lo, hi].
func (g *generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *generator) pick(list []string) string { return list[g.rng.IntN(len(list))] }

// dayIn returns a random calendar day in [from, to].
func (g *generator) dayIn(from, to time.Time) time.Time {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		days = 0
	}
	y, m, d := from.AddDate(0, 0, g.between(0, days)).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Generate builds a dataset. The same Options always yield the same tables.
func Generate(opt Options) *eventstore.Dataset {
	opt = opt.normalized()
	g := &generator{rng: rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15)), opt: opt}
	ds := &eventstore.Dataset{}

	lastSignup := opt.Now.AddDate(0, 0, -7)
	for i := 1; i <= opt.Users; i++ {
		ds.Users = append(ds.Users, eventstore.User{
			ID:         fmt.Sprintf("U%05d", i),
			SignupDate: g.dayIn(opt.SignupStart, lastSignup),
			Channel:    g.pick(Channels),
			Region:     g.pick(Regions),
		})
	}

	sessionN, feedbackN := 0, 0
	for _, u := range ds.Users {
		for range g.between(opt.MinSessions, opt.MaxSessions) {
			sessionN++
			start := g.dayIn(u.SignupDate, opt.Now).
				Add(time.Duration(g.between(6, 22))*time.Hour + time.Duration(g.between(0, 59))*time.Minute)
			end := start.Add(time.Duration(g.between(5, 160)) * time.Minute)
			s := eventstore.Session{
				ID:         fmt.Sprintf("S%06d", sessionN),
				UserID:     u.ID,
				StartTime:  start,
				EndTime:    end,
				DeviceType: g.pick(DeviceTypes),
			}
			ds.Sessions = append(ds.Sessions, s)

			span := int(end.Sub(start).Seconds())
			for _, fi := range g.rng.Perm(len(Features))[:g.between(opt.MinFeatures, opt.MaxFeatures)] {
				ds.Usage = append(ds.Usage, eventstore.FeatureUsageEvent{
					SessionID: s.ID,
					Feature:   Features[fi],
					Timestamp: start.Add(time.Duration(g.between(0, span)) * time.Second),
				})
			}

			if g.rng.Float64() < opt.FeedbackProbability {
				feedbackN++
				ds.Feedback = append(ds.Feedback, eventstore.FeedbackEntry{
					ID:        fmt.Sprintf("F%06d", feedbackN),
					UserID:    u.ID,
					Rating:    g.between(1, 5),
					Feature:   g.pick(Features),
					Comments:  g.pick(Comments),
					SessionID: s.ID,
				})
			}
		}
	}
	return ds
}
