package metrics

// Config carries every business rule the engine depends on. Nothing in this
// package reads package-level state; callers pass a Config to each run.
type Config struct {
	// RetentionDays are the exact day offsets probed by the retention analyzer.
	RetentionDays []int
	// RepeatThreshold is the minimum session count for a user to count as a repeat user.
	RepeatThreshold int
	// Lexicon holds the positive/negative term lists for feedback classification.
	Lexicon Lexicon
	// Funnel is the injected, business-defined stage list.
	Funnel []StageInput
	// TopFeatures limits the weekly feature trend to the N most used features.
	TopFeatures int
	// RollingWindow is the number of observed days averaged in the DAU rolling mean.
	RollingWindow int
	// Parallel runs independent analyzers (and per-feature correlation) concurrently.
	Parallel bool
}

// DefaultRetentionDays are the standard day 1 / 7 / 30 probes.
func DefaultRetentionDays() []int { return []int{1, 7, 30} }

// DefaultFunnel returns the onboarding funnel used when no stages are configured.
func DefaultFunnel() []StageInput {
	return []StageInput{
		{Name: "Visited Landing Page", Users: 15000},
		{Name: "Started Sign Up", Users: 9500},
		{Name: "Account Created", Users: 5200},
		{Name: "First Transaction", Users: 1456},
	}
}

// DefaultConfig returns the configuration that reproduces the standard report.
func DefaultConfig() Config {
	return Config{
		RetentionDays:   DefaultRetentionDays(),
		RepeatThreshold: 2,
		Lexicon:         DefaultLexicon(),
		Funnel:          DefaultFunnel(),
		TopFeatures:     4,
		RollingWindow:   7,
		Parallel:        true,
	}
}

// normalized fills zero values with defaults so a partially populated Config is usable.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if len(c.RetentionDays) == 0 {
		c.RetentionDays = d.RetentionDays
	}
	if c.RepeatThreshold <= 0 {
		c.RepeatThreshold = d.RepeatThreshold
	}
	if len(c.Lexicon.Positive) == 0 && len(c.Lexicon.Negative) == 0 {
		c.Lexicon = d.Lexicon
	}
	if c.TopFeatures <= 0 {
		c.TopFeatures = d.TopFeatures
	}
	if c.RollingWindow <= 0 {
		c.RollingWindow = d.RollingWindow
	}
	return c
}
