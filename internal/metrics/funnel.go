package metrics

// StageInput is one externally supplied funnel stage.
type StageInput struct {
	Name  string `json:"stage" yaml:"stage" mapstructure:"stage" validate:"required"`
	Users int    `json:"users" yaml:"users" mapstructure:"users" validate:"min=0"`
}

// FunnelStage is a stage annotated with conversion ratios.
type FunnelStage struct {
	Name              string  `json:"stage"`
	Users             int     `json:"users"`
	OverallConversion float64 `json:"overall_conversion"`
	StepConversion    float64 `json:"step_conversion"`
	StepDrop          float64 `json:"step_drop"`
}

// FunnelResult is the ordered stage list.
type FunnelResult struct {
	Stages []FunnelStage `json:"stages"`
}

// ComputeFunnel annotates stages with overall (vs. stage 0) and step (vs. the
// previous stage) conversion. Counts are expected to be non-increasing but
// this is not enforced.
func ComputeFunnel(stages []StageInput) FunnelResult {
	out := make([]FunnelStage, len(stages))
	for i, s := range stages {
		fs := FunnelStage{Name: s.Name, Users: s.Users, StepConversion: 1}
		fs.OverallConversion = ratio(float64(s.Users), float64(stages[0].Users))
		if i > 0 {
			fs.StepConversion = ratio(float64(s.Users), float64(stages[i-1].Users))
		}
		fs.StepDrop = 1 - fs.StepConversion
		out[i] = fs
	}
	return FunnelResult{Stages: out}
}

// LargestDrop returns the stage with the highest step drop (index > 0).
func (f FunnelResult) LargestDrop() (FunnelStage, bool) {
	best := -1
	for i := 1; i < len(f.Stages); i++ {
		if best < 0 || f.Stages[i].StepDrop > f.Stages[best].StepDrop {
			best = i
		}
	}
	if best < 0 {
		return FunnelStage{}, false
	}
	return f.Stages[best], true
}
