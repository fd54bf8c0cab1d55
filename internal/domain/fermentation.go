package domain

import "time"

// FermentationConfig is the time-gated progression policy for fermented
// goods. The defaults mirror the 24-hour yoghurt batch cycle.
type FermentationConfig struct {
	Duration          time.Duration
	EarlyThresholdPct float64
	ReadyThresholdPct float64
}

// DefaultFermentationConfig returns the standard 24-hour batch policy.
func DefaultFermentationConfig() FermentationConfig {
	return FermentationConfig{
		Duration:          1440 * time.Minute,
		EarlyThresholdPct: 5,
		ReadyThresholdPct: 95,
	}
}

// Progress returns the fermentation completion percentage, capped at 100.
func (c FermentationConfig) Progress(start, now time.Time) float64 {
	if c.Duration <= 0 {
		return 0
	}
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	progress := float64(elapsed) / float64(c.Duration) * 100
	if progress > 100 {
		return 100
	}
	return progress
}

// EvaluateFermentation proposes the next status for a fermented order, as a
// pure function of elapsed time. It never proposes anything terminal: ready
// is the absorbing state for this policy because physical pickup cannot be
// inferred automatically.
//
// The evaluation is re-entrant: it depends only on FermentationStart, the
// current status and the clock, so replayed or resumed runs converge on the
// same result.
func EvaluateFermentation(o *Order, cfg FermentationConfig, now time.Time) (Status, bool) {
	if !o.IsFermented || o.FermentationStart == nil {
		return "", false
	}

	progress := cfg.Progress(*o.FermentationStart, now)

	switch o.Status {
	case StatusPendingPayment, StatusPreparing:
		if progress >= cfg.EarlyThresholdPct {
			return StatusCooking, true
		}
	case StatusCooking:
		if progress >= cfg.ReadyThresholdPct {
			return StatusReady, true
		}
	}

	// Ready и терминальные статусы политика не трогает
	return "", false
}
