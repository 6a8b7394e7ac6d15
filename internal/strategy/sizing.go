package strategy

import "fmt"

// SizingConfig holds the spend band for the sizing policy.
type SizingConfig struct {
	BaseAmount float64 // Base spend per cycle, e.g. 500
	MinAmount  float64 // Floor for any non-zero decision, e.g. 100
	MaxAmount  float64 // Cap for any decision, e.g. 2000
}

// Validate checks the spend band.
func (c SizingConfig) Validate() error {
	if c.BaseAmount <= 0 {
		return fmt.Errorf("base amount must be positive")
	}
	if c.MinAmount <= 0 || c.MaxAmount <= 0 {
		return fmt.Errorf("min and max amounts must be positive")
	}
	if c.MinAmount >= c.MaxAmount {
		return fmt.Errorf("min amount must be less than max amount")
	}
	return nil
}

// Decision is the output of the sizing policy: how much quote currency to
// spend this cycle and a human-readable signal describing why.
type Decision struct {
	Amount     float64
	Multiplier float64
	Signal     string
}

// sizingRule is one row of the policy table. Rules are evaluated in order and
// the first match wins; the ranges overlap, so the order carries meaning
// (tightest, most extreme conditions first) and must not be rearranged.
type sizingRule struct {
	matches    func(ratio float64, sentiment int) bool
	multiplier float64
	signal     func(ratio float64, sentiment int) string
}

var sizingRules = []sizingRule{
	{
		matches:    func(r float64, s int) bool { return r < 0.8 && s < 25 },
		multiplier: 4.0,
		signal:     func(r float64, s int) string { return fmt.Sprintf("PERFECT STORM: ratio %.3f + fear %d", r, s) },
	},
	{
		matches:    func(r float64, s int) bool { return r < 0.8 && s < 35 },
		multiplier: 3.5,
		signal: func(r float64, s int) string {
			return fmt.Sprintf("EXTREME OVERSOLD + FEAR: ratio %.3f + fear %d", r, s)
		},
	},
	{
		matches:    func(r float64, s int) bool { return r < 0.8 },
		multiplier: 3.0,
		signal:     func(r float64, s int) string { return fmt.Sprintf("EXTREME OVERSOLD: ratio %.3f", r) },
	},
	{
		matches:    func(r float64, s int) bool { return r < 1.0 && s < 30 },
		multiplier: 2.5,
		signal:     func(r float64, s int) string { return fmt.Sprintf("UNDERSOLD + FEAR: ratio %.3f + fear %d", r, s) },
	},
	{
		matches:    func(r float64, s int) bool { return r < 1.0 },
		multiplier: 1.8,
		signal:     func(r float64, s int) string { return fmt.Sprintf("UNDERSOLD: ratio %.3f", r) },
	},
	{
		matches:    func(r float64, s int) bool { return r < 1.2 && s < 40 },
		multiplier: 1.2,
		signal:     func(r float64, s int) string { return fmt.Sprintf("FAIR VALUE + FEAR: ratio %.3f + fear %d", r, s) },
	},
	{
		matches:    func(r float64, s int) bool { return r > 2.4 },
		multiplier: 0.0,
		signal:     func(r float64, s int) string { return fmt.Sprintf("EXTREME BUBBLE: ratio %.3f - STOP buying", r) },
	},
	{
		matches:    func(r float64, s int) bool { return r > 1.6 },
		multiplier: 0.2,
		signal:     func(r float64, s int) string { return fmt.Sprintf("OVERBOUGHT: ratio %.3f", r) },
	},
}

// Decide maps (trend ratio, sentiment score) to a clamped spend amount.
// Pure function: identical inputs always yield identical output.
//
// amount = base * multiplier, then clamped to [min, max] when the multiplier
// is positive. A zero multiplier forces the amount to exactly 0; the floor is
// bypassed only to zero a decision, never to raise one.
func Decide(ratio float64, sentiment int, cfg SizingConfig) Decision {
	multiplier := 1.0
	signal := fmt.Sprintf("FAIR VALUE: ratio %.3f", ratio)

	for _, rule := range sizingRules {
		if rule.matches(ratio, sentiment) {
			multiplier = rule.multiplier
			signal = rule.signal(ratio, sentiment)
			break
		}
	}

	amount := cfg.BaseAmount * multiplier
	if multiplier == 0 {
		amount = 0
	} else {
		if amount > cfg.MaxAmount {
			amount = cfg.MaxAmount
		}
		if amount < cfg.MinAmount {
			amount = cfg.MinAmount
		}
	}

	return Decision{Amount: amount, Multiplier: multiplier, Signal: signal}
}
