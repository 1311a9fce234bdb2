package scoring

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithWeights replaces the composite weights.
func WithWeights(w Weights) Option {
	return func(c *Calculator) {
		if w.PriorityBonus == nil {
			w.PriorityBonus = DefaultWeights().PriorityBonus
		}
		c.weights = w
	}
}

// WithPortfolioScorer sets the portfolio dimension implementation.
func WithPortfolioScorer(p PortfolioScorer) Option {
	return func(c *Calculator) {
		if p != nil {
			c.portfolio = p
		}
	}
}

// WithRegions replaces the known regional hubs used by the location rule.
func WithRegions(regions ...string) Option {
	return func(c *Calculator) {
		if len(regions) > 0 {
			c.regions = lowerAll(regions)
		}
	}
}
