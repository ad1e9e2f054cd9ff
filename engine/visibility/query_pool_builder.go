package visibility

// QueryPoolOption is a function that modifies the software query pool
// configuration.
type QueryPoolOption func(*softwareQueryPool)

// WithMaxQueriesPerFrame sets the per-frame issue budget. Values below 1 are
// clamped to 1.
//
// Parameters:
//   - max: the budget in queries per frame
//
// Returns:
//   - QueryPoolOption: the option function
func WithMaxQueriesPerFrame(max int) QueryPoolOption {
	return func(p *softwareQueryPool) {
		if max < 1 {
			max = 1
		}
		p.maxQueriesPerFrame = max
	}
}

// WithQueryResolver replaces the function that decides software query
// outcomes.
//
// Parameters:
//   - resolver: the resolver, must not be nil
//
// Returns:
//   - QueryPoolOption: the option function
func WithQueryResolver(resolver QueryResolver) QueryPoolOption {
	return func(p *softwareQueryPool) {
		if resolver != nil {
			p.resolver = resolver
		}
	}
}
