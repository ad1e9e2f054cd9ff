package visibility

// CullerOption is a function that modifies the culler configuration.
type CullerOption func(*cullerImpl)

// WithConservativeMargin sets the inflation factor for margin-aware tests.
// Values below 1.0 are clamped to 1.0.
//
// Parameters:
//   - margin: the inflation factor
//
// Returns:
//   - CullerOption: the option function
func WithConservativeMargin(margin float32) CullerOption {
	return func(c *cullerImpl) {
		if margin < 1.0 {
			margin = 1.0
		}
		c.margin = margin
	}
}
