package hzb

// GeneratorOption is a function that modifies the generator configuration.
type GeneratorOption func(*generatorImpl)

// WithDepthPassExecutor attaches the executor that runs the occluder depth
// pass and the reduction passes. Generate fails without one.
//
// Parameters:
//   - executor: the depth pass executor
//
// Returns:
//   - GeneratorOption: the option function
func WithDepthPassExecutor(executor DepthPassExecutor) GeneratorOption {
	return func(g *generatorImpl) {
		g.executor = executor
	}
}
