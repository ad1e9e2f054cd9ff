package terrain

// FractalOption is a function that modifies the fractal generator
// configuration.
type FractalOption func(*fractalGenerator)

// WithBaseResolution sets the LOD 0 grid resolution. Values below 4 are
// clamped to 4.
//
// Parameters:
//   - resolution: quads along one chunk edge at LOD 0
//
// Returns:
//   - FractalOption: the option function
func WithBaseResolution(resolution int) FractalOption {
	return func(g *fractalGenerator) {
		if resolution < 4 {
			resolution = 4
		}
		g.baseResolution = resolution
	}
}

// WithOctaves sets the noise octave count. Values below 1 are clamped to 1.
//
// Parameters:
//   - octaves: the octave count
//
// Returns:
//   - FractalOption: the option function
func WithOctaves(octaves int) FractalOption {
	return func(g *fractalGenerator) {
		if octaves < 1 {
			octaves = 1
		}
		g.octaves = octaves
	}
}

// WithAmplitude sets the height of the first noise octave.
//
// Parameters:
//   - amplitude: peak height contribution in world units
//
// Returns:
//   - FractalOption: the option function
func WithAmplitude(amplitude float32) FractalOption {
	return func(g *fractalGenerator) {
		g.amplitude = amplitude
	}
}

// WithFrequency sets the base noise frequency.
//
// Parameters:
//   - frequency: cycles per world unit for the first octave
//
// Returns:
//   - FractalOption: the option function
func WithFrequency(frequency float32) FractalOption {
	return func(g *fractalGenerator) {
		g.baseFrequency = frequency
	}
}

// WithSeed sets the noise seed so distinct worlds generate distinct terrain.
//
// Parameters:
//   - seed: the lattice hash seed
//
// Returns:
//   - FractalOption: the option function
func WithSeed(seed uint32) FractalOption {
	return func(g *fractalGenerator) {
		g.seed = seed
	}
}
