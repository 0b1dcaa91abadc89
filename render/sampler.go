package render

import (
	"math/rand/v2"

	"fracgen/mandelbrot"
)

// SamplerFunc returns the jitter source of one pixel in one pass. The same
// arguments must give the same sequence so passes can be repeated.
type SamplerFunc func(seed uint64, pass uint64, pixel int) mandelbrot.Sampler

// RandomSampler draws uniform jitter from a PCG generator.
type RandomSampler struct {
	rng *rand.Rand
}

// NewRandomSampler seeds a generator from the render seed, the pass number
// and the pixel index.
func NewRandomSampler(seed uint64, pass uint64, pixel int) mandelbrot.Sampler {
	return &RandomSampler{
		rng: rand.New(rand.NewPCG(seed^(pass*0x9E3779B97F4A7C15), uint64(pixel))),
	}
}

func (s *RandomSampler) Jitter() float64 {
	return s.rng.Float64()*2 - 1
}

// CenterSampler always samples the pixel corner the mapper lands on.
type CenterSampler struct{}

func NewCenterSampler(uint64, uint64, int) mandelbrot.Sampler {
	return CenterSampler{}
}

func (CenterSampler) Jitter() float64 {
	return 0
}
