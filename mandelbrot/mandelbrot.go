package mandelbrot

import (
	"image"
	"math"

	"fracgen/color"
)

// Orbit is the state an orbit ended in.
type Orbit struct {
	Iterations int
	Smooth     float64
	Z          complex128
	Derivative complex128
}

// Sampler hands out sub-pixel jitter in [-1, 1].
type Sampler interface {
	Jitter() float64
}

// Mandelbrot evaluates samples of one settings and strategy combination.
// It is read-only after construction and safe to share between goroutines.
type Mandelbrot struct {
	functions Functions
	settings  Settings
	texture   image.Image

	center    complex128
	interior  color.Color
	julia     complex128
	step      complex128
	tolerance float64
	zInit     complex128
}

// NewMandelbrot prepares the per render constants. settings must have been
// verified. texture is only read by the texture color mode and may be nil.
func NewMandelbrot(settings Settings, functions Functions, texture image.Image) *Mandelbrot {
	step := PixelStep(settings.Width, settings.Height, settings.Zoom)
	return &Mandelbrot{
		functions: functions,
		settings:  settings,
		texture:   texture,
		center:    settings.Center.Complex(),
		interior:  settings.Interior().Square().ToSRGB(),
		julia:     functions.Domain(settings.Julia.Complex()),
		step:      step,
		tolerance: 0.5 * math.Min(real(step), imag(step)),
		zInit:     settings.ZInit.Complex(),
	}
}

func (m *Mandelbrot) Settings() Settings {
	return m.settings
}

// EscapeTime iterates the orbit of the domain mapped point c until the bail
// function gives up or the iteration limit is reached. An orbit that comes
// back within half a pixel of its checkpoint is treated as part of the set.
// https://en.wikipedia.org/wiki/Plotting_algorithms_for_the_Mandelbrot_set#Periodicity_checking
func (m *Mandelbrot) EscapeTime(c complex128) Orbit {
	limit := m.settings.MaxIterations
	z := m.functions.Init(m.zInit, c)

	i, s := 0, 0.0
	der, derSum := complex(1, 0), complex(1, 0)
	old, period := z, 1
	for m.functions.Bail(m, z, der, derSum) && i < limit {
		derSum += der
		der = der*2*z + 1
		z = m.functions.Iterate(z, c, m.julia)
		i++

		// Smooth count, offset by one to stay away from the origin
		s += math.Exp(-norm(z + 1))

		dif := z - old
		if math.Abs(real(dif)) < m.tolerance && math.Abs(imag(dif)) < m.tolerance {
			i = limit
			s = float64(limit)
			break
		}

		period++
		if period > m.settings.Cycles {
			period = 0
			old = z
		}
	}

	return Orbit{Iterations: i, Smooth: s, Z: z, Derivative: der}
}

// Escaped reports whether the orbit left before the iteration limit.
func (m *Mandelbrot) Escaped(o Orbit) bool {
	return o.Iterations < m.settings.MaxIterations
}

// GetColor is the gamma encoded color of an orbit.
func (m *Mandelbrot) GetColor(o Orbit) color.Color {
	return m.functions.Color(m, o).ToSRGB()
}

// Contribution is what one sample adds to its pixel: the squared gamma
// encoded color when it escaped, the squared set color otherwise.
func (m *Mandelbrot) Contribution(o Orbit) color.Color {
	if !m.Escaped(o) {
		return m.interior
	}
	return m.GetColor(o).Square()
}

// PointToCalculate places a sample of pixel (x, y) on the plane. jx and jy
// are jitter values in [-1, 1], scaled down by the sample divisor. The
// domain map is applied last.
func (m *Mandelbrot) PointToCalculate(x int, y int, jx float64, jy float64) complex128 {
	c := Normalize(x, y, m.settings.Width, m.settings.Height, m.settings.Zoom) + m.center
	c += complex(
		real(m.step)*jx/m.settings.SampleDivisor,
		imag(m.step)*jy/m.settings.SampleDivisor,
	)
	return m.functions.Domain(c)
}

// Pixel sums the contributions of samples jittered samples of pixel (x, y).
// The sum is gamma encoded and squared, ready to be added to an
// accumulation buffer.
func (m *Mandelbrot) Pixel(x int, y int, samples int, sampler Sampler) color.Color {
	sum := color.Zero(color.SRGB)
	for n := 0; n < samples; n++ {
		c := m.PointToCalculate(x, y, sampler.Jitter(), sampler.Jitter())
		sum = sum.Add(m.Contribution(m.EscapeTime(c)))
	}
	return sum
}
