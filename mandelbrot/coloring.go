package mandelbrot

import (
	"math"
	"math/cmplx"

	"fracgen/color"
)

const (
	lightAngle   = 270.0
	normalHeight = 1.5
)

// shade lights the surface whose normal is z/der with a light at lightAngle
// degrees and returns a brightness in [0,1].
func shade(z complex128, der complex128) float64 {
	normal := z / der
	normal /= complex(cmplx.Abs(normal), 0)
	light := cmplx.Rect(1, lightAngle*math.Pi/180)
	value := (real(normal)*real(light) + imag(normal)*imag(light) + normalHeight) / (1 + normalHeight)
	return math.Max(0, math.Min(1, value))
}

// HueColor cycles the hue with the smooth iteration count.
func HueColor(m *Mandelbrot, o Orbit) color.Color {
	limit := float64(m.settings.MaxIterations)
	hue := math.Pow(math.Pow((1-o.Smooth/limit)*360, m.settings.ColorExponent), 1.5)
	return color.HSVA(hue, 1, 1, 1).ToLinear()
}

// NormalMapColor cycles the hue and lights the result as a height map.
func NormalMapColor(m *Mandelbrot, o Orbit) color.Color {
	limit := float64(m.settings.MaxIterations)
	hue := math.Pow(math.Pow(o.Smooth/limit, m.settings.ColorExponent)*360, 1.5)
	return color.HSVA(hue, 1, shade(o.Z, o.Derivative), 1).ToLinear()
}

// cosineRamp builds a color from three phase shifted cosines of t, then
// applies saturation and value.
func cosineRamp(t float64, sat float64, val float64) (float64, float64, float64) {
	channel := func(phase float64) float64 {
		v := math.Max(0, math.Min(1, (1-2*math.Cos(t+phase))/2))
		return math.Sqrt((1 + v*sat - sat) * val)
	}
	return channel(0), channel(math.Pi * 2 / 3), channel(math.Pi * 4 / 3)
}

// CosineColor ramps through cosine bands of the smooth count with banded
// saturation and value, lit as a height map.
func CosineColor(m *Mandelbrot, o Orbit) color.Color {
	t := o.Smooth
	sat := math.Cos(4096.0/360.0*math.Pi*t)/2 + 0.5
	val := 1 - math.Sin(2048.0/360.0*math.Pi*t)/2 - 0.5
	r, g, b := cosineRamp(t, sat, val)

	c := color.New(color.SRGB, r, g, b, 1).ToLinear()
	c.Ch[2] *= shade(o.Z, o.Derivative)
	return c
}

// CosineRootColor is CosineColor on the root of the smooth count with full
// saturation and value.
func CosineRootColor(m *Mandelbrot, o Orbit) color.Color {
	t := math.Pow(math.Sqrt(o.Smooth), m.settings.ColorExponent)
	r, g, b := cosineRamp(t, 1, 1)

	c := color.New(color.SRGB, r, g, b, 1).ToLinear()
	c.Ch[2] *= shade(o.Z, o.Derivative)
	return c
}

// toIndex truncates v into [0, size). NaN and negative values map to 0.
func toIndex(v float64, size int) int {
	if !(v > 0) {
		return 0
	}
	if v >= float64(size-1) {
		return size - 1
	}
	return int(v)
}

// TextureColor wraps the texture around the escaped point: the angle of z
// picks the column and its log radius picks the row. Odd iteration counts
// mirror the row so neighbouring bands meet seamlessly.
func TextureColor(m *Mandelbrot, o Orbit) color.Color {
	if m.texture == nil {
		return NormalMapColor(m, o)
	}
	bounds := m.texture.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return NormalMapColor(m, o)
	}

	bail := m.settings.Boundary
	column := toIndex(math.Round((cmplx.Phase(o.Z)+math.Pi)/(2*math.Pi)*float64(w)), math.MaxInt32) % w
	height := float64(h-1) - math.Floor(math.Log(cmplx.Abs(o.Z)/bail)/math.Log(bail)*float64(h-1))
	row := (toIndex(height, math.MaxInt32) * 2) % h
	if o.Iterations%2 == 1 {
		row = h - 1 - row
	}

	c := color.FromStd(m.texture.At(bounds.Min.X+column, bounds.Min.Y+row)).ToHSV()
	c.Ch[2] *= shade(o.Z, o.Derivative)
	return c.ToLinear()
}

// PaletteColor blends between neighbouring palette stops in Lab space using
// the fractional part of the smooth count.
func PaletteColor(m *Mandelbrot, o Orbit) color.Color {
	stops := m.settings.gradient
	if len(stops) == 0 {
		return HueColor(m, o)
	}
	whole, fraction := math.Modf(math.Pow(o.Smooth, m.settings.ColorExponent))
	index := toIndex(whole, math.MaxInt32) % len(stops)
	next := (index + 1) % len(stops)

	blended := stops[index].BlendLab(stops[next], fraction).Clamped()
	return color.New(color.SRGB, blended.R, blended.G, blended.B, 1).ToLinear()
}
