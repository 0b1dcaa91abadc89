package mandelbrot

import (
	"math"
	"math/cmplx"

	"fracgen/color"
)

// IterateFunc advances the orbit one step. julia is the domain mapped julia
// constant; plain sets ignore it.
type IterateFunc func(z complex128, c complex128, julia complex128) complex128

// InitFunc returns the first value of the orbit.
type InitFunc func(zInit complex128, c complex128) complex128

// DomainFunc maps the sampled plane coordinate before iteration starts.
type DomainFunc func(c complex128) complex128

// BailFunc reports whether the orbit should keep iterating.
type BailFunc func(m *Mandelbrot, z complex128, der complex128, derSum complex128) bool

// ColorFunc turns the final state of an orbit into a color.
type ColorFunc func(m *Mandelbrot, o Orbit) color.Color

// Functions is the set of strategies a render is built from. It is chosen
// once per settings and never changes during a pass.
type Functions struct {
	Iterate IterateFunc
	Init    InitFunc
	Domain  DomainFunc
	Bail    BailFunc
	Color   ColorFunc
}

type FractalMode int

const (
	FractalMandelbrot FractalMode = iota
	FractalBurningShip
	FractalMixed
	FractalPowerTower
)

func (f FractalMode) String() string {
	switch f {
	case FractalMandelbrot:
		return "Mandelbrot"
	case FractalBurningShip:
		return "BurningShip"
	case FractalMixed:
		return "Mixed"
	case FractalPowerTower:
		return "PowerTower"
	}
	return "Unknown"
}

type InitMode int

// InitAuto picks the pixel for julia sets and the constant otherwise.
const InitAuto InitMode = -1

const (
	InitConstant InitMode = iota
	InitPixel
)

func (i InitMode) String() string {
	switch i {
	case InitAuto:
		return "Auto"
	case InitConstant:
		return "Constant"
	case InitPixel:
		return "Pixel"
	}
	return "Unknown"
}

type DomainMode int

const (
	DomainIdentity DomainMode = iota
	DomainMobius
	DomainCayley
	DomainInversion
)

func (d DomainMode) String() string {
	switch d {
	case DomainIdentity:
		return "Identity"
	case DomainMobius:
		return "Mobius"
	case DomainCayley:
		return "Cayley"
	case DomainInversion:
		return "Inversion"
	}
	return "Unknown"
}

type BailMode int

const (
	BailNorm BailMode = iota
	BailAbs
	BailDerivative
)

func (b BailMode) String() string {
	switch b {
	case BailNorm:
		return "Norm"
	case BailAbs:
		return "Abs"
	case BailDerivative:
		return "Derivative"
	}
	return "Unknown"
}

type ColorMode int

const (
	ColorHue ColorMode = iota
	ColorNormalMap
	ColorCosine
	ColorCosineRoot
	ColorTexture
	ColorPalette
)

func (c ColorMode) String() string {
	switch c {
	case ColorHue:
		return "Hue"
	case ColorNormalMap:
		return "NormalMap"
	case ColorCosine:
		return "Cosine"
	case ColorCosineRoot:
		return "CosineRoot"
	case ColorTexture:
		return "Texture"
	case ColorPalette:
		return "Palette"
	}
	return "Unknown"
}

// NewFunctions picks the strategies named by the mode selectors of s.
// Unknown modes fall back to the first strategy of their kind.
func NewFunctions(s Settings) Functions {
	var step func(z complex128, k complex128) complex128
	switch s.FractalMode {
	case FractalBurningShip:
		step = BurningShip
	case FractalMixed:
		step = Mixed
	case FractalPowerTower:
		step = PowerTower
	default:
		step = Quadratic
	}

	f := Functions{
		Iterate: func(z complex128, c complex128, _ complex128) complex128 {
			return step(z, c)
		},
		Init:   InitFromConstant,
		Domain: Identity,
		Bail:   BailOnNorm,
		Color:  HueColor,
	}
	if s.IsJulia {
		f.Iterate = func(z complex128, _ complex128, j complex128) complex128 {
			return step(z, j)
		}
	}

	if s.InitMode == InitPixel {
		f.Init = InitFromPixel
	}

	switch s.DomainMode {
	case DomainMobius:
		f.Domain = Mobius
	case DomainCayley:
		f.Domain = Cayley
	case DomainInversion:
		f.Domain = Inversion
	}

	switch s.BailMode {
	case BailAbs:
		f.Bail = BailOnAbs
	case BailDerivative:
		f.Bail = BailOnDerivative
	}

	switch s.ColorMode {
	case ColorNormalMap:
		f.Color = NormalMapColor
	case ColorCosine:
		f.Color = CosineColor
	case ColorCosineRoot:
		f.Color = CosineRootColor
	case ColorTexture:
		f.Color = TextureColor
	case ColorPalette:
		f.Color = PaletteColor
	}

	return f
}

// Quadratic is the quadratic map z² + k.
func Quadratic(z complex128, k complex128) complex128 {
	return z*z + k
}

// BurningShip squares the orbit after folding it into the first quadrant.
func BurningShip(z complex128, k complex128) complex128 {
	f := complex(math.Abs(real(z)), math.Abs(imag(z)))
	return f*f + k
}

// Mixed runs one quadratic step, one burning ship step and two more
// quadratic steps.
func Mixed(z complex128, k complex128) complex128 {
	z = Quadratic(z, k)
	z = BurningShip(z, k)
	z = Quadratic(z, k)
	return Quadratic(z, k)
}

// PowerTower is (z·k)^(z/k) + z/k.
func PowerTower(z complex128, k complex128) complex128 {
	return cmplx.Pow(z*k, z/k) + z/k
}

func InitFromConstant(zInit complex128, _ complex128) complex128 {
	return zInit
}

func InitFromPixel(_ complex128, c complex128) complex128 {
	return c
}

func Identity(c complex128) complex128 {
	return c
}

// Mobius swaps the axes and applies (s+1)/(1-s/1.25).
func Mobius(c complex128) complex128 {
	s := complex(imag(c), real(c))
	return (s + 1) / (-s/1.25 + 1)
}

// Cayley maps the right half plane onto the unit disk.
func Cayley(c complex128) complex128 {
	return (c - 1) / (c + 1)
}

// Inversion turns the plane inside out around the unit circle.
func Inversion(c complex128) complex128 {
	return 1 / c
}

func norm(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}

func BailOnNorm(m *Mandelbrot, z complex128, _ complex128, _ complex128) bool {
	return norm(z) < m.settings.Boundary
}

func BailOnAbs(m *Mandelbrot, z complex128, _ complex128, _ complex128) bool {
	return cmplx.Abs(z) < m.settings.Boundary
}

// BailOnDerivative stops when either the summed derivative or the orbit grows
// past its boundary.
func BailOnDerivative(m *Mandelbrot, z complex128, _ complex128, derSum complex128) bool {
	n := norm(z)
	return norm(derSum*derSum) < m.settings.DerivativeBoundary && n*n < m.settings.Boundary
}
