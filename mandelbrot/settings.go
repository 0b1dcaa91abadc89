package mandelbrot

import (
	"errors"
	"fmt"
	"runtime"

	"fracgen/color"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/lucasb-eyer/go-colorful"
)

// Point is a position on the complex plane as it appears in settings files.
type Point struct {
	X float64
	Y float64
}

func (p Point) Complex() complex128 {
	return complex(p.X, p.Y)
}

// Settings describes one render: the image, the view on the plane, the
// iteration limits and which strategy functions to use.
type Settings struct {
	logger bslogger.Logger

	BailMode                BailMode
	BitDepth                int
	Boundary                float64
	Center                  Point
	ColorExponent           float64
	ColorMode               ColorMode
	Cycles                  int
	DerivativeBoundary      float64
	DomainMode              DomainMode
	FractalMode             FractalMode
	GeneratePaletteSettings []GeneratePaletteSettings
	Height                  int
	InitMode                InitMode
	IsJulia                 bool
	Julia                   Point
	MaxIterations           int
	Palette                 []string
	SampleDivisor           float64
	Samples                 int
	Seed                    uint64
	SetColor                string
	Texture                 string
	Threads                 int
	Width                   int
	ZInit                   Point
	Zoom                    float64

	gradient []colorful.Color
	interior color.Color
}

// DefaultSettings returns the settings of the classic full view of the set.
// Settings files are decoded on top of these values.
func DefaultSettings() Settings {
	return Settings{
		BitDepth:           8,
		Boundary:           64,
		Center:             Point{X: -0.75, Y: 0},
		ColorExponent:      1,
		Cycles:             20,
		DerivativeBoundary: 16384,
		Height:             1680,
		InitMode:           InitAuto,
		MaxIterations:      1024,
		SampleDivisor:      2,
		Samples:            4,
		SetColor:           "0,0,0,255",
		Width:              1920,
		Zoom:               0.7,
	}
}

func (s *Settings) String() string {
	output := "\nRender settings\n"
	output += fmt.Sprintf("Size: %dx%d (%d bit)\n", s.Width, s.Height, s.BitDepth)
	output += fmt.Sprintf("Center: %v Zoom: %g Julia: %t %v\n", s.Center, s.Zoom, s.IsJulia, s.Julia)
	output += fmt.Sprintf("Iterations: %d Boundary: %g Derivative boundary: %g Cycles: %d\n", s.MaxIterations, s.Boundary, s.DerivativeBoundary, s.Cycles)
	output += fmt.Sprintf("Samples: %d Divisor: %g Seed: %d\n", s.Samples, s.SampleDivisor, s.Seed)
	output += fmt.Sprintf("Modes: fractal %s, init %s, domain %s, bail %s, color %s\n", s.FractalMode, s.InitMode, s.DomainMode, s.BailMode, s.ColorMode)
	return output
}

// Verify replaces values that cannot produce an image with defaults and
// parses the set color and palette. It must be called before the settings
// are handed to NewMandelbrot, and again after the settings crossed the wire.
func (s *Settings) Verify() error {
	s.logger = bslogger.NewLogger("RenderSettings", bslogger.Normal, nil)

	if s.BitDepth != 8 && s.BitDepth != 16 {
		s.logger.Warningf("Unsupported bit depth %d, using 8", s.BitDepth)
		s.BitDepth = 8
	}
	if s.Boundary <= 0 {
		s.Boundary = 64
	}
	if s.ColorExponent <= 0 {
		s.ColorExponent = 1
	}
	if s.Cycles < 1 {
		s.Cycles = 20
	}
	if s.DerivativeBoundary <= 0 {
		s.DerivativeBoundary = 16384
	}
	if s.Height <= 0 {
		s.Height = 1680
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = 1024
	}
	if s.SampleDivisor <= 0 {
		s.SampleDivisor = 2
	}
	if s.Samples < 1 {
		s.Samples = 1
	}
	if s.Threads <= 0 {
		s.Threads = runtime.GOMAXPROCS(0)
	}
	if s.Width <= 0 {
		s.Width = 1920
	}
	if s.Zoom <= 0 {
		s.Zoom = 0.7
	}

	if s.FractalMode < FractalMandelbrot || s.FractalMode > FractalPowerTower {
		s.logger.Warningf("Unknown fractal mode %d, using %s", s.FractalMode, FractalMandelbrot)
		s.FractalMode = FractalMandelbrot
	}
	// Every pixel of a julia set would start from the same point otherwise
	if s.InitMode == InitAuto {
		s.InitMode = InitConstant
		if s.IsJulia {
			s.InitMode = InitPixel
			s.logger.Info("Starting orbits at the pixel since IsJulia is set.")
		}
	}
	if s.InitMode < InitConstant || s.InitMode > InitPixel {
		s.logger.Warningf("Unknown init mode %d, using %s", s.InitMode, InitConstant)
		s.InitMode = InitConstant
	}
	if s.DomainMode < DomainIdentity || s.DomainMode > DomainInversion {
		s.logger.Warningf("Unknown domain mode %d, using %s", s.DomainMode, DomainIdentity)
		s.DomainMode = DomainIdentity
	}
	if s.BailMode < BailNorm || s.BailMode > BailDerivative {
		s.logger.Warningf("Unknown bail mode %d, using %s", s.BailMode, BailNorm)
		s.BailMode = BailNorm
	}
	if s.ColorMode < ColorHue || s.ColorMode > ColorPalette {
		s.logger.Warningf("Unknown color mode %d, using %s", s.ColorMode, ColorHue)
		s.ColorMode = ColorHue
	}

	if s.SetColor == "" {
		s.SetColor = "0,0,0,255"
	}
	interior, err := color.Parse(s.SetColor)
	if err != nil {
		return fmt.Errorf("set color: %w", err)
	}
	s.interior = interior

	palette := append([]string(nil), s.Palette...)
	for i := 0; i < len(s.GeneratePaletteSettings); i++ {
		generated, err := s.GeneratePaletteSettings[i].GeneratePalette()
		if err != nil {
			return fmt.Errorf("generated palette %d: %w", i, err)
		}
		palette = append(palette, generated...)
	}
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	s.gradient, err = ParsePalette(palette)
	if err != nil {
		return err
	}

	if s.ColorMode == ColorTexture && s.Texture == "" {
		return errors.New("color mode texture needs a texture file")
	}

	return nil
}

// Interior is the parsed set color used for points that never escape.
func (s *Settings) Interior() color.Color {
	return s.interior
}

// Gradient is the parsed palette used by the palette color mode.
func (s *Settings) Gradient() []colorful.Color {
	return s.gradient
}
