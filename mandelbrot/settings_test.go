package mandelbrot

import (
	"testing"

	"fracgen/color"
)

func TestVerifyDefaults(t *testing.T) {
	var s Settings
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if s.Width != 1920 || s.Height != 1680 {
		t.Errorf("size = %dx%d, want 1920x1680", s.Width, s.Height)
	}
	if s.MaxIterations != 1024 || s.Boundary != 64 || s.DerivativeBoundary != 16384 {
		t.Errorf("limits = %d %v %v", s.MaxIterations, s.Boundary, s.DerivativeBoundary)
	}
	if s.Samples != 1 || s.SampleDivisor != 2 || s.Cycles != 20 {
		t.Errorf("sampling = %d %v %d", s.Samples, s.SampleDivisor, s.Cycles)
	}
	if s.Zoom != 0.7 || s.ColorExponent != 1 || s.BitDepth != 8 {
		t.Errorf("zoom %v exponent %v depth %d", s.Zoom, s.ColorExponent, s.BitDepth)
	}
	if s.Threads < 1 {
		t.Errorf("Threads = %d", s.Threads)
	}
	diff(t, color.RGBA(0, 0, 0, 1), s.Interior())
	if len(s.Gradient()) != len(DefaultPalette) {
		t.Errorf("gradient has %d colors, want %d", len(s.Gradient()), len(DefaultPalette))
	}
}

func TestVerifyRepairsModes(t *testing.T) {
	s := DefaultSettings()
	s.FractalMode = 9
	s.InitMode = -2
	s.DomainMode = 4
	s.BailMode = 3
	s.ColorMode = 6
	s.BitDepth = 12
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if s.FractalMode != FractalMandelbrot || s.InitMode != InitConstant || s.DomainMode != DomainIdentity ||
		s.BailMode != BailNorm || s.ColorMode != ColorHue {
		t.Errorf("modes not repaired: %s", s.String())
	}
	if s.BitDepth != 8 {
		t.Errorf("BitDepth = %d, want 8", s.BitDepth)
	}
}

func TestVerifyKeepsValidValues(t *testing.T) {
	s := DefaultSettings()
	s.BitDepth = 16
	s.Width = 3
	s.Height = 5
	s.Samples = 9
	s.BailMode = BailDerivative
	s.ColorMode = ColorCosineRoot
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if s.BitDepth != 16 || s.Width != 3 || s.Height != 5 || s.Samples != 9 {
		t.Errorf("valid values changed: %s", s.String())
	}
	if s.BailMode != BailDerivative || s.ColorMode != ColorCosineRoot {
		t.Errorf("valid modes changed: %s", s.String())
	}
}

func TestVerifyErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Settings)
	}{
		{"set color channels", func(s *Settings) { s.SetColor = "0,0,0" }},
		{"set color token", func(s *Settings) { s.SetColor = "0,zero,0,255" }},
		{"palette", func(s *Settings) { s.Palette = []string{"#00ff00", "green"} }},
		{"generated palette", func(s *Settings) {
			s.GeneratePaletteSettings = []GeneratePaletteSettings{{StartColor: "#000000", EndColor: "#12", NumberColors: 4}}
		}},
		{"texture", func(s *Settings) { s.ColorMode = ColorTexture }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			if err := s.Verify(); err == nil {
				t.Error("Verify succeeded, want error")
			}
		})
	}
}

func TestGeneratePalette(t *testing.T) {
	gps := GeneratePaletteSettings{StartColor: "#000000", EndColor: "#ffffff", NumberColors: 4}
	palette, err := gps.GeneratePalette()
	if err != nil {
		t.Fatalf("GeneratePalette: %v", err)
	}
	if len(palette) != 4 {
		t.Fatalf("got %d colors, want 4", len(palette))
	}
	if palette[0] != "#000000" {
		t.Errorf("first color = %s, want the start color", palette[0])
	}

	s := DefaultSettings()
	s.Palette = []string{"#ff0000"}
	s.GeneratePaletteSettings = []GeneratePaletteSettings{gps}
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(s.Gradient()) != 5 {
		t.Errorf("gradient has %d colors, want 5", len(s.Gradient()))
	}
}
