package mandelbrot

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette is used by the palette color mode when the settings name no
// colors.
var DefaultPalette = []string{
	"#000764",
	"#206bcb",
	"#edffff",
	"#ffaa00",
	"#000200",
}

// GeneratePaletteSettings describes a run of NumberColors colors blended from
// StartColor towards EndColor. Colors are hex strings such as "#ff8800".
type GeneratePaletteSettings struct {
	StartColor   string
	EndColor     string
	NumberColors int
}

// GeneratePalette returns the run as hex colors. EndColor itself is not
// part of the run so consecutive runs can share their boundary color.
func (gps *GeneratePaletteSettings) GeneratePalette() ([]string, error) {
	start, err := colorful.Hex(gps.StartColor)
	if err != nil {
		return nil, fmt.Errorf("start color %q: %w", gps.StartColor, err)
	}
	end, err := colorful.Hex(gps.EndColor)
	if err != nil {
		return nil, fmt.Errorf("end color %q: %w", gps.EndColor, err)
	}

	palette := make([]string, 0, gps.NumberColors)
	for j := 0; j < gps.NumberColors; j++ {
		fraction := float64(j) / float64(gps.NumberColors)
		palette = append(palette, start.BlendLab(end, fraction).Clamped().Hex())
	}
	return palette, nil
}

// ParsePalette decodes hex colors.
func ParsePalette(hex []string) ([]colorful.Color, error) {
	palette := make([]colorful.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("palette color %d: %w", i, err)
		}
		palette[i] = c
	}
	return palette, nil
}
