// Package color provides the tagged floating point color used by the renderer,
// the conversions between its color spaces and the operators that combine
// colors of different spaces.
package color

import (
	"errors"
	"fmt"
	stdcolor "image/color"
	"math"
	"strconv"
	"strings"
)

// Space is the color space a Color's channels are expressed in.
type Space uint8

const (
	// Linear is linear light RGB plus alpha.
	Linear Space = iota
	// SRGB is gamma encoded RGB plus alpha.
	SRGB
	// HSV is hue (degrees), saturation, value plus alpha.
	HSV
)

func (s Space) String() string {
	switch s {
	case Linear:
		return "Linear"
	case SRGB:
		return "SRGB"
	case HSV:
		return "HSV"
	}
	return "Unknown"
}

// Color is four float channels tagged with the space they are in.
// For Linear and SRGB the channels are r, g, b, a; for HSV they are h, s, v, a.
type Color struct {
	Ch    [4]float64
	Space Space
}

// New returns a color in the given space.
func New(space Space, c0, c1, c2, alpha float64) Color {
	return Color{Ch: [4]float64{c0, c1, c2, alpha}, Space: space}
}

// RGBA returns a linear color.
func RGBA(r, g, b, a float64) Color {
	return New(Linear, r, g, b, a)
}

// HSVA returns a color in HSV space.
func HSVA(h, s, v, a float64) Color {
	return New(HSV, h, s, v, a)
}

// Zero returns a color with all channels zero in the given space.
func Zero(space Space) Color {
	return Color{Space: space}
}

func (c Color) String() string {
	return fmt.Sprintf("{%s %g %g %g %g}", c.Space, c.Ch[0], c.Ch[1], c.Ch[2], c.Ch[3])
}

// Transfer is the sRGB transfer function written with exact rational constants.
// With inverse set it decodes a gamma encoded value to linear, otherwise it
// encodes a linear value.
func Transfer(value float64, inverse bool) float64 {
	if inverse {
		if value <= 0.04045 {
			return 25 * value / 323
		}
		return math.Pow((200*value+11)/211, 12.0/5.0)
	}
	if value <= 0.0031308 {
		return 323 * value / 25
	}
	return (211*math.Pow(value, 5.0/12.0) - 11) / 200
}

// hsvChannel evaluates one RGB channel of an HSV color, n is 5, 3 or 1 for r, g, b.
func hsvChannel(h, s, v, n float64) float64 {
	k := math.Mod(n+h/60, 6)
	return v - v*s*math.Max(0, math.Min(k, math.Min(4-k, 1)))
}

// HSVToRGB converts hue, saturation and value to linear RGB. Alpha passes through.
func HSVToRGB(h, s, v, a float64) Color {
	h = math.Mod(h, 360)
	return RGBA(hsvChannel(h, s, v, 5), hsvChannel(h, s, v, 3), hsvChannel(h, s, v, 1), a)
}

// RGBToHSV converts red, green and blue to hue, saturation and value.
// When more than one channel holds the maximum the first of r, g, b wins.
func RGBToHSV(r, g, b, a float64) Color {
	v := math.Max(r, math.Max(g, b))
	c := v - math.Min(r, math.Min(g, b))

	var h float64
	if c != 0 {
		switch v {
		case r:
			h = 60 * (0 + (g-b)/c)
		case g:
			h = 60 * (2 + (b-r)/c)
		case b:
			h = 60 * (4 + (r-g)/c)
		}
	}

	var s float64
	if v != 0 {
		s = c / v
	}
	return HSVA(h, s, v, a)
}

// ToLinear converts c to linear RGB.
func (c Color) ToLinear() Color {
	switch c.Space {
	case SRGB:
		return RGBA(Transfer(c.Ch[0], true), Transfer(c.Ch[1], true), Transfer(c.Ch[2], true), Transfer(c.Ch[3], true))
	case HSV:
		return HSVToRGB(c.Ch[0], c.Ch[1], c.Ch[2], c.Ch[3])
	}
	return c
}

// ToSRGB converts c to gamma encoded RGB.
//
// The alpha channel goes through the decoding branch of the transfer
// function, not the encoding one. Renders depend on this, keep it.
func (c Color) ToSRGB() Color {
	switch c.Space {
	case SRGB:
		return c
	case HSV:
		c = c.ToLinear()
	}
	return New(SRGB, Transfer(c.Ch[0], false), Transfer(c.Ch[1], false), Transfer(c.Ch[2], false), Transfer(c.Ch[3], true))
}

// ToHSV converts c to hue, saturation and value.
func (c Color) ToHSV() Color {
	switch c.Space {
	case HSV:
		return c
	case SRGB:
		c = c.ToLinear()
	}
	return RGBToHSV(c.Ch[0], c.Ch[1], c.Ch[2], c.Ch[3])
}

// To converts c to the given space. SRGB and HSV convert through Linear.
func (c Color) To(space Space) Color {
	switch space {
	case SRGB:
		return c.ToSRGB()
	case HSV:
		return c.ToHSV()
	}
	return c.ToLinear()
}

// Coerce returns o converted into c's space. Every binary operator applies it
// to its right operand, so the result always carries the left operand's space.
func (c Color) Coerce(o Color) Color {
	if o.Space == c.Space {
		return o
	}
	return o.To(c.Space)
}

// Add adds o, coerced into c's space, channel-wise.
func (c Color) Add(o Color) Color {
	o = c.Coerce(o)
	for i := range c.Ch {
		c.Ch[i] += o.Ch[i]
	}
	return c
}

// Sub subtracts o, coerced into c's space, channel-wise.
func (c Color) Sub(o Color) Color {
	o = c.Coerce(o)
	for i := range c.Ch {
		c.Ch[i] -= o.Ch[i]
	}
	return c
}

// Mul multiplies by o, coerced into c's space, channel-wise.
func (c Color) Mul(o Color) Color {
	o = c.Coerce(o)
	for i := range c.Ch {
		c.Ch[i] *= o.Ch[i]
	}
	return c
}

// Square multiplies c by itself.
func (c Color) Square() Color {
	return c.Mul(c)
}

// AddScalar adds v to all four channels.
func (c Color) AddScalar(v float64) Color {
	for i := range c.Ch {
		c.Ch[i] += v
	}
	return c
}

// SubScalar subtracts v from all four channels.
func (c Color) SubScalar(v float64) Color {
	for i := range c.Ch {
		c.Ch[i] -= v
	}
	return c
}

// MulScalar multiplies all four channels by v.
func (c Color) MulScalar(v float64) Color {
	for i := range c.Ch {
		c.Ch[i] *= v
	}
	return c
}

// DivScalar divides all four channels by v.
func (c Color) DivScalar(v float64) Color {
	for i := range c.Ch {
		c.Ch[i] /= v
	}
	return c
}

// Sqrt takes the square root of every channel.
func (c Color) Sqrt() Color {
	for i := range c.Ch {
		c.Ch[i] = math.Sqrt(c.Ch[i])
	}
	return c
}

// NRGBA scales the channels to 8 bits, clamping to the valid range.
// The space is not converted.
func (c Color) NRGBA() stdcolor.NRGBA {
	return stdcolor.NRGBA{
		R: uint8(scale(c.Ch[0], math.MaxUint8)),
		G: uint8(scale(c.Ch[1], math.MaxUint8)),
		B: uint8(scale(c.Ch[2], math.MaxUint8)),
		A: uint8(scale(c.Ch[3], math.MaxUint8)),
	}
}

// NRGBA64 scales the channels to 16 bits, clamping to the valid range.
// The space is not converted.
func (c Color) NRGBA64() stdcolor.NRGBA64 {
	return stdcolor.NRGBA64{
		R: uint16(scale(c.Ch[0], math.MaxUint16)),
		G: uint16(scale(c.Ch[1], math.MaxUint16)),
		B: uint16(scale(c.Ch[2], math.MaxUint16)),
		A: uint16(scale(c.Ch[3], math.MaxUint16)),
	}
}

// scale maps [0,1] to [0,limit] truncating; NaN maps to 0.
func scale(v float64, limit float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return limit
	}
	return math.Floor(v * limit)
}

// FromStd converts any image color to a linear Color with channels in [0,1],
// taking the stored values as they are.
func FromStd(c stdcolor.Color) Color {
	n := stdcolor.NRGBA64Model.Convert(c).(stdcolor.NRGBA64)
	return RGBA(
		float64(n.R)/math.MaxUint16,
		float64(n.G)/math.MaxUint16,
		float64(n.B)/math.MaxUint16,
		float64(n.A)/math.MaxUint16,
	)
}

// Parse reads a color written as four comma separated 8-bit channels,
// "r,g,b,a", and returns it as a linear color in [0,1].
func Parse(s string) (Color, error) {
	if strings.TrimSpace(s) == "" {
		return Color{}, errors.New("empty color")
	}
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return Color{}, fmt.Errorf("color %q has %d channels, want 4", s, len(fields))
	}

	var c Color
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Color{}, fmt.Errorf("color %q channel %d: %w", s, i, err)
		}
		c.Ch[i] = v / math.MaxUint8
	}
	c.Space = Linear
	return c, nil
}
