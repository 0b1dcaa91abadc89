package misc

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func LerpFloat64(v1 float64, v2 float64, fraction float64) float64 {
	return v1 + (v2-v1)*fraction
}

// LerpLog interpolates between two positive values on a log scale so zooms
// move at a constant rate.
func LerpLog(v1 float64, v2 float64, fraction float64) float64 {
	return math.Exp(LerpFloat64(math.Log(v1), math.Log(v2), fraction))
}

func EaseOutExpo(t float64) float64 {
	if t >= 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*t)
}

func EaseInExpo(t float64) float64 {
	if t <= 0 {
		return 0
	}
	return math.Pow(2, 10*t-10)
}

// ImageFormats lists the extensions SaveImage understands.
var ImageFormats = []string{"png", "jpg", "jpeg", "tif", "tiff", "bmp"}

// SaveImage encodes img in the format named by the extension of fileName.
func SaveImage(fileName string, img image.Image) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))

	var encode func(f *os.File) error
	switch ext {
	case "png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case "jpg", "jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, img, &jpeg.Options{Quality: 95}) }
	case "tif", "tiff":
		encode = func(f *os.File) error {
			return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		}
	case "bmp":
		encode = func(f *os.File) error { return bmp.Encode(f, img) }
	default:
		return fmt.Errorf("unknown image format %q", ext)
	}

	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("unable to create image %s - %w", fileName, err)
	}
	if err = encode(f); err != nil {
		f.Close()
		return fmt.Errorf("unable to encode image %s - %w", fileName, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("unable to close image %s - %w", fileName, err)
	}
	return nil
}

// LoadTexture decodes an image file. Images with a side longer than maxSide
// are scaled down to fit, keeping their aspect ratio. A maxSide of zero
// keeps the original size.
func LoadTexture(fileName string, maxSide int) (image.Image, error) {
	if fileName == "" {
		return nil, errors.New("no texture supplied")
	}
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("unable to open texture %s - %w", fileName, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode texture %s - %w", fileName, err)
	}

	bounds := img.Bounds()
	longest := max(bounds.Dx(), bounds.Dy())
	if maxSide <= 0 || longest <= maxSide {
		return img, nil
	}

	scale := float64(maxSide) / float64(longest)
	rect := image.Rect(0, 0, max(1, int(float64(bounds.Dx())*scale)), max(1, int(float64(bounds.Dy())*scale)))
	dst := image.NewNRGBA(rect)
	xdraw.CatmullRom.Scale(dst, rect, img, bounds, xdraw.Src, nil)
	return dst, nil
}
