package misc

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/google/go-cmp/cmp"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

func TestSaveImageLossless(t *testing.T) {
	dir := t.TempDir()
	want := testImage()

	for _, ext := range []string{"png", "tiff", "bmp"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "out."+ext)
			if err := SaveImage(path, want); err != nil {
				t.Fatalf("SaveImage: %v", err)
			}
			got, err := LoadTexture(path, 0)
			if err != nil {
				t.Fatalf("LoadTexture: %v", err)
			}
			if got.Bounds() != want.Bounds() {
				t.Fatalf("bounds = %v, want %v", got.Bounds(), want.Bounds())
			}
			for y := 0; y < 4; y++ {
				for x := 0; x < 6; x++ {
					g := color.NRGBAModel.Convert(got.At(x, y))
					if d := cmp.Diff(want.NRGBAAt(x, y), g); d != "" {
						t.Fatalf("pixel %d,%d: %s", x, y, d)
					}
				}
			}
		})
	}
}

func TestSaveImageJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.JPG")
	if err := SaveImage(path, testImage()); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	got, err := LoadTexture(path, 0)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if got.Bounds() != testImage().Bounds() {
		t.Errorf("bounds = %v", got.Bounds())
	}
}

func TestSaveImageUnknownFormat(t *testing.T) {
	if err := SaveImage(filepath.Join(t.TempDir(), "out.xcf"), testImage()); err == nil {
		t.Error("SaveImage accepted an unknown format")
	}
}

func TestLoadTextureDownsamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	big := image.NewNRGBA(image.Rect(0, 0, 64, 16))
	if err := SaveImage(path, big); err != nil {
		t.Fatal(err)
	}

	got, err := LoadTexture(path, 32)
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	if got.Bounds() != image.Rect(0, 0, 32, 8) {
		t.Errorf("bounds = %v, want 32x8", got.Bounds())
	}
}

func TestLoadTextureErrors(t *testing.T) {
	if _, err := LoadTexture("", 0); err == nil {
		t.Error("LoadTexture accepted an empty name")
	}
	if _, err := LoadTexture(filepath.Join(t.TempDir(), "missing.png"), 0); err == nil {
		t.Error("LoadTexture accepted a missing file")
	}
	path := filepath.Join(t.TempDir(), "garbage.png")
	if _, err := WriteFile(path, []byte("not an image")); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTexture(path, 0); err == nil {
		t.Error("LoadTexture decoded garbage")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type settings struct {
		Name  string
		Count int
		Keep  float64
	}
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := WriteJSON(path, settings{Name: "run", Count: 3}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	got := settings{Keep: 0.5}
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	// Keep is written as 0 and overrides the default
	if d := cmp.Diff(settings{Name: "run", Count: 3}, got); d != "" {
		t.Error(d)
	}

	if _, err := ReadFile(""); err == nil {
		t.Error("ReadFile accepted an empty name")
	}
	if err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &got); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadJSON on a missing file = %v, want not exist", err)
	}
}

func TestLerp(t *testing.T) {
	if got := LerpFloat64(2, 6, 0.25); got != 3 {
		t.Errorf("LerpFloat64 = %v, want 3", got)
	}
	if got := LerpLog(1, 100, 0.5); math.Abs(got-10) > 1e-9 {
		t.Errorf("LerpLog = %v, want 10", got)
	}
	if EaseOutExpo(1) != 1 || EaseInExpo(0) != 0 {
		t.Error("easing does not hit its end points")
	}
}

func TestCheckError(t *testing.T) {
	logger := bslogger.NewLogger("Test", bslogger.Normal, nil)
	if CheckError(nil, logger, Warning) {
		t.Error("CheckError reported a nil error")
	}
	if !CheckError(errors.New("boom"), logger, Info) {
		t.Error("CheckError missed an error")
	}
}

func TestGetFreePort(t *testing.T) {
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("GetFreePort: %v", err)
	}
	if port <= 0 || port > 65535 {
		t.Errorf("port = %d", port)
	}
	if GetLocalAddress() == "" {
		t.Error("GetLocalAddress returned nothing")
	}
}
