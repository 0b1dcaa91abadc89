package render

import (
	"image"
	"math"
	"testing"

	"fracgen/color"
	"fracgen/mandelbrot"
	"fracgen/parallel"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func testSettings(t *testing.T, modify func(s *mandelbrot.Settings)) mandelbrot.Settings {
	t.Helper()
	s := mandelbrot.DefaultSettings()
	s.Width = 12
	s.Height = 8
	s.MaxIterations = 200
	s.Seed = 7
	if modify != nil {
		modify(&s)
	}
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return s
}

func newTestRenderer(t *testing.T, executor parallel.Executor, modify func(s *mandelbrot.Settings), opts ...Option) *Renderer {
	t.Helper()
	s := testSettings(t, modify)
	return NewRenderer(s, mandelbrot.NewFunctions(s), executor, opts...)
}

// within reports whether two 8 bit images differ by at most one step per channel.
func within(a, b *image.NRGBA) bool {
	if a.Rect != b.Rect {
		return false
	}
	for i := range a.Pix {
		if d := int(a.Pix[i]) - int(b.Pix[i]); d < -1 || d > 1 {
			return false
		}
	}
	return true
}

func TestProgressiveAccumulation(t *testing.T) {
	for _, mode := range []mandelbrot.ColorMode{mandelbrot.ColorHue, mandelbrot.ColorNormalMap, mandelbrot.ColorCosine} {
		t.Run(mode.String(), func(t *testing.T) {
			modify := func(s *mandelbrot.Settings) { s.ColorMode = mode }
			split := newTestRenderer(t, nil, modify, WithSampler(NewCenterSampler))
			whole := newTestRenderer(t, nil, modify, WithSampler(NewCenterSampler))

			split.RenderSamples(2)
			split.RenderSamples(3)
			whole.RenderSamples(5)

			if split.Samples() != 5 || whole.Samples() != 5 {
				t.Fatalf("samples = %d and %d, want 5", split.Samples(), whole.Samples())
			}
			diff(t, whole.Buffer(), split.Buffer(), cmpopts.EquateApprox(1e-12, 1e-12))
			if !within(whole.Finalize(), split.Finalize()) {
				t.Error("finalized images differ")
			}
		})
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	r := newTestRenderer(t, nil, nil)
	r.RenderSamples(2)

	before := r.Buffer()
	diff(t, r.Finalize(), r.Finalize())
	diff(t, r.Finalize16(), r.Finalize16())
	diff(t, before, r.Buffer())
}

func TestFinalizeWithoutSamples(t *testing.T) {
	r := newTestRenderer(t, nil, nil)
	img := r.Finalize()
	for i, v := range img.Pix {
		if v != 0 {
			t.Fatalf("Pix[%d] = %d, want transparent black", i, v)
		}
	}
}

func TestResizeClearsState(t *testing.T) {
	r := newTestRenderer(t, nil, nil)
	r.RenderSamples(2)

	r.Resize(5, 9)
	if r.Samples() != 0 {
		t.Errorf("Samples() = %d after resize", r.Samples())
	}
	buffer := r.Buffer()
	if len(buffer) != 5*9 {
		t.Fatalf("buffer has %d cells, want %d", len(buffer), 5*9)
	}
	for i, c := range buffer {
		diff(t, color.Zero(color.SRGB), c)
		if t.Failed() {
			t.Fatalf("cell %d not cleared", i)
		}
	}
	if got := r.Finalize().Bounds(); got != image.Rect(0, 0, 5, 9) {
		t.Errorf("image bounds = %v", got)
	}

	r.RenderSamples(1)
	if r.Samples() != 1 {
		t.Errorf("Samples() = %d after rendering the resized image", r.Samples())
	}
}

func TestUpdateSettingsClearsUpdateFunctionsKeeps(t *testing.T) {
	r := newTestRenderer(t, nil, nil)
	r.RenderSamples(2)

	other := testSettings(t, func(s *mandelbrot.Settings) { s.ColorMode = mandelbrot.ColorCosine })
	r.UpdateFunctions(mandelbrot.NewFunctions(other))
	if r.Samples() != 2 {
		t.Errorf("UpdateFunctions changed the sample count to %d", r.Samples())
	}

	r.UpdateSettings(other)
	if r.Samples() != 0 {
		t.Errorf("UpdateSettings kept %d samples", r.Samples())
	}
	for _, c := range r.Buffer() {
		if c != color.Zero(color.SRGB) {
			t.Fatalf("UpdateSettings kept buffer cell %v", c)
		}
	}
}

func TestMerge(t *testing.T) {
	a := newTestRenderer(t, nil, nil)
	b := newTestRenderer(t, nil, nil)
	a.RenderSamples(2)
	b.Seed(99)
	b.RenderSamples(3)

	want := a.Buffer()
	for i, c := range b.Buffer() {
		want[i] = want[i].Add(c)
	}
	if err := a.Merge(b.Buffer(), b.Samples()); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if a.Samples() != 5 {
		t.Errorf("Samples() = %d, want 5", a.Samples())
	}
	diff(t, want, a.Buffer())

	if err := a.Merge(make([]color.Color, 3), 1); err == nil {
		t.Error("Merge accepted a buffer of the wrong size")
	}
}

func TestSeededRendersRepeat(t *testing.T) {
	a := newTestRenderer(t, nil, nil)
	b := newTestRenderer(t, nil, nil)
	a.RenderSamples(3)
	b.RenderSamples(3)
	diff(t, a.Buffer(), b.Buffer())

	// A second pass draws different jitter than the first
	first := a.Buffer()
	a.Reset()
	a.RenderSamples(3)
	diff(t, first, a.Buffer())
	a.RenderSamples(3)
	again := a.Buffer()
	for i := range again {
		again[i] = again[i].Sub(first[i])
	}
	if cmp.Equal(first, again, cmpopts.EquateApprox(0, 1e-12)) {
		t.Error("second pass repeated the jitter of the first")
	}
}

func TestExecutorsAgree(t *testing.T) {
	serial := newTestRenderer(t, nil, nil)
	serial.RenderSamples(4)

	for _, kind := range []string{"pool", "group"} {
		executor, err := parallel.New(kind, 3)
		if err != nil {
			t.Fatal(err)
		}
		r := newTestRenderer(t, executor, nil)
		r.RenderSamples(4)
		diff(t, serial.Buffer(), r.Buffer())
		diff(t, serial.Finalize(), r.Finalize())
		executor.Close()
	}
}

func TestInteriorIsSetColor(t *testing.T) {
	tests := []struct {
		setColor string
		want     uint8
	}{
		{"255,255,255,255", 255},
		{"51,51,51,255", 51},
	}

	for _, tt := range tests {
		t.Run(tt.setColor, func(t *testing.T) {
			r := newTestRenderer(t, nil, func(s *mandelbrot.Settings) {
				s.Center = mandelbrot.Point{X: 0, Y: 0}
				s.Zoom = 1e6
				s.SetColor = tt.setColor
			})
			r.RenderSamples(2)

			pix := r.Finalize().Pix
			for i := 0; i < len(pix); i += 4 {
				if got := pix[i : i+3]; got[0] != tt.want || got[1] != tt.want || got[2] != tt.want {
					t.Fatalf("pixel %d = %v, want %d", i/4, got, tt.want)
				}
				if pix[i+3] != 255 {
					t.Fatalf("alpha %d = %d, want 255", i/4, pix[i+3])
				}
			}
		})
	}
}

func TestEscapedPixelsAreOpaque(t *testing.T) {
	// Far outside the set every sample escapes at once
	r := newTestRenderer(t, nil, func(s *mandelbrot.Settings) {
		s.Center = mandelbrot.Point{X: 100, Y: 100}
		s.Zoom = 1e3
		s.ColorMode = mandelbrot.ColorHue
	})
	r.RenderSamples(1)

	img := r.Finalize()
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 255 {
			t.Fatalf("alpha %d = %d", i/4, img.Pix[i])
		}
	}
}

func TestProgress(t *testing.T) {
	r := newTestRenderer(t, nil, nil)
	if done, total := r.Progress(); done != 0 || total != 0 {
		t.Errorf("Progress() = %d, %d before rendering", done, total)
	}
	r.RenderSamples(1)
	if done, total := r.Progress(); done != 12*8 || total != 12*8 {
		t.Errorf("Progress() = %d, %d, want %d", done, total, 12*8)
	}
}

func TestImageBitDepth(t *testing.T) {
	r := newTestRenderer(t, nil, func(s *mandelbrot.Settings) { s.BitDepth = 16 })
	r.RenderSamples(1)
	if _, ok := r.Image().(*image.NRGBA64); !ok {
		t.Errorf("Image() = %T, want *image.NRGBA64", r.Image())
	}

	r.UpdateSettings(testSettings(t, nil))
	if _, ok := r.Image().(*image.NRGBA); !ok {
		t.Errorf("Image() = %T, want *image.NRGBA", r.Image())
	}
}

func TestRandomSamplerRange(t *testing.T) {
	s := NewRandomSampler(1, 2, 3)
	for range 1000 {
		if v := s.Jitter(); v < -1 || v >= 1 || math.IsNaN(v) {
			t.Fatalf("Jitter() = %v", v)
		}
	}
}
