// Package render accumulates multi-sampled escape time renders and turns the
// accumulated energy into images.
package render

import (
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"fracgen/color"
	"fracgen/mandelbrot"
	"fracgen/parallel"

	"github.com/BrugadaSyndrome/bslogger"
)

type Option func(r *Renderer)

// WithSampler replaces the random jitter source.
func WithSampler(sampler SamplerFunc) Option {
	return func(r *Renderer) {
		r.sampler = sampler
	}
}

// WithTexture supplies the image read by the texture color mode.
func WithTexture(texture image.Image) Option {
	return func(r *Renderer) {
		r.texture = texture
	}
}

// Renderer owns an accumulation buffer that every call to RenderSamples adds
// to. The buffer holds, per pixel, the sum of the squared gamma encoded
// colors of all samples so far.
//
// A Renderer is not safe for concurrent use: RenderSamples, Merge, Reset,
// Resize and the Update methods must not overlap. Progress may be called
// from any goroutine.
type Renderer struct {
	logger bslogger.Logger

	executor   parallel.Executor
	functions  mandelbrot.Functions
	mandelbrot *mandelbrot.Mandelbrot
	sampler    SamplerFunc
	settings   mandelbrot.Settings
	texture    image.Image

	buffer  []color.Color
	pass    uint64
	samples int
	seed    uint64

	done  atomic.Int64
	total atomic.Int64
}

// NewRenderer builds a renderer with an empty buffer. settings must have
// been verified. A nil executor renders on the calling goroutine.
func NewRenderer(settings mandelbrot.Settings, functions mandelbrot.Functions, executor parallel.Executor, opts ...Option) *Renderer {
	if executor == nil {
		executor = parallel.Serial{}
	}
	r := &Renderer{
		logger:    bslogger.NewLogger("Renderer", bslogger.Normal, nil),
		executor:  executor,
		functions: functions,
		sampler:   NewRandomSampler,
		settings:  settings,
		seed:      settings.Seed,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.rebuild()
	r.clear()
	return r
}

func (r *Renderer) rebuild() {
	r.mandelbrot = mandelbrot.NewMandelbrot(r.settings, r.functions, r.texture)
}

func (r *Renderer) clear() {
	size := r.settings.Width * r.settings.Height
	if cap(r.buffer) >= size {
		r.buffer = r.buffer[:size]
	} else {
		r.buffer = make([]color.Color, size)
	}
	for i := range r.buffer {
		r.buffer[i] = color.Zero(color.SRGB)
	}
	r.samples = 0
	r.pass = 0
}

// RenderSamples draws n more jittered samples for every pixel and adds them
// to the buffer. It returns once the whole image has been sampled.
func (r *Renderer) RenderSamples(n int) {
	if n <= 0 {
		return
	}
	start := time.Now()
	width, height := r.settings.Width, r.settings.Height
	pixels := width * height

	r.done.Store(0)
	r.total.Store(int64(pixels))

	slots := make([]color.Color, pixels)
	pass := r.pass
	r.executor.Map(pixels, func(i int) {
		sampler := r.sampler(r.seed, pass, i)
		slots[i] = r.mandelbrot.Pixel(i%width, i/width, n, sampler)
		r.done.Add(1)
	})

	for i, sum := range slots {
		r.buffer[i] = r.buffer[i].Add(sum)
	}
	r.samples += n
	r.pass++

	r.logger.Infof("Rendered %d samples of %dx%d in %s (%d total)", n, width, height, time.Since(start), r.samples)
}

// Merge adds a buffer rendered elsewhere with the same settings. samples is
// the number of samples that buffer holds.
func (r *Renderer) Merge(buffer []color.Color, samples int) error {
	if len(buffer) != len(r.buffer) {
		return fmt.Errorf("buffer has %d pixels, renderer has %d", len(buffer), len(r.buffer))
	}
	for i := range buffer {
		r.buffer[i] = r.buffer[i].Add(buffer[i])
	}
	r.samples += samples
	return nil
}

// Buffer returns a copy of the accumulation buffer.
func (r *Renderer) Buffer() []color.Color {
	return append([]color.Color(nil), r.buffer...)
}

// Samples is the number of samples accumulated per pixel.
func (r *Renderer) Samples() int {
	return r.samples
}

// Progress reports how many pixels of the current pass are done.
func (r *Renderer) Progress() (int, int) {
	return int(r.done.Load()), int(r.total.Load())
}

// Reset empties the buffer.
func (r *Renderer) Reset() {
	r.clear()
}

// Seed changes the jitter seed and restarts the pass numbering.
func (r *Renderer) Seed(seed uint64) {
	r.seed = seed
	r.pass = 0
}

func (r *Renderer) Settings() mandelbrot.Settings {
	return r.settings
}

// Resize changes the image size and empties the buffer.
func (r *Renderer) Resize(width int, height int) {
	r.settings.Width = width
	r.settings.Height = height
	r.rebuild()
	r.clear()
}

// UpdateSettings replaces the settings and empties the buffer. settings
// must have been verified.
func (r *Renderer) UpdateSettings(settings mandelbrot.Settings) {
	r.settings = settings
	r.seed = settings.Seed
	r.rebuild()
	r.clear()
}

// UpdateFunctions swaps the strategies. The buffer is kept so a render can
// continue with different functions.
func (r *Renderer) UpdateFunctions(functions mandelbrot.Functions) {
	r.functions = functions
	r.rebuild()
}

// mean returns the root mean square color of pixel i in linear space.
func (r *Renderer) mean(i int) color.Color {
	return r.buffer[i].DivScalar(float64(r.samples)).ToLinear().Sqrt()
}

// Finalize turns the buffer into an 8 bit image. The buffer is not changed.
// Before any samples are rendered every pixel is transparent black.
func (r *Renderer) Finalize() *image.NRGBA {
	width := r.settings.Width
	img := image.NewNRGBA(image.Rect(0, 0, width, r.settings.Height))
	r.executor.Map(len(r.buffer), func(i int) {
		img.SetNRGBA(i%width, i/width, r.mean(i).NRGBA())
	})
	return img
}

// Finalize16 is Finalize with 16 bits per channel.
func (r *Renderer) Finalize16() *image.NRGBA64 {
	width := r.settings.Width
	img := image.NewNRGBA64(image.Rect(0, 0, width, r.settings.Height))
	r.executor.Map(len(r.buffer), func(i int) {
		img.SetNRGBA64(i%width, i/width, r.mean(i).NRGBA64())
	})
	return img
}

// Image finalizes at the bit depth of the settings.
func (r *Renderer) Image() image.Image {
	if r.settings.BitDepth == 16 {
		return r.Finalize16()
	}
	return r.Finalize()
}
