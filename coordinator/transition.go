package coordinator

import (
	"math"

	"fracgen/mandelbrot"
	"fracgen/misc"
)

// TransitionSettings moves the view from one center and magnification to
// another over FrameCount frames. The magnification is the zoom of the
// render settings.
type TransitionSettings struct {
	EndX               float64
	EndY               float64
	FrameCount         uint
	MagnificationStart float64
	MagnificationEnd   float64
	MagnificationStep  float64
	StartX             float64
	StartY             float64
}

func (ts *TransitionSettings) Verify() error {
	if ts.StartX < -4 || ts.StartX > 4 {
		ts.StartX = 0
	}
	if ts.StartY < -4 || ts.StartY > 4 {
		ts.StartY = 0
	}
	if ts.EndX < -4 || ts.EndX > 4 {
		ts.EndX = 0
	}
	if ts.EndY < -4 || ts.EndY > 4 {
		ts.EndY = 0
	}
	if ts.MagnificationEnd <= 0 {
		ts.MagnificationEnd = 1.5
	}
	if ts.MagnificationStart <= 0 {
		ts.MagnificationStart = 0.5
	}
	if ts.MagnificationStep <= 1 {
		ts.MagnificationStep = 1.1
	}

	/*
	 * Each frame multiplies (or divides) the magnification by the step, so
	 *
	 * start * step^n = end
	 * n = log(end / start) / log(step)
	 */
	if ts.FrameCount == 0 {
		n := math.Abs(math.Log(ts.MagnificationEnd/ts.MagnificationStart)) / math.Log(ts.MagnificationStep)
		ts.FrameCount = uint(math.Max(1, math.Ceil(n)+1))
	}
	return nil
}

// Frames returns the render settings of every frame of the transition.
// Zooming in eases out of the start position, zooming out eases into the
// end position.
func (ts *TransitionSettings) Frames(base mandelbrot.Settings) []mandelbrot.Settings {
	frames := make([]mandelbrot.Settings, 0, ts.FrameCount)
	for currentFrame := uint(0); currentFrame < ts.FrameCount; currentFrame++ {
		t := 0.0
		if ts.FrameCount > 1 {
			t = float64(currentFrame) / float64(ts.FrameCount-1)
		}

		ease := misc.EaseOutExpo(t)
		if ts.MagnificationStart > ts.MagnificationEnd {
			ease = misc.EaseInExpo(t)
		}

		frame := base
		frame.Center = mandelbrot.Point{
			X: misc.LerpFloat64(ts.StartX, ts.EndX, ease),
			Y: misc.LerpFloat64(ts.StartY, ts.EndY, ease),
		}
		frame.Zoom = misc.LerpLog(ts.MagnificationStart, ts.MagnificationEnd, t)
		frames = append(frames, frame)
	}
	return frames
}
