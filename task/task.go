// Package task holds the unit of work handed from the coordinator to
// workers: one pass of samples over one frame.
package task

import (
	"fmt"

	"fracgen/color"
	"fracgen/mandelbrot"
)

type Task struct {
	Buffer        []color.Color
	Frame         uint
	ID            uint
	Pass          uint
	Samples       int
	Seed          uint64
	Settings      mandelbrot.Settings
	WorkerAddress string
}

// NewTask describes pass number pass of frame. The seed is derived from the
// frame seed and the pass so every pass draws different jitter.
func NewTask(id uint, frame uint, pass uint, settings mandelbrot.Settings, samples int) Task {
	return Task{
		Frame:    frame,
		ID:       id,
		Pass:     pass,
		Samples:  samples,
		Seed:     PassSeed(settings.Seed, frame, pass),
		Settings: settings,
	}
}

// PassSeed mixes the frame and pass into a seed with a splitmix64 round.
func PassSeed(seed uint64, frame uint, pass uint) uint64 {
	z := seed + uint64(frame)<<32 + uint64(pass) + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (t *Task) String() string {
	output := "{Task "
	output += fmt.Sprintf("ID: %d ", t.ID)
	output += fmt.Sprintf("Frame: %d ", t.Frame)
	output += fmt.Sprintf("Pass: %d ", t.Pass)
	output += fmt.Sprintf("Samples: %d ", t.Samples)
	output += fmt.Sprintf("Buffer: %d}", len(t.Buffer))
	return output
}

// Done reports whether the task carries a rendered buffer for its frame size.
func (t *Task) Done() bool {
	return len(t.Buffer) == t.Settings.Width*t.Settings.Height && len(t.Buffer) > 0
}
