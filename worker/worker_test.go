package worker

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fracgen/coordinator"
	"fracgen/mandelbrot"
	"fracgen/misc"
	"fracgen/parallel"
	"fracgen/render"
	"fracgen/rpc"
	"fracgen/task"
)

func runSettings(t *testing.T, runName string, transport rpc.Transport) coordinator.Settings {
	t.Helper()
	s := coordinator.Settings{
		PassesPerFrame: 2,
		RenderSettings: mandelbrot.DefaultSettings(),
		RunName:        runName,
		SavePath:       t.TempDir(),
		ServerAddress:  "127.0.0.1:0",
		TransitionSettings: []coordinator.TransitionSettings{
			{StartX: -0.75, EndX: -0.1, EndY: 0.65, FrameCount: 2, MagnificationStart: 0.7, MagnificationEnd: 4},
		},
		Transport: transport,
	}
	s.RenderSettings.Width = 12
	s.RenderSettings.Height = 8
	s.RenderSettings.MaxIterations = 128
	s.RenderSettings.Samples = 2
	s.RenderSettings.Seed = 7
	s.RenderSettings.Threads = 2
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return s
}

func readFrame(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func wait(t *testing.T, what string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Minute):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestSettingsVerify(t *testing.T) {
	var s Settings
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if s.CoordinatorAddress == "" || s.Executor != "pool" || s.Transport != rpc.TCP || s.Threads < 1 || s.MaxTextureSide != 1024 {
		t.Errorf("defaults not applied: %s", s.String())
	}

	s.Transport = "udp"
	if err := s.Verify(); err == nil {
		t.Error("Verify accepted an unknown transport")
	}
}

func TestDistributedRunMatchesLocal(t *testing.T) {
	for _, transport := range []rpc.Transport{rpc.TCP, rpc.HTTP} {
		t.Run(string(transport), func(t *testing.T) {
			local := runSettings(t, "local", transport)
			if err := coordinator.RunLocal(local); err != nil {
				t.Fatalf("RunLocal: %v", err)
			}

			distributed := runSettings(t, "distributed", transport)
			c, err := coordinator.NewCoordinator(distributed)
			if err != nil {
				t.Fatalf("NewCoordinator: %v", err)
			}
			if err = c.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}

			w, err := NewWorker(Settings{
				CoordinatorAddress: c.Server.Address(),
				Executor:           "group",
				Threads:            2,
				Transport:          transport,
			})
			if err != nil {
				t.Fatalf("NewWorker: %v", err)
			}

			wait(t, "coordinator", c.Wait)
			wait(t, "worker", w.Wait)
			if got := w.tasksCompleted.Load(); got != 4 {
				t.Errorf("worker completed %d tasks, want 4", got)
			}

			// Two passes add up the same in either order, so frames are equal
			for frame := uint(0); frame < 2; frame++ {
				want := readFrame(t, local.FramePath(frame))
				got := readFrame(t, distributed.FramePath(frame))
				b := want.Bounds()
				if got.Bounds() != b {
					t.Fatalf("frame %d is %v, want %v", frame, got.Bounds(), b)
				}
				for y := b.Min.Y; y < b.Max.Y; y++ {
					for x := b.Min.X; x < b.Max.X; x++ {
						if want.At(x, y) != got.At(x, y) {
							t.Fatalf("frame %d pixel (%d, %d) = %v, want %v", frame, x, y, got.At(x, y), want.At(x, y))
						}
					}
				}
			}
		})
	}
}

func TestRenderLoadsTextureWhenModeChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texture.png")
	texture := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(texture.Pix); i += 4 {
		copy(texture.Pix[i:i+4], []uint8{255, 0, 0, 255})
	}
	if err := misc.SaveImage(path, texture); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}

	w := &Worker{
		executor: parallel.Serial{},
		settings: Settings{MaxTextureSide: 64},
		textures: make(map[string]image.Image),
	}

	settings := mandelbrot.DefaultSettings()
	settings.Width = 6
	settings.Height = 4
	settings.MaxIterations = 32
	settings.Samples = 1
	settings.Texture = path
	settings.ColorMode = mandelbrot.ColorNormalMap

	first := task.NewTask(0, 0, 0, settings, 1)
	if err := w.render(&first); err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(w.textures) != 0 {
		t.Fatalf("loaded %d textures for a mode that reads none", len(w.textures))
	}
	plain := w.renderer

	settings.ColorMode = mandelbrot.ColorTexture
	second := task.NewTask(1, 0, 0, settings, 1)
	if err := w.render(&second); err != nil {
		t.Fatalf("render: %v", err)
	}
	if w.renderer == plain {
		t.Fatal("renderer was reused after switching to the texture mode")
	}
	if len(w.textures) != 1 {
		t.Fatalf("loaded %d textures, want 1", len(w.textures))
	}

	// Without its texture the texture mode falls back to the normal map
	if err := second.Settings.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	untextured := render.NewRenderer(second.Settings, mandelbrot.NewFunctions(second.Settings), nil)
	untextured.Seed(second.Seed)
	untextured.RenderSamples(1)
	fallback := untextured.Buffer()
	differs := false
	for i := range second.Buffer {
		if second.Buffer[i] != fallback[i] {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("texture mode rendered without the texture")
	}
}
