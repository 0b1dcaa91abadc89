package coordinator

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"fracgen/mandelbrot"
	"fracgen/misc"
	"fracgen/rpc"

	"github.com/BrugadaSyndrome/bslogger"
)

type Settings struct {
	logger bslogger.Logger

	Executor           string
	ImageFormat        string
	MaxTextureSide     int
	PassesPerFrame     int
	RenderSettings     mandelbrot.Settings
	RunName            string
	SavePath           string
	ServerAddress      string
	TransitionSettings []TransitionSettings
	Transport          rpc.Transport
}

// NewSettings reads a settings file on top of the defaults and verifies it.
func NewSettings(settingsFile string) (Settings, error) {
	s := Settings{
		logger:         bslogger.NewLogger("CoordinatorSettings", bslogger.Normal, nil),
		RenderSettings: mandelbrot.DefaultSettings(),
	}
	if err := misc.ReadJSON(settingsFile, &s); err != nil {
		return s, err
	}
	if err := s.Verify(); err != nil {
		return s, err
	}
	s.logger.Debug(s.String())
	return s, nil
}

func (s *Settings) String() string {
	output := "\nCoordinator settings\n"
	output += fmt.Sprintf("My Address: %s (%s)\n", s.ServerAddress, s.Transport)
	output += fmt.Sprintf("Run: %s in %s as %s\n", s.RunName, s.SavePath, s.ImageFormat)
	output += fmt.Sprintf("Passes per frame: %d Transitions: %d\n", s.PassesPerFrame, len(s.TransitionSettings))
	output += s.RenderSettings.String()
	return output
}

func (s *Settings) Verify() error {
	s.logger = bslogger.NewLogger("CoordinatorSettings", bslogger.Normal, nil)

	if err := s.RenderSettings.Verify(); err != nil {
		return fmt.Errorf("render settings: %w", err)
	}
	if s.Executor == "" {
		s.Executor = "pool"
	}
	if s.ImageFormat == "" {
		s.ImageFormat = "png"
	}
	if !slices.Contains(misc.ImageFormats, s.ImageFormat) {
		return fmt.Errorf("unknown image format %q", s.ImageFormat)
	}
	if s.MaxTextureSide <= 0 {
		s.MaxTextureSide = 1024
	}
	if s.PassesPerFrame < 1 {
		s.PassesPerFrame = 1
	}
	if s.RunName == "" {
		s.RunName = "run_" + time.Now().Format("2006_01_02-03_04_05")
	}
	if s.SavePath == "" {
		s.SavePath, _ = os.Getwd()
	}
	if s.ServerAddress == "" {
		s.ServerAddress = fmt.Sprintf("%s:%s", misc.GetLocalAddress(), "51000")
	}
	if s.Transport == "" {
		s.Transport = rpc.TCP
	}
	if s.Transport != rpc.TCP && s.Transport != rpc.HTTP {
		return fmt.Errorf("unknown transport %q", s.Transport)
	}

	// Without transitions render the single view of the render settings
	if len(s.TransitionSettings) == 0 {
		s.TransitionSettings = []TransitionSettings{
			{
				EndX:               s.RenderSettings.Center.X,
				EndY:               s.RenderSettings.Center.Y,
				FrameCount:         1,
				MagnificationEnd:   s.RenderSettings.Zoom,
				MagnificationStart: s.RenderSettings.Zoom,
				StartX:             s.RenderSettings.Center.X,
				StartY:             s.RenderSettings.Center.Y,
			},
		}
	}

	for i := 0; i < len(s.TransitionSettings); i++ {
		misc.CheckError(s.TransitionSettings[i].Verify(), s.logger, misc.Warning)
	}

	return nil
}

// Frames is the render settings of every frame of the run in order.
func (s *Settings) Frames() []mandelbrot.Settings {
	var frames []mandelbrot.Settings
	for i := range s.TransitionSettings {
		frames = append(frames, s.TransitionSettings[i].Frames(s.RenderSettings)...)
	}
	return frames
}

// FramePath is where frame number frame of the run is saved.
func (s *Settings) FramePath(frame uint) string {
	return filepath.Join(s.SavePath, s.RunName, fmt.Sprintf("%05d.%s", frame, s.ImageFormat))
}
