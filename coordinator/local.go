package coordinator

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"fracgen/mandelbrot"
	"fracgen/misc"
	"fracgen/parallel"
	"fracgen/render"
	"fracgen/task"

	"github.com/BrugadaSyndrome/bslogger"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RunLocal renders every frame of a run in this process and saves them where
// the distributed run would. Passes are seeded the same way tasks are, so a
// local run draws the same samples as a distributed run of the same settings.
func RunLocal(settings Settings) error {
	logger := bslogger.NewLogger("Local", bslogger.Normal, nil)
	printer := message.NewPrinter(language.English)

	executor, err := parallel.New(settings.Executor, settings.RenderSettings.Threads)
	if err != nil {
		return err
	}
	defer executor.Close()

	var texture image.Image
	if settings.RenderSettings.ColorMode == mandelbrot.ColorTexture {
		texture, err = misc.LoadTexture(settings.RenderSettings.Texture, settings.MaxTextureSide)
		if err != nil {
			return err
		}
	}

	runPath := filepath.Join(settings.SavePath, settings.RunName)
	if err = os.MkdirAll(runPath, os.ModePerm); err != nil {
		return fmt.Errorf("unable to create folder %s - %w", runPath, err)
	}
	if err = misc.WriteJSON(filepath.Join(runPath, "settings.json"), settings); err != nil {
		return err
	}

	frames := settings.Frames()
	logger.Infof("Rendering %d frames with %d %s workers", len(frames), executor.Workers(), settings.Executor)
	startTime := time.Now()

	var renderer *render.Renderer
	for f, frameSettings := range frames {
		functions := mandelbrot.NewFunctions(frameSettings)
		if renderer == nil {
			renderer = render.NewRenderer(frameSettings, functions, executor, render.WithTexture(texture))
		} else {
			renderer.UpdateSettings(frameSettings)
			renderer.UpdateFunctions(functions)
		}

		for pass := 0; pass < settings.PassesPerFrame; pass++ {
			renderer.Seed(task.PassSeed(frameSettings.Seed, uint(f), uint(pass)))

			stop := make(chan struct{})
			go reportProgress(logger, printer, renderer, stop)
			renderer.RenderSamples(frameSettings.Samples)
			close(stop)
		}

		path := settings.FramePath(uint(f))
		if err = misc.SaveImage(path, renderer.Image()); err != nil {
			return err
		}
		logger.Infof("Saved frame %d/%d to %s", f+1, len(frames), path)
	}

	logger.Infof("Done rendering %d frames in %s", len(frames), time.Since(startTime))
	return nil
}

func reportProgress(logger bslogger.Logger, printer *message.Printer, renderer *render.Renderer, stop chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			done, total := renderer.Progress()
			if total > 0 {
				logger.Info(printer.Sprintf("Rendered %d of %d pixels (%.1f%%)", done, total, 100*float64(done)/float64(total)))
			}
		}
	}
}
