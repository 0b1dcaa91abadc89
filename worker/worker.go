package worker

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"fracgen/coordinator"
	"fracgen/mandelbrot"
	"fracgen/misc"
	"fracgen/parallel"
	"fracgen/render"
	"fracgen/rpc"
	"fracgen/task"

	"github.com/BrugadaSyndrome/bslogger"
)

// Worker renders passes handed out by a coordinator and sends the
// accumulation buffers back.
type Worker struct {
	done           chan struct{}
	executor       parallel.Runner
	logger         bslogger.Logger
	myAddress      string
	rendering      atomic.Pointer[render.Renderer]
	renderer       *render.Renderer
	settings       Settings
	stopOnce       sync.Once
	tasksCompleted atomic.Int64
	textures       map[string]image.Image
	textureKey     string

	Client rpc.Client
	Server rpc.Server
}

// NewWorker starts the worker's own server, registers with the coordinator
// and starts processing tasks in the background.
func NewWorker(settings Settings) (*Worker, error) {
	executor, err := parallel.New(settings.Executor, settings.Threads)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		done:     make(chan struct{}),
		executor: executor,
		logger:   bslogger.NewLogger("Worker", bslogger.Normal, nil),
		settings: settings,
		textures: make(map[string]image.Image),
	}

	// Find a free port to use for this worker
	port, err := misc.GetFreePort()
	if err != nil {
		executor.Close()
		return nil, err
	}
	w.logger.Debugf("Found free port: %d", port)
	w.myAddress = fmt.Sprintf("%s:%d", misc.GetLocalAddress(), port)
	w.logger = bslogger.NewLogger(fmt.Sprintf("Worker %s", w.myAddress), bslogger.Normal, nil)

	w.Server, err = rpc.NewServer(settings.Transport, w, w.myAddress, w.myAddress)
	if err != nil {
		executor.Close()
		return nil, err
	}
	if err = w.Server.Run(); err != nil {
		executor.Close()
		return nil, err
	}

	w.Client, err = rpc.NewClient(settings.Transport, settings.CoordinatorAddress, settings.CoordinatorAddress)
	if err != nil {
		w.shutdown()
		return nil, err
	}
	// The coordinator answers with this once the run is finished
	w.Client.Expect(coordinator.AllTasksHandedOut)

	// Register with the coordinator
	if err = w.Client.Connect(); err != nil {
		w.shutdown()
		return nil, err
	}
	var nothing misc.Nothing
	if err = w.Client.Call("Coordinator.RegisterWorker", w.myAddress, &nothing); err != nil {
		w.shutdown()
		return nil, err
	}

	// Check the run is one this worker can render before taking tasks
	var renderSettings mandelbrot.Settings
	if err = w.Client.Call("Coordinator.GetRenderSettings", nothing, &renderSettings); err != nil {
		w.leave()
		return nil, err
	}
	if err = renderSettings.Verify(); err != nil {
		w.leave()
		return nil, fmt.Errorf("render settings of the run: %w", err)
	}
	w.logger.Debug(renderSettings.String())

	go w.tickers()
	go w.processTasks()

	return w, nil
}

// Wait blocks until the worker shut down.
func (w *Worker) Wait() {
	<-w.done
}

func (w *Worker) tickers() {
	rollCall := time.NewTicker(time.Minute)
	heartBeat := time.NewTicker(30 * time.Second)
	defer rollCall.Stop()
	defer heartBeat.Stop()

	for {
		select {
		case <-w.done:
			return

		case <-rollCall.C:
			w.logger.Debug("Roll call ticker")
			var junk misc.Nothing
			var reply bool
			err := w.Client.Call("Coordinator.RollCall", junk, &reply)
			if err != nil {
				// Cannot communicate with the Coordinator so we should shut down
				w.logger.Warningf("Coordinator missed roll call: %s", err)
				w.shutdown()
				return
			}

		case <-heartBeat.C:
			w.logger.Debug("Heart beat ticker")
			done, total := 0, 0
			if r := w.rendering.Load(); r != nil {
				done, total = r.Progress()
			}
			w.logger.Infof("Tasks [Completed: %d] Pass [%d/%d pixels]", w.tasksCompleted.Load(), done, total)
		}
	}
}

func (w *Worker) processTasks() {
	w.logger.Info("Processing tasks")
	startTime := time.Now()

	var nothing misc.Nothing
	for {
		var taskTodo task.Task
		err := w.Client.Call("Coordinator.GetTask", w.myAddress, &taskTodo)
		if err != nil {
			// This is an expected error. No more work to do
			if err.Error() != coordinator.AllTasksHandedOut {
				w.logger.Errorf("Unable to get a task: %s", err)
			}
			break
		}

		if err = w.render(&taskTodo); err != nil {
			w.logger.Errorf("Unable to render %s: %s", taskTodo.String(), err)
			break
		}

		err = w.Client.Call("Coordinator.ReturnTask", taskTodo, &nothing)
		if err != nil {
			w.logger.Errorf("Unable to return a task: %s", err)
			break
		}
		w.tasksCompleted.Add(1)
	}

	w.logger.Info("Done processing tasks")
	w.logger.Debugf("Processed %d tasks in %s", w.tasksCompleted.Load(), time.Since(startTime))

	w.leave()
}

// render fills the buffer of t. The renderer is reused between tasks and
// only rebuilt when the texture it reads changes.
func (w *Worker) render(t *task.Task) error {
	// Parsed palettes and colors do not cross the wire
	if err := t.Settings.Verify(); err != nil {
		return err
	}
	functions := mandelbrot.NewFunctions(t.Settings)

	key := textureKey(t.Settings)
	if w.renderer == nil || key != w.textureKey {
		texture, err := w.texture(t.Settings)
		if err != nil {
			return err
		}
		w.renderer = render.NewRenderer(t.Settings, functions, w.executor, render.WithTexture(texture))
		w.rendering.Store(w.renderer)
		w.textureKey = key
	} else {
		w.renderer.UpdateSettings(t.Settings)
		w.renderer.UpdateFunctions(functions)
	}

	w.renderer.Seed(t.Seed)
	w.renderer.RenderSamples(t.Samples)
	t.Buffer = w.renderer.Buffer()
	return nil
}

// textureKey names the texture a renderer for settings reads, empty when
// the color mode reads none.
func textureKey(settings mandelbrot.Settings) string {
	if settings.ColorMode != mandelbrot.ColorTexture {
		return ""
	}
	return settings.Texture
}

func (w *Worker) texture(settings mandelbrot.Settings) (image.Image, error) {
	if textureKey(settings) == "" {
		return nil, nil
	}
	if texture, ok := w.textures[settings.Texture]; ok {
		return texture, nil
	}
	texture, err := misc.LoadTexture(settings.Texture, w.settings.MaxTextureSide)
	if err != nil {
		return nil, err
	}
	w.textures[settings.Texture] = texture
	return texture, nil
}

// leave deregisters from the coordinator and shuts down.
func (w *Worker) leave() {
	w.logger.Info("Shutting down")
	var nothing misc.Nothing
	misc.CheckError(w.Client.Call("Coordinator.DeRegisterWorker", w.myAddress, &nothing), w.logger, misc.Warning)
	w.shutdown()
}

func (w *Worker) shutdown() {
	w.stopOnce.Do(func() {
		if w.Client != nil {
			misc.CheckError(w.Client.Disconnect(), w.logger, misc.Warning)
		}
		misc.CheckError(w.Server.Stop(), w.logger, misc.Warning)
		w.executor.Close()
		close(w.done)
	})
}

func (w *Worker) RollCall(request misc.Nothing, reply *bool) error {
	*reply = true
	return nil
}
