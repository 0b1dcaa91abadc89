package coordinator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"fracgen/mandelbrot"
	"fracgen/misc"
	"fracgen/parallel"
	"fracgen/render"
	"fracgen/rpc"
	"fracgen/task"

	"github.com/BrugadaSyndrome/bslogger"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AllTasksHandedOut is the error GetTask returns once the run is finished.
const AllTasksHandedOut = "all tasks handed out"

// frame collects the passes of one frame until all of them arrived.
type frame struct {
	renderer   *render.Renderer
	passesLeft int
}

// Coordinator splits every frame of a run into passes, hands them to
// workers over rpc and merges the returned accumulation buffers. Since
// buffers add up, passes may come back in any order from any worker.
type Coordinator struct {
	clients         map[string]rpc.Client
	executor        parallel.Runner
	finished        chan struct{}
	frames          []mandelbrot.Settings
	framesCompleted atomic.Uint64
	framesStarted   atomic.Uint64
	images          map[uint]*frame
	logFile         *os.File
	logger          bslogger.Logger
	mutex           sync.Mutex
	printer         *message.Printer
	settings        Settings
	stopped         chan struct{}
	taskCount       uint
	taskGenerated   atomic.Uint64
	taskIngested    atomic.Uint64
	tasksHandedOut  map[string]map[uint]task.Task // keep track of all tasks workers have
	tasksDone       chan task.Task
	tasksTodo       chan task.Task
	workerWait      sync.WaitGroup

	Server rpc.Server
}

// NewCoordinator prepares the run directory and the rpc server of a run.
// settings must have been verified. Nothing is served until Run.
func NewCoordinator(settings Settings) (*Coordinator, error) {
	frames := settings.Frames()
	taskCount := uint(len(frames) * settings.PassesPerFrame)

	executor, err := parallel.New(settings.Executor, settings.RenderSettings.Threads)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		clients:        make(map[string]rpc.Client),
		executor:       executor,
		finished:       make(chan struct{}),
		frames:         frames,
		images:         make(map[uint]*frame),
		logger:         bslogger.NewLogger("Coordinator", bslogger.Normal, nil),
		printer:        message.NewPrinter(language.English),
		settings:       settings,
		stopped:        make(chan struct{}),
		taskCount:      taskCount,
		tasksHandedOut: make(map[string]map[uint]task.Task),
		// Every task is either queued, handed out or ingested, so sends never block
		tasksDone: make(chan task.Task, taskCount),
		tasksTodo: make(chan task.Task, taskCount),
	}

	runPath := filepath.Join(settings.SavePath, settings.RunName)
	if err = os.MkdirAll(runPath, os.ModePerm); err != nil {
		executor.Close()
		return nil, fmt.Errorf("unable to create folder %s - %w", runPath, err)
	}

	// Copy the settings to the directory so the run can be duplicated in the future
	if err = misc.WriteJSON(filepath.Join(runPath, "settings.json"), settings); err != nil {
		executor.Close()
		return nil, err
	}

	// Record the run next to the images
	logFile, err := os.Create(filepath.Join(runPath, "coordinator.log"))
	if !misc.CheckError(err, c.logger, misc.Warning) {
		c.logFile = logFile
		c.logger = bslogger.NewLogger("Coordinator", bslogger.Normal, logFile)
	}

	c.Server, err = rpc.NewServer(settings.Transport, c, settings.ServerAddress, "CoordinatorServer")
	if err != nil {
		executor.Close()
		return nil, err
	}
	return c, nil
}

// Run starts serving workers and returns once the server listens.
func (c *Coordinator) Run() error {
	if err := c.Server.Run(); err != nil {
		return err
	}
	c.logger.Infof("Rendering %d frames in %d tasks", len(c.frames), c.taskCount)

	go c.tickers()
	go c.generateTasks()
	go c.ingestTasks()
	return nil
}

// Wait blocks until every frame is saved and all workers left.
func (c *Coordinator) Wait() {
	<-c.stopped
}

func (c *Coordinator) tickers() {
	rollCall := time.NewTicker(time.Minute)
	heartBeat := time.NewTicker(30 * time.Second)
	defer rollCall.Stop()
	defer heartBeat.Stop()

	for {
		select {
		case <-c.stopped:
			return

		case <-rollCall.C:
			c.logger.Debug("Roll call ticker")
			c.mutex.Lock()
			clients := make([]rpc.Client, 0, len(c.clients))
			for _, v := range c.clients {
				clients = append(clients, v)
			}
			c.mutex.Unlock()

			var junk misc.Nothing
			for _, v := range clients {
				var reply bool
				err := v.Call("Worker.RollCall", junk, &reply)
				if err != nil {
					// Cannot communicate with the worker
					c.logger.Warningf("Worker %s missed roll call: %s", v.Address(), err)
					var nothing misc.Nothing
					misc.CheckError(c.DeRegisterWorker(v.Address(), &nothing), c.logger, misc.Warning)
				}
			}

		case <-heartBeat.C:
			c.logger.Debug("Heart beat ticker")
			completed := c.framesCompleted.Load()
			c.logger.Info(c.printer.Sprintf("Tasks [Generated: %d] [Ingested: %d] | Frames [Completed: %d] [WIP: %d] [Todo: %d]",
				c.taskGenerated.Load(), c.taskIngested.Load(), completed, c.framesStarted.Load()-completed, uint64(len(c.frames))-completed))
		}
	}
}

func (c *Coordinator) generateTasks() {
	c.logger.Info("Generating tasks")
	startTime := time.Now()

	var id uint
	for f, settings := range c.frames {
		for pass := 0; pass < c.settings.PassesPerFrame; pass++ {
			c.tasksTodo <- task.NewTask(id, uint(f), uint(pass), settings, settings.Samples)
			c.taskGenerated.Add(1)
			id++
		}
	}

	c.logger.Debugf("Done generating %d tasks in %s", c.taskGenerated.Load(), time.Since(startTime))
}

func (c *Coordinator) ingestTasks() {
	c.logger.Info("Ingesting tasks")
	startTime := time.Now()

	for uint(c.taskIngested.Load()) < c.taskCount {
		taskReceived := <-c.tasksDone

		image, ok := c.images[taskReceived.Frame]
		if !ok {
			settings := c.frames[taskReceived.Frame]
			image = &frame{
				renderer:   render.NewRenderer(settings, mandelbrot.NewFunctions(settings), c.executor),
				passesLeft: c.settings.PassesPerFrame,
			}
			c.images[taskReceived.Frame] = image
			c.framesStarted.Add(1)
		}

		if err := image.renderer.Merge(taskReceived.Buffer, taskReceived.Samples); err != nil {
			c.logger.Warningf("Discarding result of task %d: %s", taskReceived.ID, err)
			c.requeue(taskReceived)
			continue
		}
		c.taskIngested.Add(1)
		image.passesLeft--

		// All passes have been merged so save the frame
		if image.passesLeft == 0 {
			path := c.settings.FramePath(taskReceived.Frame)
			if !misc.CheckError(misc.SaveImage(path, image.renderer.Image()), c.logger, misc.Error) {
				c.logger.Infof("Saved frame to %s", path)
			}

			// Remove the frame to conserve memory
			delete(c.images, taskReceived.Frame)
			c.framesCompleted.Add(1)
		}
	}

	c.logger.Debugf("Done ingesting %d tasks in %s", c.taskIngested.Load(), time.Since(startTime))
	close(c.finished)

	c.mutex.Lock()
	workers := len(c.clients)
	c.mutex.Unlock()
	c.logger.Infof("Waiting for %d workers to disconnect", workers)
	c.workerWait.Wait()

	misc.CheckError(c.Server.Stop(), c.logger, misc.Warning)
	c.Server.Wait()
	c.executor.Close()
	if c.logFile != nil {
		misc.CheckError(c.logFile.Close(), c.logger, misc.Warning)
	}
	close(c.stopped)
}

// requeue puts a task back so another worker can render it.
func (c *Coordinator) requeue(t task.Task) {
	t.Buffer = nil
	t.WorkerAddress = ""
	c.tasksTodo <- t
}

func (c *Coordinator) RegisterWorker(workerServerAddress string, reply *misc.Nothing) error {
	// Create a client to communicate with this worker
	client, err := rpc.NewClient(c.settings.Transport, workerServerAddress, workerServerAddress)
	if err != nil {
		return err
	}
	if err = client.Connect(); err != nil {
		return err
	}

	c.mutex.Lock()
	c.clients[workerServerAddress] = client
	// Track all tasks this worker checks out
	c.tasksHandedOut[workerServerAddress] = make(map[uint]task.Task)
	c.mutex.Unlock()

	c.logger.Infof("Worker joined: %s", workerServerAddress)
	c.workerWait.Add(1)

	return nil
}

func (c *Coordinator) DeRegisterWorker(workerServerAddress string, reply *misc.Nothing) error {
	c.mutex.Lock()
	client, ok := c.clients[workerServerAddress]
	if !ok {
		c.mutex.Unlock()
		return fmt.Errorf("unknown worker %s", workerServerAddress)
	}
	tasks := c.tasksHandedOut[workerServerAddress]
	delete(c.tasksHandedOut, workerServerAddress)
	delete(c.clients, workerServerAddress)
	c.mutex.Unlock()

	// Put tasks this worker has not returned yet back into the todo queue
	for _, v := range tasks {
		c.requeue(v)
	}

	misc.CheckError(client.Disconnect(), c.logger, misc.Warning)

	c.logger.Infof("Worker left: %s", workerServerAddress)
	c.workerWait.Done()

	return nil
}

func (c *Coordinator) RollCall(nothing misc.Nothing, present *bool) error {
	*present = true
	return nil
}

// GetTask hands the next pass to a worker. It blocks while every remaining
// pass is out with other workers.
func (c *Coordinator) GetTask(workerAddress string, reply *task.Task) error {
	select {
	case todo := <-c.tasksTodo:
		c.mutex.Lock()
		handedOut, ok := c.tasksHandedOut[workerAddress]
		if !ok {
			c.mutex.Unlock()
			c.requeue(todo)
			return fmt.Errorf("unknown worker %s", workerAddress)
		}
		todo.WorkerAddress = workerAddress
		handedOut[todo.ID] = todo
		c.mutex.Unlock()
		*reply = todo
		return nil

	case <-c.finished:
		c.logger.Info("Telling worker that all tasks are handed out")
		return errors.New(AllTasksHandedOut)
	}
}

func (c *Coordinator) ReturnTask(done task.Task, nothing *misc.Nothing) error {
	c.mutex.Lock()
	handedOut, ok := c.tasksHandedOut[done.WorkerAddress]
	if ok {
		_, ok = handedOut[done.ID]
		delete(handedOut, done.ID)
	}
	c.mutex.Unlock()

	if !ok {
		c.logger.Warningf("Ignoring task %d from %s, it is not handed out to that worker", done.ID, done.WorkerAddress)
		return nil
	}
	if !done.Done() {
		c.requeue(done)
		return fmt.Errorf("task %d came back without a complete buffer", done.ID)
	}

	c.tasksDone <- done
	return nil
}

// GetRenderSettings returns the base render settings of the run.
func (c *Coordinator) GetRenderSettings(nothing misc.Nothing, settings *mandelbrot.Settings) error {
	*settings = c.settings.RenderSettings
	return nil
}
