package main

import (
	"flag"
	"sync"

	"fracgen/coordinator"
	"fracgen/misc"
	"fracgen/worker"

	"github.com/BrugadaSyndrome/bslogger"
)

var (
	isCoordinator, isWorker bool
	settingsFile            string
	workerCount             int
)

func parseArguments() {
	flag.BoolVar(&isCoordinator, "isCoordinator", false, "Is this instance the coordinator")
	flag.BoolVar(&isWorker, "isWorker", false, "Is this instance a worker")
	flag.StringVar(&settingsFile, "settings", "settings.json", "Json file with the coordinator or worker settings")
	flag.IntVar(&workerCount, "workerCount", 1, "Number of workers to create")
	flag.Parse()
}

func main() {
	logger := bslogger.NewLogger("Main", bslogger.Normal, nil)
	parseArguments()

	switch {
	case isCoordinator:
		settings, err := coordinator.NewSettings(settingsFile)
		misc.CheckError(err, logger, misc.Fatal)
		c, err := coordinator.NewCoordinator(settings)
		misc.CheckError(err, logger, misc.Fatal)
		misc.CheckError(c.Run(), logger, misc.Fatal)
		c.Wait()

	case isWorker:
		settings, err := worker.NewSettings(settingsFile)
		misc.CheckError(err, logger, misc.Fatal)

		var wg sync.WaitGroup
		for i := 0; i < workerCount; i++ {
			w, err := worker.NewWorker(settings)
			if misc.CheckError(err, logger, misc.Error) {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.Wait()
			}()
		}
		wg.Wait()

	default:
		// Without a role render the whole run in this process
		settings, err := coordinator.NewSettings(settingsFile)
		misc.CheckError(err, logger, misc.Fatal)
		misc.CheckError(coordinator.RunLocal(settings), logger, misc.Fatal)
	}

	logger.Info("Done")
}
