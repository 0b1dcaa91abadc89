package worker

import (
	"fmt"
	"runtime"

	"fracgen/misc"
	"fracgen/rpc"

	"github.com/BrugadaSyndrome/bslogger"
)

type Settings struct {
	logger bslogger.Logger

	CoordinatorAddress string
	Executor           string
	MaxTextureSide     int
	Threads            int
	Transport          rpc.Transport
}

// NewSettings reads a worker settings file and verifies it.
func NewSettings(settingsFile string) (Settings, error) {
	s := Settings{
		logger: bslogger.NewLogger("WorkerSettings", bslogger.Normal, nil),
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
	output := "\nWorker settings\n"
	output += fmt.Sprintf("Coordinator Address: %s (%s)\n", s.CoordinatorAddress, s.Transport)
	output += fmt.Sprintf("Executor: %s Threads: %d\n", s.Executor, s.Threads)
	return output
}

func (s *Settings) Verify() error {
	s.logger = bslogger.NewLogger("WorkerSettings", bslogger.Normal, nil)

	if s.CoordinatorAddress == "" {
		s.CoordinatorAddress = fmt.Sprintf("%s:%s", misc.GetLocalAddress(), "51000")
	}
	if s.Executor == "" {
		s.Executor = "pool"
	}
	if s.MaxTextureSide <= 0 {
		s.MaxTextureSide = 1024
	}
	if s.Threads <= 0 {
		s.Threads = runtime.GOMAXPROCS(0)
	}
	if s.Transport == "" {
		s.Transport = rpc.TCP
	}
	if s.Transport != rpc.TCP && s.Transport != rpc.HTTP {
		return fmt.Errorf("unknown transport %q", s.Transport)
	}
	return nil
}
