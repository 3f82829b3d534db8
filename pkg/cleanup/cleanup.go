package cleanup

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/log"
	"go.uber.org/zap"
)

type task struct {
	name string
	run  func() error
}

// Cleaner collects finalization tasks (temp directory removal, source control
// restoration) and runs them exactly once, on normal exit or on an
// interruption signal, in registration order. Task failures are logged and
// never stop the remaining tasks.
type Cleaner struct {
	mu    sync.Mutex
	once  sync.Once
	tasks []task
}

func New() *Cleaner {
	return &Cleaner{}
}

func (c *Cleaner) Add(name string, run func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = append(c.tasks, task{name: name, run: run})
}

func (c *Cleaner) Run() {
	c.once.Do(c.runTasks)
}

func (c *Cleaner) runTasks() {
	c.mu.Lock()
	tasks := c.tasks
	c.mu.Unlock()

	for _, t := range tasks {
		if err := t.run(); err != nil {
			zap.S().Warnf("Cleanup task %q failed: %s", t.name, err)
		}
	}
}

// TrapSignals runs the cleanup on SIGINT/SIGTERM before exiting with a
// non-zero code. Repeated signals cannot trigger the tasks twice.
func (c *Cleaner) TrapSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-signals
		log.Auditf("Received %s, cleaning up...", sig)
		c.Run()
		os.Exit(1)
	}()
}
