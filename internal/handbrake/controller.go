package handbrake

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"time"

	"hbwrap/internal/services"
)

// signaller delivers platform control signals to the child process. The
// concrete backend is selected at build time per target platform.
type signaller interface {
	Interrupt(p *os.Process) error
	Terminate(p *os.Process) error
}

type controlState int

const (
	stateSpawned controlState = iota
	stateRunning
	stateCancelling
	stateKilling
	stateExited
)

// controller exclusively owns the spawned process handle. Control
// operations serialize through its mutex so cancel and kill never race each
// other or the exit path, and the terminal Done event is emitted exactly
// once.
type controller struct {
	mu    sync.Mutex
	state controlState
	cmd   *exec.Cmd
	sig   signaller
}

func newController(cmd *exec.Cmd, sig signaller) *controller {
	return &controller{state: stateSpawned, cmd: cmd, sig: sig}
}

// cancel requests a graceful stop. Repeated calls while the process is
// already stopping, and calls after it has exited, are no-ops.
func (c *controller) cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateCancelling, stateKilling, stateExited:
		return nil
	}
	if err := c.sig.Interrupt(c.cmd.Process); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return services.Wrap(services.ErrControl, "handbrake", "cancel", "interrupt signal not delivered", err)
	}
	c.state = stateCancelling
	return nil
}

// kill forcefully terminates the process. Safe to call from any state,
// including after cancel to escalate.
func (c *controller) kill() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateKilling, stateExited:
		return nil
	}
	if err := c.sig.Terminate(c.cmd.Process); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return services.Wrap(services.ErrControl, "handbrake", "kill", "terminate signal not delivered", err)
	}
	c.state = stateKilling
	return nil
}

// supervise waits for both pumps to drain and the exit status to become
// available, then emits the single Done event, closes the stream, and moves
// the state machine to Exited.
func (c *controller) supervise(pumps *sync.WaitGroup, sink *eventSink) {
	c.mu.Lock()
	if c.state == stateSpawned {
		c.state = stateRunning
	}
	c.mu.Unlock()

	pumps.Wait()
	waitErr := c.cmd.Wait()

	outcome := sink.tracker.outcome(waitErr)
	sink.emit(Event{Type: EventTypeDone, Done: &outcome})
	close(sink.ch)

	c.mu.Lock()
	c.state = stateExited
	c.mu.Unlock()
}

// outcomeTracker accumulates the observations the terminal event needs.
// It is shared by both pump goroutines and the supervisor.
type outcomeTracker struct {
	mu        sync.Mutex
	started   time.Time
	lastFPS   float64
	lastAvg   float64
	hasAvg    bool
	lastError string
}

func newOutcomeTracker(started time.Time) *outcomeTracker {
	return &outcomeTracker{started: started}
}

func (t *outcomeTracker) observe(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Type {
	case EventTypeProgress:
		if ev.Progress.FPS > 0 {
			t.lastFPS = ev.Progress.FPS
		}
		if ev.Progress.AvgFPS != nil {
			t.lastAvg = *ev.Progress.AvgFPS
			t.hasAvg = true
		}
	case EventTypeLog:
		if ev.Log.Level == LevelError {
			t.lastError = ev.Log.Message
		}
	}
}

func (t *outcomeTracker) outcome(waitErr error) Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.started)
	if waitErr == nil {
		avg := t.lastAvg
		if !t.hasAvg {
			avg = t.lastFPS
		}
		return Outcome{OK: true, Summary: &Summary{Elapsed: elapsed, AvgFPS: avg}}
	}

	failure := Failure{Message: t.lastError}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			failure.ExitCode = &code
		}
	}
	if failure.Message == "" {
		failure.Message = waitErr.Error()
	}
	return Outcome{OK: false, Failure: &failure}
}
