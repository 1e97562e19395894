package handbrake

import "github.com/google/uuid"

// JobHandle exposes the event stream and control surface for one running
// job. The process handle itself stays private to the controller.
type JobHandle struct {
	// ID identifies the job for logging and correlation.
	ID uuid.UUID

	events <-chan Event
	ctrl   *controller
}

// Events returns the job's event stream. A single Done event is always the
// last item delivered; the channel is closed afterwards.
func (h *JobHandle) Events() <-chan Event { return h.events }

// Cancel asks the transcoder to stop gracefully (interrupt signal on POSIX,
// console interrupt on Windows). It does not wait for exit; consume the
// event stream for the Done event. Idempotent once the job is stopping or
// has exited.
func (h *JobHandle) Cancel() error { return h.ctrl.cancel() }

// Kill forcefully terminates the transcoder. Safe to call after Cancel to
// escalate, and a no-op once the job has exited.
func (h *JobHandle) Kill() error { return h.ctrl.kill() }
