//go:build unix

package handbrake

import (
	"os"

	"golang.org/x/sys/unix"
)

// platformSignaller delivers POSIX signals: SIGINT for a graceful stop,
// which HandBrakeCLI traps to clean up partial output, and SIGKILL for a
// forced stop.
type platformSignaller struct{}

func (platformSignaller) Interrupt(p *os.Process) error {
	return p.Signal(unix.SIGINT)
}

func (platformSignaller) Terminate(p *os.Process) error {
	return p.Signal(unix.SIGKILL)
}
