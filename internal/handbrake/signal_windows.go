//go:build windows

package handbrake

import (
	"os"

	"golang.org/x/sys/windows"
)

// platformSignaller delivers Windows control events: a console interrupt
// for a graceful stop and TerminateProcess for a forced stop.
type platformSignaller struct{}

func (platformSignaller) Interrupt(p *os.Process) error {
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(p.Pid))
}

func (platformSignaller) Terminate(p *os.Process) error {
	return p.Kill()
}
