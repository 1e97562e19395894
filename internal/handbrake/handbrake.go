package handbrake

import (
	"context"
	"os/exec"
	"strings"

	"hbwrap/internal/services"
)

// ExecutableName is the binary searched for on PATH.
const ExecutableName = "HandBrakeCLI"

// commandContext is swapped by tests to avoid spawning the real binary.
var commandContext = exec.CommandContext

// HandBrake holds a located and validated HandBrakeCLI executable and acts
// as the factory for job builders against it.
type HandBrake struct {
	executable string
	version    string
}

// New finds HandBrakeCLI on PATH and validates it.
func New(ctx context.Context) (*HandBrake, error) {
	path, err := exec.LookPath(ExecutableName)
	if err != nil {
		return nil, services.Wrap(services.ErrDiscovery, "handbrake", "lookup", "HandBrakeCLI not found on PATH", err)
	}
	return NewWithPath(ctx, path)
}

// NewWithPath validates the executable at path by running `--version` and
// capturing a non-empty version string.
func NewWithPath(ctx context.Context, path string) (*HandBrake, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrDiscovery, "handbrake", "validate", "executable path required", nil)
	}
	out, err := commandContext(ctx, path, "--version").Output()
	if err != nil {
		return nil, services.Wrap(services.ErrDiscovery, "handbrake", "validate", path+" --version failed", err)
	}
	version := strings.TrimSpace(string(out))
	if version == "" {
		return nil, services.Wrap(services.ErrDiscovery, "handbrake", "validate", path+" --version produced no output", nil)
	}
	return &HandBrake{executable: path, version: version}, nil
}

// Version reports the validated executable's version string.
func (h *HandBrake) Version() string { return h.version }

// Executable reports the resolved binary path.
func (h *HandBrake) Executable() string { return h.executable }

// Job begins configuring an encode from input to output.
func (h *HandBrake) Job(input InputSource, output OutputDestination) *JobBuilder {
	return newJobBuilder(h.executable, input, output)
}

// NewJobBuilder configures a job against an arbitrary executable path
// without validating it first. Intended for argument compilation; prefer
// New or NewWithPath when the job will actually run.
func NewJobBuilder(executable string, input InputSource, output OutputDestination) *JobBuilder {
	return newJobBuilder(executable, input, output)
}
