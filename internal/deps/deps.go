// Package deps reports the availability of the external binaries hbwrap
// drives.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary dependency.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of one dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Defaults lists hbwrap's dependencies. An empty binary override means the
// conventional name is resolved from PATH.
func Defaults(handbrakeBinary string) []Requirement {
	command := strings.TrimSpace(handbrakeBinary)
	if command == "" {
		command = "HandBrakeCLI"
	}
	return []Requirement{
		{
			Name:        "HandBrakeCLI",
			Command:     command,
			Description: "Video transcoder driven by hbwrap",
		},
	}
}

// Check evaluates the provided requirements against PATH.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		command := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     command,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(command)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", command)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}
