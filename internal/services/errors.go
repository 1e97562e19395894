package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDiscovery marks failures to locate or validate the transcoder binary.
	ErrDiscovery = errors.New("executable discovery error")
	// ErrSpawn marks process creation failures. No event stream exists when
	// a spawn error is returned.
	ErrSpawn = errors.New("process spawn error")
	// ErrControl marks signal delivery failures for cancel/kill requests.
	ErrControl = errors.New("process control error")
	// ErrConfiguration marks invalid user configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error that carries component and operation context while
// tagging it with the provided marker for errors.Is classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
