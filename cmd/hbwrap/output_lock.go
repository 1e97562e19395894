package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"
)

// lockOutput guards an output file against concurrent hbwrap invocations
// writing the same destination. The lock lives in a sidecar file so the
// output itself stays untouched until HandBrakeCLI creates it.
func lockOutput(path string) (func(), error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return func() {}, nil
	}
	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("output %s is in use by another hbwrap process", path)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}
