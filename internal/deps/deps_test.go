package deps_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"hbwrap/internal/deps"
)

func TestCheckReportsMissingBinary(t *testing.T) {
	statuses := deps.Check([]deps.Requirement{{Name: "HandBrakeCLI", Command: "definitely-not-a-real-binary"}})
	if len(statuses) != 1 {
		t.Fatalf("expected one status, got %d", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("expected binary to be unavailable")
	}
	if statuses[0].Detail == "" {
		t.Fatal("expected detail describing the missing binary")
	}
}

func TestCheckFindsBinaryOnPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path setup is unix-specific")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "HandBrakeCLI")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub binary: %v", err)
	}
	t.Setenv("PATH", dir)

	statuses := deps.Check(deps.Defaults(""))
	if len(statuses) != 1 || !statuses[0].Available {
		t.Fatalf("expected available status, got %+v", statuses)
	}
	if statuses[0].Path != bin {
		t.Fatalf("expected resolved path %q, got %q", bin, statuses[0].Path)
	}
}

func TestCheckEmptyCommand(t *testing.T) {
	statuses := deps.Check([]deps.Requirement{{Name: "Broken"}})
	if statuses[0].Available || statuses[0].Detail != "command not configured" {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
}
