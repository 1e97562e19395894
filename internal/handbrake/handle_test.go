package handbrake

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"
)

// TestHelperProcess stands in for HandBrakeCLI. It is only executed as a
// child process with GO_WANT_HELPER_PROCESS set.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("HBWRAP_HELPER_MODE") {
	case "version":
		fmt.Fprintln(os.Stdout, "HandBrake 1.6.0")
	case "version-empty":
		// No output at all.
	case "version-fail":
		fmt.Fprintln(os.Stderr, "unknown option")
		os.Exit(127)
	case "encode-success":
		fmt.Fprintln(os.Stderr, "[10:30:01] hb_init: starting libhb main thread")
		fmt.Fprint(os.Stderr, "json job: {\n    \"Source\": {\n        \"Path\": \"/tmp/in.mkv\",\n        \"Title\": 1\n    }\n}\n")
		fmt.Fprint(os.Stderr, "Encoding: task 1 of 1, 10.00 %\r")
		fmt.Fprint(os.Stderr, "Encoding: task 1 of 1, 42.50 %, 23.10 fps, avg 21.00 fps, ETA 00h01m23s\r")
		fmt.Fprintln(os.Stderr, "Encode done!")
	case "encode-fail":
		fmt.Fprintln(os.Stderr, "ERROR: Source file not found")
		os.Exit(1)
	case "encode-hang":
		fmt.Fprintln(os.Stderr, "[10:30:01] scan: starting")
		time.Sleep(30 * time.Second)
	case "encode-stream":
		fmt.Fprintln(os.Stderr, "[10:30:01] muxing to stdout")
		os.Stdout.Write([]byte{0x00, 0x01, 0xFF, 'm', 'o', 'o', 'v'})
		fmt.Fprint(os.Stdout, "Encoding: task 1 of 1, 50.00 %, 30.00 fps\r")
		os.Stdout.Write([]byte{0xAB, 0xCD})
	}
	os.Exit(0)
}

// useHelper reroutes process creation to the helper above for the duration
// of one test.
func useHelper(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HBWRAP_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
}

func startTestJob(t *testing.T, mode string) *JobHandle {
	t.Helper()
	useHelper(t, mode)
	builder := newJobBuilder("HandBrakeCLI", InputFile("/tmp/in.mkv"), OutputFile("/tmp/out.mp4"))
	handle, err := builder.Start(context.Background())
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	return handle
}

func drain(t *testing.T, handle *JobHandle) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-handle.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for events; got %+v", events)
		}
	}
}

func requireTerminalDone(t *testing.T, events []Event) *Outcome {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("expected at least a Done event")
	}
	var doneCount int
	for _, ev := range events {
		if ev.Type == EventTypeDone {
			doneCount++
		}
	}
	if doneCount != 1 {
		t.Fatalf("expected exactly one Done event, got %d in %+v", doneCount, events)
	}
	last := events[len(events)-1]
	if last.Type != EventTypeDone {
		t.Fatalf("Done must be the last event, got %+v", last)
	}
	return last.Done
}

func TestStartSuccessfulEncode(t *testing.T) {
	handle := startTestJob(t, "encode-success")
	events := drain(t, handle)
	outcome := requireTerminalDone(t, events)

	if !outcome.OK || outcome.Summary == nil {
		t.Fatalf("expected success outcome, got %+v", outcome)
	}
	if outcome.Summary.AvgFPS != 21.00 {
		t.Fatalf("summary should carry the last observed average fps, got %v", outcome.Summary.AvgFPS)
	}
	if outcome.Summary.Elapsed <= 0 {
		t.Fatalf("expected positive elapsed time, got %v", outcome.Summary.Elapsed)
	}

	var gotConfig, gotProgress bool
	for _, ev := range events {
		switch ev.Type {
		case EventTypeConfig:
			gotConfig = true
			if ev.Config.Source.Path != "/tmp/in.mkv" {
				t.Fatalf("unexpected config payload: %+v", ev.Config)
			}
		case EventTypeProgress:
			if ev.Progress.Percent == 42.50 {
				gotProgress = true
			}
		}
	}
	if !gotConfig {
		t.Fatal("expected a Config event")
	}
	if !gotProgress {
		t.Fatal("expected the 42.50 % progress event")
	}
}

func TestStartFailureCarriesLastErrorMessage(t *testing.T) {
	handle := startTestJob(t, "encode-fail")
	events := drain(t, handle)
	outcome := requireTerminalDone(t, events)

	if outcome.OK || outcome.Failure == nil {
		t.Fatalf("expected failure outcome, got %+v", outcome)
	}
	if outcome.Failure.Message != "Source file not found" {
		t.Fatalf("failure message should match the last error log, got %q", outcome.Failure.Message)
	}
	if outcome.Failure.ExitCode == nil || *outcome.Failure.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %v", outcome.Failure.ExitCode)
	}
}

func TestKillProducesFailureDone(t *testing.T) {
	handle := startTestJob(t, "encode-hang")

	// Wait for the first event so the process is demonstrably running.
	select {
	case <-handle.Events():
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	if err := handle.Kill(); err != nil {
		t.Fatalf("Kill returned error: %v", err)
	}
	if err := handle.Kill(); err != nil {
		t.Fatalf("repeated Kill should be a no-op, got %v", err)
	}

	events := drain(t, handle)
	outcome := requireTerminalDone(t, events)
	if outcome.OK {
		t.Fatalf("killed job must not succeed: %+v", outcome)
	}
	if outcome.Failure.ExitCode != nil {
		t.Fatalf("signal-terminated job has no exit code, got %v", *outcome.Failure.ExitCode)
	}
}

func TestCancelProducesFailureDone(t *testing.T) {
	handle := startTestJob(t, "encode-hang")

	select {
	case <-handle.Events():
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	if err := handle.Cancel(); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if err := handle.Cancel(); err != nil {
		t.Fatalf("repeated Cancel should be a no-op, got %v", err)
	}
	// Escalation after cancel is always allowed.
	if err := handle.Kill(); err != nil {
		t.Fatalf("Kill after Cancel returned error: %v", err)
	}

	events := drain(t, handle)
	outcome := requireTerminalDone(t, events)
	if outcome.OK {
		t.Fatalf("cancelled job must not succeed: %+v", outcome)
	}
}

func TestControlAfterExitIsNoop(t *testing.T) {
	handle := startTestJob(t, "encode-success")
	drain(t, handle)

	if err := handle.Cancel(); err != nil {
		t.Fatalf("Cancel after exit should succeed, got %v", err)
	}
	if err := handle.Kill(); err != nil {
		t.Fatalf("Kill after exit should succeed, got %v", err)
	}

	// The channel is closed; no further events can appear.
	if ev, ok := <-handle.Events(); ok {
		t.Fatalf("no events may follow Done, got %+v", ev)
	}
}

func TestStreamedOutputForwardsFragments(t *testing.T) {
	useHelper(t, "encode-stream")
	builder := newJobBuilder("HandBrakeCLI", InputFile("/tmp/in.mkv"), OutputStream())
	handle, err := builder.Start(context.Background())
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	events := drain(t, handle)
	requireTerminalDone(t, events)

	var payload []byte
	var sawStdoutProgress bool
	for _, ev := range events {
		switch ev.Type {
		case EventTypeFragment:
			payload = append(payload, ev.Fragment...)
		case EventTypeProgress:
			if ev.Progress.Percent == 50.00 {
				sawStdoutProgress = true
			}
		}
	}
	want := []byte{0x00, 0x01, 0xFF, 'm', 'o', 'o', 'v', 0xAB, 0xCD}
	if string(payload) != string(want) {
		t.Fatalf("fragments must reassemble the raw payload:\n got %v\nwant %v", payload, want)
	}
	if !sawStdoutProgress {
		t.Fatal("expected the stdout progress update to be stripped into a Progress event")
	}
}

func TestStartSpawnFailure(t *testing.T) {
	builder := newJobBuilder("/nonexistent/HandBrakeCLI", InputFile("in.mkv"), OutputFile("out.mp4"))
	if _, err := builder.Start(context.Background()); err == nil {
		t.Fatal("expected spawn error for missing executable")
	}
}

func TestJobHandleHasID(t *testing.T) {
	handle := startTestJob(t, "encode-success")
	if handle.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("expected a populated job id")
	}
	drain(t, handle)
}
