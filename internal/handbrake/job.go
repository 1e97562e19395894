package handbrake

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"hbwrap/internal/langcode"
	"hbwrap/internal/services"
)

// InputSource selects where HandBrakeCLI reads from: a file path or the
// parent's standard input.
type InputSource struct {
	path  string
	stdin bool
}

// InputFile reads from the file at path.
func InputFile(path string) InputSource { return InputSource{path: path} }

// InputStdin reads from the parent's standard input.
func InputStdin() InputSource { return InputSource{stdin: true} }

func (s InputSource) token() string {
	if s.stdin {
		return "pipe:0"
	}
	return s.path
}

// OutputDestination selects where HandBrakeCLI writes to: a file path or a
// byte stream forwarded through Fragment events.
type OutputDestination struct {
	path   string
	stdout bool
}

// OutputFile writes to the file at path.
func OutputFile(path string) OutputDestination { return OutputDestination{path: path} }

// OutputStream emits encoded bytes on the process's standard output, where
// they surface as Fragment events.
func OutputStream() OutputDestination { return OutputDestination{stdout: true} }

// Streamed reports whether encoded output arrives as Fragment events.
func (d OutputDestination) Streamed() bool { return d.stdout }

// Path returns the destination file path, empty for streamed output.
func (d OutputDestination) Path() string { return d.path }

func (d OutputDestination) token() string {
	if d.stdout {
		return "pipe:1"
	}
	return d.path
}

// JobBuilder accumulates configuration for a single HandBrakeCLI
// invocation. Each setter overwrites any earlier value for the same logical
// option; per-track audio overrides are keyed by track index and never
// collide across tracks. The builder compiles to an argument vector exactly
// once, at start.
type JobBuilder struct {
	executable string
	input      InputSource
	output     OutputDestination

	preset       string
	videoCodec   string
	quality      *float64
	format       string
	subtitleLang string
	audioCodecs  map[int]string
	flags        map[string][]string
}

func newJobBuilder(executable string, input InputSource, output OutputDestination) *JobBuilder {
	return &JobBuilder{
		executable:  executable,
		input:       input,
		output:      output,
		audioCodecs: make(map[int]string),
		flags:       make(map[string][]string),
	}
}

// Preset selects a named HandBrake preset, e.g. "Fast 1080p30".
func (b *JobBuilder) Preset(name string) *JobBuilder {
	b.preset = name
	return b
}

// VideoCodec overrides the video encoder, e.g. "x265" or "av1".
func (b *JobBuilder) VideoCodec(codec string) *JobBuilder {
	b.videoCodec = codec
	return b
}

// Quality sets the constant-quality RF value. Lower is better quality.
func (b *JobBuilder) Quality(rf float64) *JobBuilder {
	b.quality = &rf
	return b
}

// Format selects the container format, e.g. "mp4" or "mkv".
func (b *JobBuilder) Format(container string) *JobBuilder {
	b.format = container
	return b
}

// AudioCodec overrides the audio encoder for one track. Calling it again
// for the same track replaces the earlier choice.
func (b *JobBuilder) AudioCodec(track int, codec string) *JobBuilder {
	b.audioCodecs[track] = codec
	return b
}

// SubtitleLang copies all subtitle tracks matching the given language. The
// input may be an ISO 639 code or an English language name; it is
// normalized to the three-letter code HandBrakeCLI expects.
func (b *JobBuilder) SubtitleLang(lang string) *JobBuilder {
	if code, ok := langcode.ISO3(lang); ok {
		lang = code
	}
	b.subtitleLang = lang
	return b
}

// Flag sets a generic option by flag name, e.g. Flag("--deinterlace") or
// Flag("--vfr"). Later calls with the same name replace earlier values.
func (b *JobBuilder) Flag(name string, values ...string) *JobBuilder {
	b.flags[name] = append([]string(nil), values...)
	return b
}

// BuildArgs compiles the accumulated options into the final argument
// vector. Compilation is pure and deterministic and cannot fail; invalid
// option combinations are HandBrakeCLI's concern and surface later as Log
// and Done events.
func (b *JobBuilder) BuildArgs() []string {
	args := []string{"-i", b.input.token(), "-o", b.output.token()}
	if b.preset != "" {
		args = append(args, "--preset", b.preset)
	}
	if b.videoCodec != "" {
		args = append(args, "--encoder", b.videoCodec)
	}
	tracks := make([]int, 0, len(b.audioCodecs))
	for track := range b.audioCodecs {
		tracks = append(tracks, track)
	}
	sort.Ints(tracks)
	for _, track := range tracks {
		args = append(args, "--audio", fmt.Sprintf("%d,%s", track, b.audioCodecs[track]))
	}
	if b.quality != nil {
		args = append(args, "--quality", strconv.FormatFloat(*b.quality, 'f', -1, 64))
	}
	if b.format != "" {
		args = append(args, "--format", b.format)
	}
	if b.subtitleLang != "" {
		args = append(args, "--subtitle-lang-list", b.subtitleLang)
	}
	names := make([]string, 0, len(b.flags))
	for name := range b.flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args = append(args, name)
		args = append(args, b.flags[name]...)
	}
	return args
}

// Start spawns HandBrakeCLI and begins pumping both pipes concurrently.
// The returned handle delivers events until a single terminal Done event.
// A spawn failure is returned immediately; no event stream exists then.
func (b *JobBuilder) Start(ctx context.Context) (*JobHandle, error) {
	cmd := commandContext(ctx, b.executable, b.BuildArgs()...)
	if b.input.stdin {
		cmd.Stdin = os.Stdin
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrSpawn, "handbrake", "start", "stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrSpawn, "handbrake", "start", "stderr pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrSpawn, "handbrake", "start", "spawn "+b.executable, err)
	}

	sink := &eventSink{
		ch:      make(chan Event, eventBuffer),
		tracker: newOutcomeTracker(time.Now()),
	}
	ctrl := newController(cmd, platformSignaller{})

	var pumps sync.WaitGroup
	pumps.Add(2)
	go pumpPipe(stdout, newStdoutClassifier(), sink, &pumps)
	go pumpPipe(stderr, newStderrClassifier(), sink, &pumps)
	go ctrl.supervise(&pumps, sink)

	return &JobHandle{ID: uuid.New(), events: sink.ch, ctrl: ctrl}, nil
}

// Run executes the job without event monitoring, inheriting the parent's
// standard streams, and blocks until the process exits. Only a spawn
// failure is distinguished; any other error is the process's exit result.
func (b *JobBuilder) Run(ctx context.Context) error {
	cmd := commandContext(ctx, b.executable, b.BuildArgs()...)
	if b.input.stdin {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrSpawn, "handbrake", "run", "spawn "+b.executable, err)
	}
	return cmd.Wait()
}
