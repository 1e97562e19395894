package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hbwrap/internal/config"
	"hbwrap/internal/handbrake"
	"hbwrap/internal/langcode"
	"hbwrap/internal/logging"
)

type encodeOptions struct {
	input        string
	stdin        bool
	output       string
	stream       bool
	preset       string
	encoder      string
	quality      float64
	format       string
	audio        []string
	subtitleLang string
	options      []string
	timeout      time.Duration
	binary       string
	noProgress   bool
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	var opts encodeOptions

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Run a HandBrakeCLI encode with structured monitoring",
		Long: `Run a single HandBrakeCLI encode. Progress, log lines and the final
outcome are parsed from the encoder's output; on an interactive terminal a
progress bar is rendered, otherwise sampled progress is logged.

Examples:
  hbwrap encode -i movie.mkv -o movie.mp4 --preset "Fast 1080p30"
  hbwrap encode -i movie.mkv --stream --format mp4 > movie.mp4
  cat movie.mkv | hbwrap encode --stdin -o movie.mp4 --encoder x265`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd, ctx, &opts, cmd.Flags().Changed("quality"))
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input video file")
	cmd.Flags().BoolVar(&opts.stdin, "stdin", false, "Read the input video from standard input")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output video file")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "Write the encoded video to standard output")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "HandBrake preset name")
	cmd.Flags().StringVar(&opts.encoder, "encoder", "", "Video encoder, e.g. x264, x265, av1")
	cmd.Flags().Float64Var(&opts.quality, "quality", 0, "Constant quality RF value")
	cmd.Flags().StringVar(&opts.format, "format", "", "Container format, e.g. mp4 or mkv")
	cmd.Flags().StringArrayVar(&opts.audio, "audio", nil, "Audio track override as TRACK:CODEC (repeatable)")
	cmd.Flags().StringVar(&opts.subtitleLang, "subtitle-lang", "", "Copy subtitle tracks for this language")
	cmd.Flags().StringArrayVar(&opts.options, "option", nil, "Extra HandBrakeCLI option as NAME[=VALUE] (repeatable)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Kill the encode after this duration (0 = no limit)")
	cmd.Flags().StringVar(&opts.binary, "binary", "", "Path to the HandBrakeCLI executable")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable the interactive progress bar")

	return cmd
}

func runEncode(cmd *cobra.Command, ctx *commandContext, opts *encodeOptions, qualitySet bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "encode")

	if err := validateEncodeIO(opts); err != nil {
		return err
	}

	hb, err := discoverHandBrake(cmd, ctx, opts.binary)
	if err != nil {
		return err
	}

	if !opts.stream {
		release, err := lockOutput(opts.output)
		if err != nil {
			return err
		}
		defer release()
	}

	builder := hb.Job(encodeInput(opts), encodeOutput(opts))
	if err := applyEncodeOptions(builder, cfg.HandBrake, opts, qualitySet); err != nil {
		return err
	}

	handle, err := builder.Start(cmd.Context())
	if err != nil {
		return fmt.Errorf("start encode: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldJobID, handle.ID.String()))
	started := []logging.Attr{
		logging.String("executable", hb.Executable()),
		logging.Bool("streamed", opts.stream),
	}
	if opts.subtitleLang != "" {
		started = append(started, logging.String("subtitle_language", langcode.Name(opts.subtitleLang)))
	}
	logger.Info("encode started", logging.Args(started...)...)

	if opts.timeout > 0 {
		timer := time.AfterFunc(opts.timeout, func() {
			logger.Error("encode exceeded timeout, killing process",
				logging.Duration("timeout", opts.timeout))
			_ = handle.Kill()
		})
		defer timer.Stop()
	}

	monitor := newEncodeMonitor(logger, os.Stdout, monitorInteractive(cfg.Logging.Format, opts.noProgress))
	outcome := monitor.run(handle)
	if outcome == nil {
		return fmt.Errorf("encode ended without a terminal outcome")
	}
	if !outcome.OK {
		return encodeFailure(outcome.Failure)
	}

	logger.Info("encode finished",
		logging.Duration("elapsed", outcome.Summary.Elapsed),
		logging.Float64("avg_fps", outcome.Summary.AvgFPS),
	)
	if !opts.stream {
		fmt.Fprintf(cmd.ErrOrStderr(), "Encode finished in %s (avg %.2f fps): %s\n",
			outcome.Summary.Elapsed.Round(time.Second), outcome.Summary.AvgFPS, opts.output)
	}
	return nil
}

func validateEncodeIO(opts *encodeOptions) error {
	if opts.stdin == (strings.TrimSpace(opts.input) != "") {
		return fmt.Errorf("exactly one of --input or --stdin is required")
	}
	if opts.stream == (strings.TrimSpace(opts.output) != "") {
		return fmt.Errorf("exactly one of --output or --stream is required")
	}
	return nil
}

func discoverHandBrake(cmd *cobra.Command, ctx *commandContext, binaryFlag string) (*handbrake.HandBrake, error) {
	binary := strings.TrimSpace(binaryFlag)
	if binary == "" {
		if cfg, err := ctx.ensureConfig(); err == nil {
			binary = strings.TrimSpace(cfg.HandBrake.Binary)
		}
	}
	if binary != "" {
		return handbrake.NewWithPath(cmd.Context(), binary)
	}
	return handbrake.New(cmd.Context())
}

func encodeInput(opts *encodeOptions) handbrake.InputSource {
	if opts.stdin {
		return handbrake.InputStdin()
	}
	return handbrake.InputFile(opts.input)
}

func encodeOutput(opts *encodeOptions) handbrake.OutputDestination {
	if opts.stream {
		return handbrake.OutputStream()
	}
	return handbrake.OutputFile(opts.output)
}

func applyEncodeOptions(builder *handbrake.JobBuilder, defaults config.HandBrake, opts *encodeOptions, qualitySet bool) error {
	if preset := firstNonEmpty(opts.preset, defaults.Preset); preset != "" {
		builder.Preset(preset)
	}
	if format := firstNonEmpty(opts.format, defaults.Format); format != "" {
		builder.Format(format)
	}
	if opts.encoder != "" {
		builder.VideoCodec(opts.encoder)
	}
	if qualitySet {
		builder.Quality(opts.quality)
	}
	if opts.subtitleLang != "" {
		builder.SubtitleLang(opts.subtitleLang)
	}
	for _, spec := range opts.audio {
		track, codec, err := parseAudioSpec(spec)
		if err != nil {
			return err
		}
		builder.AudioCodec(track, codec)
	}
	for _, spec := range opts.options {
		name, values := parseOptionSpec(spec)
		builder.Flag(name, values...)
	}
	return nil
}

// compileArgs builds the argument vector without spawning or validating the
// executable.
func compileArgs(defaults config.HandBrake, opts *encodeOptions, qualitySet bool) ([]string, error) {
	builder := handbrake.NewJobBuilder(handbrake.ExecutableName, encodeInput(opts), encodeOutput(opts))
	if err := applyEncodeOptions(builder, defaults, opts, qualitySet); err != nil {
		return nil, err
	}
	return builder.BuildArgs(), nil
}

// parseAudioSpec parses a TRACK:CODEC override, e.g. "1:aac".
func parseAudioSpec(spec string) (int, string, error) {
	track, codec, ok := strings.Cut(strings.TrimSpace(spec), ":")
	if !ok {
		return 0, "", fmt.Errorf("audio override %q: expected TRACK:CODEC", spec)
	}
	index, err := strconv.Atoi(strings.TrimSpace(track))
	if err != nil || index < 0 {
		return 0, "", fmt.Errorf("audio override %q: invalid track number", spec)
	}
	codec = strings.TrimSpace(codec)
	if codec == "" {
		return 0, "", fmt.Errorf("audio override %q: codec is required", spec)
	}
	return index, codec, nil
}

// parseOptionSpec parses an extra option, e.g. "deinterlace" or "rate=30".
func parseOptionSpec(spec string) (string, []string) {
	name, value, hasValue := strings.Cut(strings.TrimSpace(spec), "=")
	if !strings.HasPrefix(name, "-") {
		name = "--" + name
	}
	if !hasValue {
		return name, nil
	}
	return name, []string{value}
}

func encodeFailure(failure *handbrake.Failure) error {
	if failure == nil {
		return fmt.Errorf("encode failed")
	}
	if failure.ExitCode != nil {
		return fmt.Errorf("encode failed: %s (exit code %d)", failure.Message, *failure.ExitCode)
	}
	return fmt.Errorf("encode failed: %s", failure.Message)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
