package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newArgsCommand compiles the argument vector an encode invocation would
// use, without spawning anything. Useful for debugging option handling.
func newArgsCommand(ctx *commandContext) *cobra.Command {
	var opts encodeOptions

	cmd := &cobra.Command{
		Use:   "args",
		Short: "Print the HandBrakeCLI arguments an encode would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if err := validateEncodeIO(&opts); err != nil {
				return err
			}
			argv, err := compileArgs(cfg.HandBrake, &opts, cmd.Flags().Changed("quality"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(argv, " "))
			return nil
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

	return cmd
}
