package ffmpeg

import (
	"context"
	"fmt"
)

// FilterComplexOptions configures a single-pass filter-graph transcode of
// one stream type (video or audio) from a single input.
type FilterComplexOptions struct {
	Input        string
	Output       string
	Graph        string // full -filter_complex expression
	OutputLabel  string // e.g. "[outv]" or "[outa]"
	Encoder      string
	Preset       string // video only
	VideoOnly    bool   // drop audio (-an)
	AudioOnly    bool   // drop video (-vn)
	ProgressFunc ProgressFunc
}

// RunFilterComplex executes one pass of a filter-graph transcode.
func (e *Executor) RunFilterComplex(ctx context.Context, opts FilterComplexOptions) error {
	if opts.Graph == "" {
		return fmt.Errorf("filter graph is empty")
	}

	e.logger.Info().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Str("label", opts.OutputLabel).
		Msg("running filter-graph pass")

	args := []string{
		"-i", opts.Input,
		"-filter_complex", opts.Graph,
		"-map", opts.OutputLabel,
	}

	switch {
	case opts.VideoOnly:
		args = append(args, "-an", "-c:v", opts.Encoder)
		preset := opts.Preset
		if preset == "" {
			preset = DefaultPreset
		}
		args = append(args, "-preset", preset)
	case opts.AudioOnly:
		args = append(args, "-vn", "-c:a", opts.Encoder)
	default:
		return fmt.Errorf("filter-graph pass must be video-only or audio-only")
	}

	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("filter-graph pass")
		},
	}

	return e.Run(ctx, runOpts)
}

// Mux losslessly combines a video file and an optional audio file.
func (e *Executor) Mux(ctx context.Context, video, audio, output string) error {
	e.logger.Info().
		Str("video", video).
		Str("audio", audio).
		Str("output", output).
		Msg("muxing streams")

	args := []string{"-i", video}
	if audio != "" {
		args = append(args, "-i", audio)
	}
	args = append(args, "-c", "copy", output)

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("muxing")
		},
	}

	return e.Run(ctx, runOpts)
}
