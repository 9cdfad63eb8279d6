package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"github.com/KisaragiIchigo/MovieAutoCutter/pkg/util"
)

// ClipOptions defines segment extraction parameters
type ClipOptions struct {
	Start        time.Duration
	End          time.Duration
	Output       string
	VideoFilter  string // optional -vf chain applied to the cut
	AudioFilter  string // optional -af chain applied to the cut
	VideoCodec   string
	AudioCodec   string
	CRF          int
	Preset       string
	ProgressFunc ProgressFunc
}

// ExtractClip cuts a segment from a video, optionally applying per-segment
// video/audio filter chains (speed change, volume scale).
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	duration := opts.End - opts.Start
	if duration <= 0 {
		return fmt.Errorf("invalid clip duration: end must be after start")
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Dur("start", opts.Start).
		Dur("duration", duration).
		Msg("extracting segment")

	args := []string{
		"-i", input,
		"-ss", util.FormatDuration(opts.Start),
		"-t", util.FormatDuration(duration),
	}

	if opts.VideoFilter != "" {
		args = append(args, "-vf", opts.VideoFilter)
	}
	if opts.AudioFilter != "" {
		args = append(args, "-af", opts.AudioFilter)
	}

	codec := opts.VideoCodec
	if codec == "" {
		codec = DefaultVideoCodec
	}
	args = append(args, "-c:v", codec)

	audioCodec := opts.AudioCodec
	if audioCodec == "" {
		audioCodec = DefaultAudioCodec
	}
	args = append(args, "-c:a", audioCodec)

	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	args = append(args, "-crf", fmt.Sprintf("%d", crf))

	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	args = append(args, "-preset", preset)

	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("segment extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("segment extraction failed: %w", err)
	}

	return nil
}
