package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/KisaragiIchigo/MovieAutoCutter/internal/analysis"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/detect"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/ffmpeg"
)

// Options configures one render job.
type Options struct {
	Mode             Mode
	PreMarginMs      int64
	PostMarginMs     int64
	Speed            float64
	Volume           float64 // 0..1
	EncoderPriority  []string
	MaxConcatStreams int
	UseFastPath      bool
	Preset           string
}

// Runner is the slice of the ffmpeg executor the render stage drives.
type Runner interface {
	RunFilterComplex(ctx context.Context, opts ffmpeg.FilterComplexOptions) error
	Mux(ctx context.Context, videoInput, audioInput, output string) error
	ExtractClip(ctx context.Context, input string, opts ffmpeg.ClipOptions) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
}

// Selector estimates the graph cost, picks between the single-pass
// filter-graph transcode and the segment-by-segment fallback, and
// downgrades exactly once on fast-path failure.
type Selector struct {
	logger zerolog.Logger
	exec   Runner

	// Estimate maps plan size to a stream-count proxy compared against
	// MaxConcatStreams. Replaceable: the default 2*N+1 is approximate,
	// not authoritative arithmetic.
	Estimate func(planRanges int, hasAudio bool) int
}

// NewSelector creates a selector backed by the given executor.
func NewSelector(logger zerolog.Logger, exec Runner) *Selector {
	return &Selector{
		logger:   logger.With().Str("component", "render").Logger(),
		exec:     exec,
		Estimate: EstimateStreams,
	}
}

// EstimateStreams is the default stream-count proxy: one trimmed stream
// per plan range boundary side plus the tail.
func EstimateStreams(planRanges int, hasAudio bool) int {
	return planRanges*2 + 1
}

// Render executes the plan against source and returns the output path.
func (s *Selector) Render(ctx context.Context, source string, plan []detect.TimeRange, info *ffmpeg.VideoInfo, opts Options, progress analysis.ProgressFunc) (string, error) {
	graph := Build(plan, GraphOptions{
		Mode:         opts.Mode,
		PreMarginMs:  opts.PreMarginMs,
		PostMarginMs: opts.PostMarginMs,
		Speed:        opts.Speed,
		Volume:       opts.Volume,
		HasAudio:     info.HasAudio,
		FPS:          info.FPS,
		DurationMs:   info.Duration.Milliseconds(),
	})
	if graph.SegmentCount() == 0 {
		return "", fmt.Errorf("plan leaves no output segments")
	}

	out, err := OutputPath(source)
	if err != nil {
		return "", fmt.Errorf("prepare output dir: %w", err)
	}

	streams := s.Estimate(len(plan), info.HasAudio)
	useFast := opts.UseFastPath && streams <= opts.MaxConcatStreams
	if opts.UseFastPath && !useFast {
		s.logger.Warn().
			Int("streams", streams).
			Int("cap", opts.MaxConcatStreams).
			Msg("stream count exceeds filter-graph ceiling, using segment renderer")
	}

	if useFast {
		s.logger.Info().Int("segments", graph.SegmentCount()).Msg("rendering via single-pass filter graph")
		if err := s.fastPath(ctx, source, graph, opts, out, info, progress); err == nil {
			return out, nil
		} else {
			// Exactly one automatic downgrade; the fast-path failure is
			// recovered here, not surfaced.
			s.logger.Warn().Err(err).Msg("filter-graph transcode failed, falling back to segment renderer")
			if progress != nil {
				progress(0, 100, "switching to segment renderer")
			}
		}
	} else {
		s.logger.Info().Int("segments", graph.SegmentCount()).Msg("rendering via segment renderer")
	}

	if err := s.safePath(ctx, source, graph, opts, out, progress); err != nil {
		return "", err
	}
	return out, nil
}

// fastPath runs the three sequential external steps: video-only graph
// pass, audio-only graph pass when audio exists, then a lossless mux.
func (s *Selector) fastPath(ctx context.Context, source string, graph FilterGraph, opts Options, out string, info *ffmpeg.VideoInfo, progress analysis.ProgressFunc) error {
	tmpDir, err := os.MkdirTemp("", "movieautocut-fast-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	encoder := ffmpeg.DefaultVideoCodec
	if len(opts.EncoderPriority) > 0 {
		encoder = opts.EncoderPriority[0]
	}

	totalFrames := float64(info.Duration.Seconds()) * info.FPS
	progressHandler := func(p *ffmpeg.Progress) {
		if progress != nil && totalFrames > 0 {
			progress(float64(p.Frame), totalFrames, "rendering video")
		}
	}

	tempVideo := filepath.Join(tmpDir, "video.mp4")
	if err := s.exec.RunFilterComplex(ctx, ffmpeg.FilterComplexOptions{
		Input:        source,
		Output:       tempVideo,
		Graph:        graph.VideoGraph(),
		OutputLabel:  "[outv]",
		Encoder:      encoder,
		Preset:       opts.Preset,
		VideoOnly:    true,
		ProgressFunc: progressHandler,
	}); err != nil {
		return fmt.Errorf("video pass: %w", err)
	}

	tempAudio := ""
	if audioGraph := graph.AudioGraph(); audioGraph != "" {
		tempAudio = filepath.Join(tmpDir, "audio.m4a")
		if err := s.exec.RunFilterComplex(ctx, ffmpeg.FilterComplexOptions{
			Input:       source,
			Output:      tempAudio,
			Graph:       audioGraph,
			OutputLabel: "[outa]",
			Encoder:     ffmpeg.DefaultAudioCodec,
			AudioOnly:   true,
		}); err != nil {
			return fmt.Errorf("audio pass: %w", err)
		}
	}

	if err := s.exec.Mux(ctx, tempVideo, tempAudio, out); err != nil {
		return fmt.Errorf("mux: %w", err)
	}
	return nil
}

// safePath materializes every segment as an independent clip with the same
// per-segment transform, concatenates them in order, and encodes trying
// each encoder in priority order until one succeeds.
func (s *Selector) safePath(ctx context.Context, source string, graph FilterGraph, opts Options, out string, progress analysis.ProgressFunc) error {
	encoders := opts.EncoderPriority
	if len(encoders) == 0 {
		encoders = []string{ffmpeg.DefaultVideoCodec}
	}

	tmpDir, err := os.MkdirTemp("", "movieautocut-safe-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var lastErr error
	for _, encoder := range encoders {
		segDir := filepath.Join(tmpDir, encoder)
		if err := os.MkdirAll(segDir, 0755); err != nil {
			return fmt.Errorf("create segment dir: %w", err)
		}

		inputs, err := s.renderSegments(ctx, source, graph, encoder, opts, segDir, progress)
		if err != nil {
			s.logger.Warn().Err(err).Str("encoder", encoder).Msg("segment render failed, trying next encoder")
			lastErr = err
			continue
		}

		if err := s.exec.Concat(ctx, ffmpeg.ConcatOptions{
			Inputs: inputs,
			Output: out,
			ProgressFunc: func(p *ffmpeg.Progress) {
				if progress != nil {
					progress(float64(len(inputs)), float64(len(inputs)+1), "joining segments")
				}
			},
		}); err != nil {
			s.logger.Warn().Err(err).Str("encoder", encoder).Msg("segment join failed, trying next encoder")
			lastErr = err
			continue
		}

		return nil
	}

	return fmt.Errorf("all encoders failed: %w", lastErr)
}

func (s *Selector) renderSegments(ctx context.Context, source string, graph FilterGraph, encoder string, opts Options, dir string, progress analysis.ProgressFunc) ([]string, error) {
	inputs := make([]string, 0, len(graph.Segments))
	for i, seg := range graph.Segments {
		clip := ffmpeg.ClipOptions{
			Start:      time.Duration(seg.StartMs) * time.Millisecond,
			End:        time.Duration(seg.EndMs) * time.Millisecond,
			Output:     filepath.Join(dir, fmt.Sprintf("seg_%03d.mp4", i)),
			VideoCodec: encoder,
			Preset:     opts.Preset,
		}
		if seg.Kind == Transform && seg.Speed > 1 {
			clip.VideoFilter = fmt.Sprintf("setpts=PTS/%g", seg.Speed)
			audioFilter := AtempoFilter(seg.Speed)
			if audioFilter != "" {
				audioFilter += ","
			}
			clip.AudioFilter = audioFilter + fmt.Sprintf("volume=%.4f", seg.Volume)
		}

		if err := s.exec.ExtractClip(ctx, source, clip); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		inputs = append(inputs, clip.Output)

		if progress != nil {
			progress(float64(i+1), float64(len(graph.Segments)), "preparing segments")
		}
	}
	return inputs, nil
}
