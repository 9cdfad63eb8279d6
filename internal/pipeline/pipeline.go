package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/KisaragiIchigo/MovieAutoCutter/internal/analysis"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/config"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/detect"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/ffmpeg"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/render"
	"github.com/KisaragiIchigo/MovieAutoCutter/pkg/util"
)

// Pipeline wires probing, the two analyzers, detection and the render
// stage into one run over a single source file.
type Pipeline struct {
	logger zerolog.Logger
	cfg    *config.Config
	exec   *ffmpeg.Executor
}

// New creates a pipeline. Fails up front when the external tools are
// missing since every later stage depends on them.
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	exec, err := ffmpeg.New(logger, cfg.FFmpeg.Threads)
	if err != nil {
		if errors.Is(err, ffmpeg.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrExternalToolMissing, err)
		}
		return nil, err
	}
	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		cfg:    cfg,
		exec:   exec,
	}, nil
}

// signals carries whatever the analysis stage produced for one source.
type signals struct {
	audio           *analysis.Summary
	audioDurationMs int64
	motion          *analysis.Summary
	totalFrames     int
}

// Analyze runs the analysis stage only and reports the measured signal
// statistics, for threshold tuning before a real run.
func (p *Pipeline) Analyze(ctx context.Context, source string, opts Options) (*Report, error) {
	info, err := p.probe(ctx, source)
	if err != nil {
		return nil, err
	}

	sig, err := p.analyze(ctx, source, info, opts)
	if err != nil {
		return nil, err
	}

	return &Report{
		Audio:      sig.audio,
		Motion:     sig.motion,
		DurationMs: info.Duration.Milliseconds(),
		FPS:        info.FPS,
	}, nil
}

// Run executes the full pipeline and returns where the output landed.
// An empty detection plan returns ErrEmptyPlan with no output written.
func (p *Pipeline) Run(ctx context.Context, source string, opts Options) (*Result, error) {
	info, err := p.probe(ctx, source)
	if err != nil {
		return nil, err
	}

	sig, err := p.analyze(ctx, source, info, opts)
	if err != nil {
		return nil, err
	}

	plan := p.plan(sig, info)
	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}

	var cutMs int64
	for _, r := range plan {
		cutMs += r.DurationMs()
	}
	p.logger.Info().
		Int("intervals", len(plan)).
		Str("total", util.FormatDuration(time.Duration(cutMs)*time.Millisecond)).
		Msg("detection plan ready")

	selector := render.NewSelector(p.logger, p.exec)
	out, err := selector.Render(ctx, source, plan, info, render.Options{
		Mode:             opts.RenderMode,
		PreMarginMs:      int64(p.cfg.Render.PreCutSeconds * 1000),
		PostMarginMs:     int64(p.cfg.Render.PostCutSeconds * 1000),
		Speed:            p.cfg.Render.SpeedupFactor,
		Volume:           float64(p.cfg.Render.SpeedupVolumePct) / 100,
		EncoderPriority:  p.cfg.Render.EncoderPriority,
		MaxConcatStreams: p.cfg.Render.MaxConcatStreams,
		UseFastPath:      p.cfg.Render.UseFastPath,
		Preset:           p.cfg.FFmpeg.Preset,
	}, opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	return &Result{OutputPath: out, Plan: plan, CutMs: cutMs}, nil
}

func (p *Pipeline) probe(ctx context.Context, source string) (*ffmpeg.VideoInfo, error) {
	info, err := p.exec.ProbeVideo(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if info.Duration <= 0 || info.Width <= 0 {
		return nil, fmt.Errorf("%w: no playable video stream in %s", ErrSourceUnreadable, source)
	}
	return info, nil
}

// analyze runs the requested analyzers concurrently. Audio occupies the
// first half of the progress scale and video the second, so the two
// phases interleave without fighting over the bar.
func (p *Pipeline) analyze(ctx context.Context, source string, info *ffmpeg.VideoInfo, opts Options) (*signals, error) {
	wantAudio := opts.Detect.wantsAudio() && info.HasAudio
	if opts.Detect == DetectAudio && !info.HasAudio {
		return nil, fmt.Errorf("%w: audio detection requested but %s has no audio track", ErrSourceUnreadable, source)
	}
	if opts.Detect.wantsAudio() && !info.HasAudio {
		p.logger.Warn().Str("source", source).Msg("no audio track, skipping loudness analysis")
	}
	wantVideo := opts.Detect.wantsVideo()

	sig := &signals{}
	var wg sync.WaitGroup
	var audioErr, videoErr error

	if wantAudio {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig.audio, sig.audioDurationMs, audioErr = p.analyzeAudio(ctx, source, opts.Progress)
		}()
	}

	if wantVideo {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig.motion, sig.totalFrames, videoErr = p.analyzeVideo(ctx, source, info, opts.Progress)
		}()
	}

	wg.Wait()

	if audioErr != nil {
		return nil, fmt.Errorf("audio analysis: %w", audioErr)
	}
	if videoErr != nil {
		return nil, fmt.Errorf("video analysis: %w", videoErr)
	}
	return sig, nil
}

func (p *Pipeline) analyzeAudio(ctx context.Context, source string, progress analysis.ProgressFunc) (*analysis.Summary, int64, error) {
	tmp, err := os.CreateTemp("", "movieautocut-*.wav")
	if err != nil {
		return nil, 0, fmt.Errorf("create temp wav: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer util.CleanupFiles(tmpPath)

	if err := p.exec.ExtractAudio(ctx, source, tmpPath, ffmpeg.DefaultAnalysisFormat(), nil); err != nil {
		return nil, 0, fmt.Errorf("extract audio: %w", err)
	}

	phase := analysis.Phase{Offset: 0, Weight: 50, Label: "analyzing audio"}
	analyzer := analysis.NewLoudnessAnalyzer(p.logger, p.cfg.Analysis.AudioChunkMs)
	summary, durationMs, err := analyzer.AnalyzeFile(tmpPath, phase.Wrap(progress))
	if err != nil {
		return nil, 0, err
	}
	return &summary, durationMs, nil
}

func (p *Pipeline) analyzeVideo(ctx context.Context, source string, info *ffmpeg.VideoInfo, progress analysis.ProgressFunc) (*analysis.Summary, int, error) {
	reader, err := p.exec.OpenFrameReader(ctx, source, p.cfg.Analysis.VideoScale)
	if err != nil {
		return nil, 0, fmt.Errorf("open frame stream: %w", err)
	}

	fps := info.FPS
	if fps <= 0 {
		fps = 30
	}
	totalFrames := int(info.Duration.Seconds() * fps)

	phase := analysis.Phase{Offset: 50, Weight: 50, Label: "analyzing video"}
	analyzer := analysis.NewMotionAnalyzer(p.logger, p.cfg.Analysis.VideoCropRatio)
	summary, err := analyzer.Analyze(reader, totalFrames, phase.Wrap(progress))
	if err != nil {
		return nil, 0, err
	}
	return &summary, totalFrames, nil
}

// plan turns the measured signals into the merged interval plan. Ranges
// whose margin expansions would touch are folded together up front.
func (p *Pipeline) plan(sig *signals, info *ffmpeg.VideoInfo) []detect.TimeRange {
	gapMs := int64((p.cfg.Render.PreCutSeconds + p.cfg.Render.PostCutSeconds) * 1000)

	var silence, static []detect.TimeRange

	if sig.audio != nil {
		d := detect.SilenceDetector{
			ChunkMs:     int64(p.cfg.Analysis.AudioChunkMs),
			ThresholdDB: p.cfg.Detection.SilenceThresholdDB,
		}
		silence = d.Detect(sig.audio.Samples, sig.audioDurationMs)
		p.logger.Debug().Int("raw_ranges", len(silence)).Msg("silence detection done")
	}

	if sig.motion != nil {
		d := detect.StaticRegionDetector{
			FPS:       info.FPS,
			Threshold: p.cfg.Detection.MotionThreshold,
		}
		static = d.Detect(sig.motion.Samples, sig.totalFrames)
		p.logger.Debug().Int("raw_ranges", len(static)).Msg("static region detection done")
	}

	switch {
	case sig.audio != nil && sig.motion != nil:
		return detect.Combine(silence, static, p.cfg.Detection.MinSilenceMs, p.cfg.Detection.MinStaticMs, gapMs)
	case sig.audio != nil:
		return detect.Merge(silence, p.cfg.Detection.MinSilenceMs, gapMs)
	case sig.motion != nil:
		return detect.Merge(static, p.cfg.Detection.MinStaticMs, gapMs)
	default:
		return nil
	}
}
