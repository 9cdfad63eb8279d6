package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/KisaragiIchigo/MovieAutoCutter/internal/detect"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/ffmpeg"
)

// fakeRunner records calls and fails on demand.
type fakeRunner struct {
	filterComplexCalls []ffmpeg.FilterComplexOptions
	clipCalls          []ffmpeg.ClipOptions
	concatCalls        []ffmpeg.ConcatOptions
	muxCalls           int

	failFilterComplex bool
	failClipEncoders  map[string]bool // encoder name -> fail
}

func (f *fakeRunner) RunFilterComplex(ctx context.Context, opts ffmpeg.FilterComplexOptions) error {
	f.filterComplexCalls = append(f.filterComplexCalls, opts)
	if f.failFilterComplex {
		return errors.New("filter graph exploded")
	}
	return nil
}

func (f *fakeRunner) Mux(ctx context.Context, videoInput, audioInput, output string) error {
	f.muxCalls++
	return nil
}

func (f *fakeRunner) ExtractClip(ctx context.Context, input string, opts ffmpeg.ClipOptions) error {
	f.clipCalls = append(f.clipCalls, opts)
	if f.failClipEncoders[opts.VideoCodec] {
		return errors.New("encoder not available")
	}
	return nil
}

func (f *fakeRunner) Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error {
	f.concatCalls = append(f.concatCalls, opts)
	return nil
}

func testSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	source := filepath.Join(dir, "input.mp4")
	if err := os.WriteFile(source, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	return source
}

func testInfo() *ffmpeg.VideoInfo {
	return &ffmpeg.VideoInfo{
		Duration: 60 * time.Second,
		Width:    1920,
		Height:   1080,
		FPS:      30,
		HasAudio: true,
	}
}

func testOptions() Options {
	return Options{
		Mode:             ModeRemove,
		PreMarginMs:      2000,
		PostMarginMs:     1000,
		Speed:            5,
		Volume:           0.5,
		EncoderPriority:  []string{"h264_nvenc", "libx264"},
		MaxConcatStreams: 50,
		UseFastPath:      true,
		Preset:           "fast",
	}
}

func smallPlan() []detect.TimeRange {
	return []detect.TimeRange{{StartMs: 10000, EndMs: 20000}}
}

func largePlan() []detect.TimeRange {
	plan := make([]detect.TimeRange, 30)
	for i := range plan {
		plan[i] = detect.TimeRange{StartMs: int64(i * 2000), EndMs: int64(i*2000 + 500)}
	}
	return plan
}

func TestEstimateStreams(t *testing.T) {
	if got := EstimateStreams(10, true); got != 21 {
		t.Errorf("EstimateStreams(10) = %d, want 21", got)
	}
	if got := EstimateStreams(0, false); got != 1 {
		t.Errorf("EstimateStreams(0) = %d, want 1", got)
	}
}

func TestRenderUsesFastPathForSmallPlans(t *testing.T) {
	runner := &fakeRunner{}
	sel := NewSelector(zerolog.Nop(), runner)

	out, err := sel.Render(context.Background(), testSource(t), smallPlan(), testInfo(), testOptions(), nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out == "" {
		t.Fatal("no output path returned")
	}

	// Video and audio graph passes, a mux, and no per-segment clips.
	if len(runner.filterComplexCalls) != 2 {
		t.Errorf("expected 2 filter graph passes, got %d", len(runner.filterComplexCalls))
	}
	if runner.muxCalls != 1 {
		t.Errorf("expected 1 mux, got %d", runner.muxCalls)
	}
	if len(runner.clipCalls) != 0 {
		t.Errorf("fast path should not cut clips, got %d", len(runner.clipCalls))
	}
	if runner.filterComplexCalls[0].Encoder != "h264_nvenc" {
		t.Errorf("fast path should use the first priority encoder, got %q", runner.filterComplexCalls[0].Encoder)
	}
}

func TestRenderLargePlanGoesStraightToSafePath(t *testing.T) {
	runner := &fakeRunner{}
	sel := NewSelector(zerolog.Nop(), runner)

	// 30 ranges estimate to 61 streams against a ceiling of 50.
	_, err := sel.Render(context.Background(), testSource(t), largePlan(), testInfo(), testOptions(), nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if len(runner.filterComplexCalls) != 0 {
		t.Errorf("large plan must skip the filter graph, got %d passes", len(runner.filterComplexCalls))
	}
	if len(runner.clipCalls) == 0 {
		t.Error("safe path should cut clips")
	}
	if len(runner.concatCalls) != 1 {
		t.Errorf("expected 1 concat, got %d", len(runner.concatCalls))
	}
}

func TestRenderFastPathDisabled(t *testing.T) {
	runner := &fakeRunner{}
	sel := NewSelector(zerolog.Nop(), runner)

	opts := testOptions()
	opts.UseFastPath = false
	_, err := sel.Render(context.Background(), testSource(t), smallPlan(), testInfo(), opts, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(runner.filterComplexCalls) != 0 {
		t.Error("disabled fast path still ran a filter graph pass")
	}
	if len(runner.clipCalls) == 0 {
		t.Error("safe path should cut clips")
	}
}

func TestRenderDowngradesOnceOnFastPathFailure(t *testing.T) {
	runner := &fakeRunner{failFilterComplex: true}
	sel := NewSelector(zerolog.Nop(), runner)

	out, err := sel.Render(context.Background(), testSource(t), smallPlan(), testInfo(), testOptions(), nil)
	if err != nil {
		t.Fatalf("fast path failure should be recovered, got: %v", err)
	}
	if out == "" {
		t.Fatal("no output path returned")
	}

	// One failed video pass, then the segment renderer took over.
	if len(runner.filterComplexCalls) != 1 {
		t.Errorf("expected exactly 1 attempted graph pass, got %d", len(runner.filterComplexCalls))
	}
	if len(runner.clipCalls) == 0 {
		t.Error("fallback did not cut clips")
	}
	if len(runner.concatCalls) != 1 {
		t.Errorf("expected 1 concat in fallback, got %d", len(runner.concatCalls))
	}
}

func TestSafePathTriesEncodersInOrder(t *testing.T) {
	runner := &fakeRunner{
		failFilterComplex: true,
		failClipEncoders:  map[string]bool{"h264_nvenc": true},
	}
	sel := NewSelector(zerolog.Nop(), runner)

	_, err := sel.Render(context.Background(), testSource(t), smallPlan(), testInfo(), testOptions(), nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var sawFallbackEncoder bool
	for _, c := range runner.clipCalls {
		if c.VideoCodec == "libx264" {
			sawFallbackEncoder = true
		}
	}
	if !sawFallbackEncoder {
		t.Error("second priority encoder was never tried")
	}
}

func TestSafePathAllEncodersFail(t *testing.T) {
	runner := &fakeRunner{
		failClipEncoders: map[string]bool{"h264_nvenc": true, "libx264": true},
	}
	sel := NewSelector(zerolog.Nop(), runner)

	opts := testOptions()
	opts.UseFastPath = false
	_, err := sel.Render(context.Background(), testSource(t), smallPlan(), testInfo(), opts, nil)
	if err == nil {
		t.Fatal("expected error when every encoder fails")
	}
}

func TestRenderSpeedupSegmentsCarryFilters(t *testing.T) {
	runner := &fakeRunner{}
	sel := NewSelector(zerolog.Nop(), runner)

	opts := testOptions()
	opts.Mode = ModeSpeedup
	opts.UseFastPath = false
	_, err := sel.Render(context.Background(), testSource(t), smallPlan(), testInfo(), opts, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var transform *ffmpeg.ClipOptions
	for i := range runner.clipCalls {
		if runner.clipCalls[i].VideoFilter != "" {
			transform = &runner.clipCalls[i]
		}
	}
	if transform == nil {
		t.Fatal("no sped-up segment found")
	}
	if transform.VideoFilter != "setpts=PTS/5" {
		t.Errorf("video filter = %q", transform.VideoFilter)
	}
	if transform.AudioFilter != "atempo=5.0000,volume=0.5000" {
		t.Errorf("audio filter = %q", transform.AudioFilter)
	}
}

func TestRenderEmptyPlanAfterRemoval(t *testing.T) {
	runner := &fakeRunner{}
	sel := NewSelector(zerolog.Nop(), runner)

	// The whole file is one dead interval; remove mode leaves nothing.
	info := testInfo()
	opts := testOptions()
	opts.PreMarginMs = 0
	opts.PostMarginMs = 0
	plan := []detect.TimeRange{{StartMs: 0, EndMs: info.Duration.Milliseconds()}}

	_, err := sel.Render(context.Background(), testSource(t), plan, info, opts, nil)
	if err == nil {
		t.Fatal("expected error for a plan covering the whole file")
	}
}
