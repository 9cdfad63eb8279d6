package pipeline

import (
	"errors"
	"fmt"

	"github.com/KisaragiIchigo/MovieAutoCutter/internal/analysis"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/detect"
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/render"
)

var (
	// ErrExternalToolMissing means ffmpeg or ffprobe was not found; both
	// render paths depend on them, so nothing can proceed.
	ErrExternalToolMissing = errors.New("ffmpeg/ffprobe not found in PATH")

	// ErrSourceUnreadable means the input could not be probed as a video.
	ErrSourceUnreadable = errors.New("source is not a readable video")

	// ErrEmptyPlan means detection found nothing long enough to act on.
	// Informational: the source simply has no qualifying dead intervals.
	ErrEmptyPlan = errors.New("no dead intervals detected")
)

// DetectMode selects which signals drive detection.
type DetectMode int

const (
	DetectBoth DetectMode = iota
	DetectAudio
	DetectVideo
)

// ParseDetectMode maps the CLI spelling to a DetectMode.
func ParseDetectMode(s string) (DetectMode, error) {
	switch s {
	case "both", "":
		return DetectBoth, nil
	case "audio":
		return DetectAudio, nil
	case "video":
		return DetectVideo, nil
	default:
		return DetectBoth, fmt.Errorf("unknown detect mode %q (want audio, video or both)", s)
	}
}

func (m DetectMode) wantsAudio() bool { return m == DetectBoth || m == DetectAudio }
func (m DetectMode) wantsVideo() bool { return m == DetectBoth || m == DetectVideo }

// Options are the per-run knobs layered over the loaded config.
type Options struct {
	Detect     DetectMode
	RenderMode render.Mode
	Progress   analysis.ProgressFunc
}

// Report is the outcome of an analysis-only run.
type Report struct {
	Audio      *analysis.Summary
	Motion     *analysis.Summary
	DurationMs int64
	FPS        float64
}

// Result is the outcome of a full processing run.
type Result struct {
	OutputPath string
	Plan       []detect.TimeRange
	CutMs      int64 // total planned interval length
}
