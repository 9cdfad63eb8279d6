package analysis

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// motionProgressStride controls how often motion analysis reports progress.
const motionProgressStride = 30

// FrameSource is a finite, non-restartable sequence of decoded grayscale
// frames. Implementations own the decode handle; Close releases it and is
// safe to call after exhaustion or mid-stream.
type FrameSource interface {
	Next() ([]byte, error) // io.EOF at end of stream
	Size() (width, height int)
	Close() error
}

// MotionAnalyzer measures inter-frame motion over a centered crop of each
// frame. Edges are trimmed so tickers and watermarks don't register as
// motion.
type MotionAnalyzer struct {
	logger    zerolog.Logger
	cropRatio float64
}

// NewMotionAnalyzer creates an analyzer trimming cropRatio from each edge
// on both axes before comparison.
func NewMotionAnalyzer(logger zerolog.Logger, cropRatio float64) *MotionAnalyzer {
	if cropRatio < 0 || cropRatio >= 0.5 {
		cropRatio = 0.25
	}
	return &MotionAnalyzer{
		logger:    logger.With().Str("component", "motion").Logger(),
		cropRatio: cropRatio,
	}
}

// Analyze consumes src frame by frame and returns the pairwise-diff
// summary. totalFrames scales progress reporting and may be approximate.
// The source is always closed, on error paths included.
func (a *MotionAnalyzer) Analyze(src FrameSource, totalFrames int, progress ProgressFunc) (Summary, error) {
	defer src.Close()

	width, height := src.Size()

	prev, err := src.Next()
	if err != nil {
		if err == io.EOF {
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("read first frame: %w", err)
	}

	samples := make([]Sample, 0, totalFrames)
	frameNum := 0
	for {
		frame, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Summary{}, fmt.Errorf("read frame %d: %w", frameNum+1, err)
		}
		frameNum++

		diff := frameDiff(prev, frame, width, height, a.cropRatio)
		samples = append(samples, Sample{Index: frameNum, Value: diff})

		if progress != nil && frameNum%motionProgressStride == 0 {
			max := float64(totalFrames)
			if max < float64(frameNum) {
				max = float64(frameNum)
			}
			progress(float64(frameNum), max, "analyzing video")
		}

		prev = frame
	}

	summary := summarizeMotion(samples)
	a.logger.Info().
		Int("frame_pairs", len(samples)).
		Float64("mean_motion", summary.Mean).
		Msg("motion analysis complete")
	return summary, nil
}

// frameDiff returns the mean absolute pixel difference over the centered
// crop of two grayscale frames. A degenerate crop yields 0.
func frameDiff(a, b []byte, width, height int, cropRatio float64) float64 {
	top := int(float64(height) * cropRatio)
	bottom := int(float64(height) * (1 - cropRatio))
	left := int(float64(width) * cropRatio)
	right := int(float64(width) * (1 - cropRatio))

	if bottom <= top || right <= left {
		return 0
	}

	var sum int64
	for y := top; y < bottom; y++ {
		row := y * width
		for x := left; x < right; x++ {
			d := int(a[row+x]) - int(b[row+x])
			if d < 0 {
				d = -d
			}
			sum += int64(d)
		}
	}

	pixels := (bottom - top) * (right - left)
	return float64(sum) / float64(pixels)
}

func summarizeMotion(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	min, max, sum := samples[0].Value, samples[0].Value, 0.0
	for _, s := range samples {
		if s.Value < min {
			min = s.Value
		}
		if s.Value > max {
			max = s.Value
		}
		sum += s.Value
	}
	return Summary{Min: min, Max: max, Mean: sum / float64(len(samples)), Samples: samples}
}
