package detect

import (
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/analysis"
)

// StaticRegionDetector thresholds a per-frame motion sequence into
// contiguous low-motion time ranges. Frame indices convert to time via the
// source frame rate.
type StaticRegionDetector struct {
	FPS       float64
	Threshold float64
}

// Detect walks the pairwise motion samples in order. Sample.Index is the
// frame number of the later frame in each pair. A run still open when
// samples end closes at totalFrames converted to milliseconds.
func (d StaticRegionDetector) Detect(samples []analysis.Sample, totalFrames int) []TimeRange {
	fps := d.FPS
	if fps <= 0 {
		fps = 30 // probe could not determine a rate
	}

	var ranges []TimeRange
	inStatic := false
	staticStartFrame := 0

	for _, s := range samples {
		staticNow := s.Value < d.Threshold

		if staticNow && !inStatic {
			inStatic = true
			staticStartFrame = s.Index
		} else if !staticNow && inStatic {
			inStatic = false
			ranges = append(ranges, TimeRange{
				StartMs: frameToMs(staticStartFrame, fps),
				EndMs:   frameToMs(s.Index, fps),
			})
		}
	}

	if inStatic {
		ranges = append(ranges, TimeRange{
			StartMs: frameToMs(staticStartFrame, fps),
			EndMs:   frameToMs(totalFrames, fps),
		})
	}

	return ranges
}

func frameToMs(frame int, fps float64) int64 {
	return int64(float64(frame) / fps * 1000)
}
