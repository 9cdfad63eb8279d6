package detect

import (
	"github.com/KisaragiIchigo/MovieAutoCutter/internal/analysis"
)

// SilenceDetector thresholds a per-chunk loudness sequence into contiguous
// sub-threshold time ranges.
type SilenceDetector struct {
	ChunkMs     int64
	ThresholdDB float64
}

// Detect walks the chunk sequence in order. A chunk is silent when its
// loudness is below the threshold or it was floor-filled for true zero
// energy. A run still open at the end closes at totalDurationMs.
func (d SilenceDetector) Detect(samples []analysis.Sample, totalDurationMs int64) []TimeRange {
	var ranges []TimeRange
	inSilence := false
	var silenceStart int64

	for i, s := range samples {
		timeMs := int64(i) * d.ChunkMs
		silent := s.Value < d.ThresholdDB || s.Value <= analysis.SilenceFloorDB

		if silent {
			if !inSilence {
				inSilence = true
				silenceStart = timeMs
			}
		} else if inSilence {
			inSilence = false
			ranges = append(ranges, TimeRange{StartMs: silenceStart, EndMs: timeMs})
		}
	}

	if inSilence {
		ranges = append(ranges, TimeRange{StartMs: silenceStart, EndMs: totalDurationMs})
	}

	return ranges
}
