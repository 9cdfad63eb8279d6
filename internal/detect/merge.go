package detect

import "sort"

// combineGapMs is the fixed tolerance used when folding independently
// merged audio and video ranges into one plan.
const combineGapMs = 100

// Merge folds near and overlapping ranges together and drops anything
// shorter than minDurationMs. Input order does not matter; correctness
// depends on the initial sort. The output is ascending and disjoint, and
// merging it again with the same parameters is a no-op.
func Merge(ranges []TimeRange, minDurationMs, gapMs int64) []TimeRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartMs < sorted[j].StartMs
	})

	var merged []TimeRange
	currentStart, currentEnd := sorted[0].StartMs, sorted[0].EndMs

	for _, next := range sorted[1:] {
		if next.StartMs < currentEnd+gapMs {
			if next.EndMs > currentEnd {
				currentEnd = next.EndMs
			}
		} else {
			if currentEnd-currentStart >= minDurationMs {
				merged = append(merged, TimeRange{StartMs: currentStart, EndMs: currentEnd})
			}
			currentStart, currentEnd = next.StartMs, next.EndMs
		}
	}

	if currentEnd-currentStart >= minDurationMs {
		merged = append(merged, TimeRange{StartMs: currentStart, EndMs: currentEnd})
	}

	return merged
}

// Combine produces the final plan from audio- and video-derived ranges.
// Each source is merged with its own minimum duration first, then the two
// lists are folded together with a small fixed gap tolerance. The two-stage
// merge is required because the sources carry independent minimums.
func Combine(silence, static []TimeRange, minSilenceMs, minStaticMs, gapMs int64) []TimeRange {
	mergedSilence := Merge(silence, minSilenceMs, gapMs)
	mergedStatic := Merge(static, minStaticMs, gapMs)

	combined := make([]TimeRange, 0, len(mergedSilence)+len(mergedStatic))
	combined = append(combined, mergedSilence...)
	combined = append(combined, mergedStatic...)

	return Merge(combined, combineGapMs, combineGapMs)
}
