package render

import (
	"fmt"
	"strings"
)

// atempoMaxStage is ffmpeg's per-application ceiling for the atempo
// filter; larger factors must be decomposed into a chain of stages.
const atempoMaxStage = 100.0

// AtempoChain decomposes a speed factor into bounded multiplier stages
// whose product equals the factor. Factors at or below 1 need no stage.
func AtempoChain(factor float64) []float64 {
	if factor <= 1.0 {
		return nil
	}
	var stages []float64
	for factor > atempoMaxStage {
		stages = append(stages, atempoMaxStage)
		factor /= atempoMaxStage
	}
	if factor > 1.0 {
		stages = append(stages, factor)
	}
	return stages
}

// AtempoFilter renders the chained atempo filter string for a factor, or
// "" when no tempo change is needed.
func AtempoFilter(factor float64) string {
	stages := AtempoChain(factor)
	if len(stages) == 0 {
		return ""
	}
	parts := make([]string, len(stages))
	for i, s := range stages {
		if s == atempoMaxStage {
			parts[i] = "atempo=100.0"
		} else {
			parts[i] = fmt.Sprintf("atempo=%.4f", s)
		}
	}
	return strings.Join(parts, ",")
}
