package detect

import (
	"reflect"
	"testing"

	"github.com/KisaragiIchigo/MovieAutoCutter/internal/analysis"
)

func chunks(values ...float64) []analysis.Sample {
	samples := make([]analysis.Sample, len(values))
	for i, v := range values {
		samples[i] = analysis.Sample{Index: i, Value: v}
	}
	return samples
}

func TestSilenceDetector(t *testing.T) {
	d := SilenceDetector{ChunkMs: 100, ThresholdDB: -40}

	tests := []struct {
		name    string
		samples []analysis.Sample
		totalMs int64
		want    []TimeRange
	}{
		{
			name:    "quiet run in the middle",
			samples: chunks(-20, -50, -55, -20, -20),
			totalMs: 500,
			want:    []TimeRange{{100, 300}},
		},
		{
			name:    "open run closes at total duration",
			samples: chunks(-20, -20, -50, -50),
			totalMs: 450,
			want:    []TimeRange{{200, 450}},
		},
		{
			name:    "entirely silent file is one range",
			samples: chunks(-90, -90, -90, -90),
			totalMs: 400,
			want:    []TimeRange{{0, 400}},
		},
		{
			name:    "floor chunks count as silent even above threshold",
			samples: chunks(-20, analysis.SilenceFloorDB, -20),
			totalMs: 300,
			want:    []TimeRange{{100, 200}},
		},
		{
			name:    "loud throughout",
			samples: chunks(-10, -15, -12),
			totalMs: 300,
			want:    nil,
		},
		{
			name:    "threshold is exclusive",
			samples: chunks(-40, -40),
			totalMs: 200,
			want:    nil,
		},
		{
			name:    "no samples",
			samples: nil,
			totalMs: 0,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.samples, tt.totalMs)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSilenceDetectorFloorThreshold(t *testing.T) {
	// A threshold at or below the floor still catches floor-filled chunks.
	d := SilenceDetector{ChunkMs: 100, ThresholdDB: -95}
	got := d.Detect(chunks(-20, analysis.SilenceFloorDB, -20), 300)
	want := []TimeRange{{100, 200}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Detect() = %v, want %v", got, want)
	}
}
