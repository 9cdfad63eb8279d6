package detect

import (
	"reflect"
	"testing"

	"github.com/KisaragiIchigo/MovieAutoCutter/internal/analysis"
)

// motionSamples builds pairwise diffs where sample i carries frame number
// i+1, matching how the motion analyzer indexes.
func motionSamples(values ...float64) []analysis.Sample {
	samples := make([]analysis.Sample, len(values))
	for i, v := range values {
		samples[i] = analysis.Sample{Index: i + 1, Value: v}
	}
	return samples
}

func TestStaticRegionDetector(t *testing.T) {
	d := StaticRegionDetector{FPS: 10, Threshold: 2.0}

	tests := []struct {
		name        string
		samples     []analysis.Sample
		totalFrames int
		want        []TimeRange
	}{
		{
			name:        "static run in the middle",
			samples:     motionSamples(5, 0.5, 0.5, 5, 5),
			totalFrames: 6,
			// frames 2 and 3 at 10fps
			want: []TimeRange{{200, 400}},
		},
		{
			name:        "open run closes at total frames",
			samples:     motionSamples(5, 5, 0.5, 0.5),
			totalFrames: 5,
			want:        []TimeRange{{300, 500}},
		},
		{
			name:        "fully static video",
			samples:     motionSamples(0, 0, 0),
			totalFrames: 4,
			want:        []TimeRange{{100, 400}},
		},
		{
			name:        "busy throughout",
			samples:     motionSamples(4, 6, 8),
			totalFrames: 4,
			want:        nil,
		},
		{
			name:        "threshold is exclusive",
			samples:     motionSamples(2.0, 2.0),
			totalFrames: 3,
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.samples, tt.totalFrames)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaticRegionDetectorFPSFallback(t *testing.T) {
	// An unknown frame rate falls back to 30fps rather than dividing by zero.
	d := StaticRegionDetector{FPS: 0, Threshold: 2.0}
	got := d.Detect(motionSamples(0.5, 0.5, 5), 4)
	want := []TimeRange{{33, 100}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Detect() = %v, want %v", got, want)
	}
}
