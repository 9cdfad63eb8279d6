package render

import (
	"fmt"
	"strings"

	"github.com/KisaragiIchigo/MovieAutoCutter/internal/detect"
	"github.com/KisaragiIchigo/MovieAutoCutter/pkg/util"
)

// Mode selects how planned ranges are treated by the render stage.
type Mode int

const (
	// ModeRemove drops the planned ranges from the output entirely.
	ModeRemove Mode = iota
	// ModeSpeedup replays the planned ranges at an increased speed.
	ModeSpeedup
)

// SegmentKind tags a segment's treatment.
type SegmentKind int

const (
	Passthrough SegmentKind = iota
	Transform
)

// Segment is a contiguous span of the source assigned one treatment.
type Segment struct {
	Kind    SegmentKind
	StartMs int64
	EndMs   int64
	Speed   float64 // Transform only
	Volume  float64 // Transform only, 0..1
}

// GraphOptions configures graph construction.
type GraphOptions struct {
	Mode         Mode
	PreMarginMs  int64
	PostMarginMs int64
	Speed        float64
	Volume       float64 // 0..1 audio volume during sped-up spans
	HasAudio     bool
	FPS          float64
	DurationMs   int64
}

// FilterGraph is the ordered segment list plus everything needed to emit
// the ffmpeg filter_complex expressions for both streams.
type FilterGraph struct {
	Segments []Segment
	HasAudio bool
	FPS      float64
}

// BuildTiling expands each plan range by the configured margins and tiles
// [0, duration) into alternating passthrough and transform segments with
// no gaps or overlaps. Margin expansion is clamped to the neighbours and
// the file bounds; degenerate spans are dropped.
func BuildTiling(plan []detect.TimeRange, opts GraphOptions) []Segment {
	var segments []Segment
	cursor := int64(0)

	for _, r := range plan {
		expStart := r.StartMs - opts.PreMarginMs
		if expStart < cursor {
			expStart = cursor
		}
		expEnd := r.EndMs + opts.PostMarginMs
		if expEnd > opts.DurationMs {
			expEnd = opts.DurationMs
		}
		if expEnd < expStart {
			expEnd = expStart
		}

		if expStart > cursor {
			segments = append(segments, Segment{Kind: Passthrough, StartMs: cursor, EndMs: expStart})
		}
		if expEnd > expStart {
			segments = append(segments, Segment{
				Kind:    Transform,
				StartMs: expStart,
				EndMs:   expEnd,
				Speed:   opts.Speed,
				Volume:  opts.Volume,
			})
		}
		cursor = expEnd
	}

	if cursor < opts.DurationMs {
		segments = append(segments, Segment{Kind: Passthrough, StartMs: cursor, EndMs: opts.DurationMs})
	}

	return segments
}

// Build produces the graph for the given plan. In remove mode transform
// segments are dropped from emission; in speed-up mode the full tiling is
// kept.
func Build(plan []detect.TimeRange, opts GraphOptions) FilterGraph {
	tiling := BuildTiling(plan, opts)

	segments := tiling
	if opts.Mode == ModeRemove {
		segments = segments[:0:0]
		for _, seg := range tiling {
			if seg.Kind == Passthrough {
				segments = append(segments, seg)
			}
		}
	}

	return FilterGraph{Segments: segments, HasAudio: opts.HasAudio, FPS: opts.FPS}
}

// SegmentCount returns the number of emitted segments.
func (g FilterGraph) SegmentCount() int {
	return len(g.Segments)
}

// VideoGraph renders the filter_complex expression for the video stream:
// one trim per segment, speed applied through setpts, and a terminal
// concat node joining all segment outputs in order.
func (g FilterGraph) VideoGraph() string {
	if len(g.Segments) == 0 {
		return ""
	}

	var filters []string
	var concatInputs strings.Builder

	for i, seg := range g.Segments {
		start := util.FormatSeconds(seg.StartMs)
		end := util.FormatSeconds(seg.EndMs)

		setpts := "setpts=PTS-STARTPTS"
		if seg.Kind == Transform && seg.Speed > 1 {
			setpts = fmt.Sprintf("setpts=PTS/%g-STARTPTS", seg.Speed)
		}
		filters = append(filters, fmt.Sprintf("[0:v]trim=start=%s:end=%s,%s[v%d]", start, end, setpts, i))
		fmt.Fprintf(&concatInputs, "[v%d]", i)
	}

	fps := g.FPS
	if fps <= 0 {
		fps = 30
	}
	filters = append(filters, fmt.Sprintf("%sconcat=n=%d:v=1:a=0,fps=%g[outv]", concatInputs.String(), len(g.Segments), fps))
	return strings.Join(filters, ";")
}

// AudioGraph renders the filter_complex expression for the audio stream,
// or "" when the source has no audio. Sped-up segments chain bounded
// atempo stages and a volume scale after the trim.
func (g FilterGraph) AudioGraph() string {
	if !g.HasAudio || len(g.Segments) == 0 {
		return ""
	}

	var filters []string
	var concatInputs strings.Builder

	for i, seg := range g.Segments {
		start := util.FormatSeconds(seg.StartMs)
		end := util.FormatSeconds(seg.EndMs)

		chain := "asetpts=PTS-STARTPTS"
		if seg.Kind == Transform && seg.Speed > 1 {
			if atempo := AtempoFilter(seg.Speed); atempo != "" {
				chain += "," + atempo
			}
			chain += fmt.Sprintf(",volume=%.4f", seg.Volume)
		}
		filters = append(filters, fmt.Sprintf("[0:a]atrim=start=%s:end=%s,%s[a%d]", start, end, chain, i))
		fmt.Fprintf(&concatInputs, "[a%d]", i)
	}

	filters = append(filters, fmt.Sprintf("%sconcat=n=%d:v=0:a=1[outa]", concatInputs.String(), len(g.Segments)))
	return strings.Join(filters, ";")
}
