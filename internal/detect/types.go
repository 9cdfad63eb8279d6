package detect

// TimeRange is a half-open interval [StartMs, EndMs) in milliseconds from
// the source start. Collections are not assumed sorted or disjoint until
// they have passed through Merge.
type TimeRange struct {
	StartMs int64
	EndMs   int64
}

// DurationMs returns the range length in milliseconds.
func (r TimeRange) DurationMs() int64 {
	return r.EndMs - r.StartMs
}
