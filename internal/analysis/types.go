package analysis

// Sample is one scalar measurement in a fixed-rate sequence: loudness per
// audio chunk, or motion magnitude per frame pair.
type Sample struct {
	Index int
	Value float64
}

// Summary holds per-signal statistics plus the full ordered sample
// sequence, so downstream thresholding stays positionally aligned with
// time even when some samples are floor-filled.
type Summary struct {
	Min     float64
	Max     float64
	Mean    float64
	Samples []Sample
}
