package analysis

// ProgressFunc reports task progress as (value, max, label). Callbacks must
// be cheap and non-blocking; they are invoked from whichever worker is
// currently executing.
type ProgressFunc func(value, max float64, label string)

// Phase rescales a sub-task's progress into a slice of an overall 0-100
// scale. It is a pure mapping so composition stays testable.
type Phase struct {
	Offset float64
	Weight float64
	Label  string
}

// Wrap returns a ProgressFunc that forwards to cb with the sub-task's
// progress mapped into [Offset, Offset+Weight] of 100.
func (p Phase) Wrap(cb ProgressFunc) ProgressFunc {
	return func(value, max float64, _ string) {
		if cb == nil {
			return
		}
		if max <= 0 {
			cb(p.Offset, 100, p.Label)
			return
		}
		frac := value / max
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		cb(p.Offset+frac*p.Weight, 100, p.Label)
	}
}
