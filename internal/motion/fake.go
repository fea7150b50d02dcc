package motion

import "image"

// FakeScorer is a test double that returns scripted scores.
type FakeScorer struct {
	// Scores contains the values to return for successive Score calls.
	// When exhausted, the last value repeats.
	Scores []float64
	index  int
	// ScoreError, if set, will be returned by Score.
	ScoreError error
	// Resets counts Reset invocations.
	Resets int
	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeScorer creates a FakeScorer with the given scores.
func NewFakeScorer(scores ...float64) *FakeScorer {
	return &FakeScorer{Scores: scores}
}

// Score returns the next scripted value.
func (f *FakeScorer) Score(img image.Image) (float64, error) {
	if f.ScoreError != nil {
		return 0, f.ScoreError
	}
	if len(f.Scores) == 0 {
		return 0, nil
	}
	v := f.Scores[f.index]
	if f.index < len(f.Scores)-1 {
		f.index++
	}
	return v, nil
}

// Reset counts the call.
func (f *FakeScorer) Reset() {
	f.Resets++
}

// Close marks the scorer as closed.
func (f *FakeScorer) Close() error {
	f.Closed = true
	return nil
}
