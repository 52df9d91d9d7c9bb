package feeder

// defaultWindowSize is the sample count averaged when config gives none.
const defaultWindowSize = 10

// WeightTracker smooths raw scale samples and classifies presence.
//
// It keeps a fixed-capacity sliding window of the most recent raw readings;
// Smoothed is their arithmetic mean. Presence is recomputed from the smoothed
// value on every sample with no hysteresis beyond the window averaging.
//
// The tracker is not internally synchronized: the Controller guards it with
// its state mutex.
type WeightTracker struct {
	window []float64
	next   int
	count  int
	sum    float64

	tareThreshold float64
	minCatWeight  float64
	maxCatWeight  float64
}

// NewWeightTracker creates a tracker with the given window capacity and
// presence thresholds (all weights in kilograms).
func NewWeightTracker(windowSize int, tareThreshold, minCatWeight, maxCatWeight float64) *WeightTracker {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	return &WeightTracker{
		window:        make([]float64, windowSize),
		tareThreshold: tareThreshold,
		minCatWeight:  minCatWeight,
		maxCatWeight:  maxCatWeight,
	}
}

// Sample ingests one raw reading, evicting the oldest once the window is full.
func (w *WeightTracker) Sample(raw float64) {
	if w.count == len(w.window) {
		w.sum -= w.window[w.next]
	} else {
		w.count++
	}
	w.window[w.next] = raw
	w.sum += raw
	w.next = (w.next + 1) % len(w.window)
}

// Smoothed returns the arithmetic mean of the samples currently in the window,
// or 0 before any sample arrives.
func (w *WeightTracker) Smoothed() float64 {
	if w.count == 0 {
		return 0
	}
	return w.sum / float64(w.count)
}

// Presence classifies the current smoothed weight.
//
// Present requires the smoothed value to exceed the tare threshold and fall
// within the configured cat weight bounds.
func (w *WeightTracker) Presence() PresenceState {
	s := w.Smoothed()
	if s > w.tareThreshold && s >= w.minCatWeight && s <= w.maxCatWeight {
		return Present
	}
	return Absent
}
