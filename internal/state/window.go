package state

// windowSize is the number of readings kept per container for charting.
const windowSize = 60

// Reading is a stats value that can be charted and ranked against others of
// its kind.
type Reading[T any] interface {
	Value() float64
	Compare(T) int
}

// Point is one chart sample.
type Point struct {
	X, Y float64
}

// StatsWindow holds the last 60 readings of one metric, oldest first.
type StatsWindow[T Reading[T]] struct {
	readings []T
}

func NewStatsWindow[T Reading[T]]() *StatsWindow[T] {
	return &StatsWindow[T]{readings: make([]T, 0, windowSize)}
}

// Push appends v. A full window drops its oldest reading first.
func (w *StatsWindow[T]) Push(v T) {
	if len(w.readings) == windowSize {
		copy(w.readings, w.readings[1:])
		w.readings = w.readings[:windowSize-1]
	}
	w.readings = append(w.readings, v)
}

// Data returns a copy of the readings, oldest first.
func (w *StatsWindow[T]) Data() []T {
	if len(w.readings) == 0 {
		return nil
	}
	return append([]T(nil), w.readings...)
}

// Points returns the chart series, indexed from 0 at the oldest reading.
func (w *StatsWindow[T]) Points() []Point {
	if len(w.readings) == 0 {
		return nil
	}
	pts := make([]Point, len(w.readings))
	for i, v := range w.readings {
		pts[i] = Point{X: float64(i), Y: v.Value()}
	}
	return pts
}

// Max returns the highest reading under T's ordering, or the zero value for
// an empty window.
func (w *StatsWindow[T]) Max() T {
	var m T
	for _, v := range w.readings {
		if v.Compare(m) > 0 {
			m = v
		}
	}
	return m
}

// Last returns the newest reading.
func (w *StatsWindow[T]) Last() (T, bool) {
	if len(w.readings) == 0 {
		var zero T
		return zero, false
	}
	return w.readings[len(w.readings)-1], true
}

func (w *StatsWindow[T]) Len() int { return len(w.readings) }
