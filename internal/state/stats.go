package state

import (
	"fmt"
	"math"
)

const (
	oneKB = 1000.0
	oneMB = oneKB * 1000
	oneGB = oneMB * 1000
)

// cpuEpsilon is the tolerance under which two CPU readings compare equal.
const cpuEpsilon = 0.01

// CPUStats is a CPU usage percentage.
type CPUStats float64

// Compare orders two readings. A strictly greater value always wins; otherwise
// values within cpuEpsilon are equal and anything else is less. This is not a
// transitive order near the epsilon boundary.
func (c CPUStats) Compare(o CPUStats) int {
	switch {
	case c > o:
		return 1
	case math.Abs(float64(c-o)) < cpuEpsilon:
		return 0
	default:
		return -1
	}
}

// Value returns the reading as a float for charting.
func (c CPUStats) Value() float64 { return float64(c) }

func (c CPUStats) String() string {
	return fmt.Sprintf("%05.2f%%", float64(c))
}

// ByteStats is a byte count displayed in decimal units.
type ByteStats uint64

// Compare orders two byte counts exactly.
func (b ByteStats) Compare(o ByteStats) int {
	switch {
	case b > o:
		return 1
	case b < o:
		return -1
	default:
		return 0
	}
}

// Value returns the count as a float for charting.
func (b ByteStats) Value() float64 { return float64(b) }

func (b ByteStats) String() string {
	v := float64(b)
	switch {
	case v >= oneGB:
		return fmt.Sprintf("%.2f GB", v/oneGB)
	case v >= oneMB:
		return fmt.Sprintf("%.2f MB", v/oneMB)
	default:
		return fmt.Sprintf("%.2f kB", v/oneKB)
	}
}
