package runtime

import "github.com/docker/docker/api/types/container"

// calcCPUPercentDelta computes CPU percent from counter deltas.
// Returns 0 if counters have reset (e.g. container restart).
func calcCPUPercentDelta(prevContainer, curContainer, prevSystem, curSystem uint64, onlineCPUs uint32) float64 {
	// Unsigned subtraction would wrap to a huge value.
	if curContainer < prevContainer || curSystem < prevSystem {
		return 0
	}

	containerDelta := float64(curContainer - prevContainer)
	systemDelta := float64(curSystem - prevSystem)

	if systemDelta <= 0 || containerDelta <= 0 {
		return 0
	}

	cpus := float64(onlineCPUs)
	if cpus == 0 {
		cpus = 1
	}

	return (containerDelta / systemDelta) * cpus * 100
}

// calcMemUsage returns memory usage without page cache, and the limit.
func calcMemUsage(stats *container.StatsResponse) (usage, limit uint64) {
	limit = stats.MemoryStats.Limit
	usage = stats.MemoryStats.Usage

	// cgroup v2 reports inactive_file, v1 total_inactive_file.
	if v, ok := stats.MemoryStats.Stats["inactive_file"]; ok && v > 0 {
		if usage > v {
			usage -= v
		}
	} else if v, ok := stats.MemoryStats.Stats["total_inactive_file"]; ok && v > 0 {
		if usage > v {
			usage -= v
		}
	}
	return
}

// calcNetIO sums rx/tx bytes across all container network interfaces.
func calcNetIO(stats *container.StatsResponse) (rx, tx uint64) {
	for _, n := range stats.Networks {
		rx += n.RxBytes
		tx += n.TxBytes
	}
	return
}
