package runtime

import (
	"bytes"
	"math"
	"reflect"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/thobiasn/skiff/internal/state"
)

func TestCalcCPUPercentDelta(t *testing.T) {
	tests := []struct {
		name      string
		prevC     uint64
		curC      uint64
		prevS     uint64
		curS      uint64
		cpus      uint32
		wantApprx float64
	}{
		{"50% of 2 CPUs", 0, 500_000_000, 0, 1_000_000_000, 2, 100.0},
		{"25% of 4 CPUs", 0, 250_000_000, 0, 1_000_000_000, 4, 100.0},
		{"no delta", 100, 100, 100, 200, 1, 0},
		{"zero system delta", 0, 100, 100, 100, 1, 0},
		{"zero online cpus", 0, 100, 0, 1000, 0, 10.0},
		{"container counter reset", 500_000_000, 100_000, 1_000_000_000, 2_000_000_000, 2, 0},
		{"system counter reset", 100_000, 500_000_000, 2_000_000_000, 100_000, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calcCPUPercentDelta(tt.prevC, tt.curC, tt.prevS, tt.curS, tt.cpus)
			if math.Abs(got-tt.wantApprx) > 0.1 {
				t.Errorf("got %f, want ~%f", got, tt.wantApprx)
			}
		})
	}
}

func TestCalcMemUsage(t *testing.T) {
	tests := []struct {
		name    string
		stats   container.MemoryStats
		wantUse uint64
		wantLim uint64
	}{
		{"basic usage", container.MemoryStats{Usage: 100_000_000, Limit: 512_000_000, Stats: map[string]uint64{}}, 100_000_000, 512_000_000},
		{"subtract inactive_file", container.MemoryStats{Usage: 100_000_000, Limit: 512_000_000, Stats: map[string]uint64{"inactive_file": 20_000_000}}, 80_000_000, 512_000_000},
		{"subtract total_inactive_file", container.MemoryStats{Usage: 100_000_000, Limit: 512_000_000, Stats: map[string]uint64{"total_inactive_file": 30_000_000}}, 70_000_000, 512_000_000},
		{"cache larger than usage", container.MemoryStats{Usage: 10, Limit: 100, Stats: map[string]uint64{"inactive_file": 50}}, 10, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			use, lim := calcMemUsage(&container.StatsResponse{MemoryStats: tt.stats})
			if use != tt.wantUse || lim != tt.wantLim {
				t.Errorf("got (%d, %d), want (%d, %d)", use, lim, tt.wantUse, tt.wantLim)
			}
		})
	}
}

func TestCalcNetIO(t *testing.T) {
	stats := &container.StatsResponse{
		Networks: map[string]container.NetworkStats{
			"eth0": {RxBytes: 100, TxBytes: 200},
			"eth1": {RxBytes: 50, TxBytes: 25},
		},
	}
	rx, tx := calcNetIO(stats)
	if rx != 150 || tx != 225 {
		t.Fatalf("got (%d, %d), want (150, 225)", rx, tx)
	}
}

func TestSampleMissingReadings(t *testing.T) {
	d := &Docker{prevCPU: make(map[state.ContainerID]cpuPrev)}

	s := d.sample("a", &container.StatsResponse{})
	if s.CPU != nil || s.Mem != nil {
		t.Fatalf("stopped container sample = %+v, want nil readings", s)
	}

	stats := &container.StatsResponse{}
	stats.CPUStats.SystemUsage = 2000
	stats.CPUStats.CPUUsage.TotalUsage = 200
	stats.CPUStats.OnlineCPUs = 1
	stats.PreCPUStats.SystemUsage = 1000
	stats.PreCPUStats.CPUUsage.TotalUsage = 100
	stats.MemoryStats = container.MemoryStats{Usage: 2_000_000, Limit: 4_000_000_000}

	s = d.sample("a", stats)
	if s.CPU == nil || math.Abs(*s.CPU-10) > 0.01 {
		t.Fatalf("cpu = %v, want 10", s.CPU)
	}
	if s.Mem == nil || *s.Mem != 2_000_000 || s.MemLimit != 4_000_000_000 {
		t.Fatalf("mem = %v limit %d", s.Mem, s.MemLimit)
	}

	// The second sample is measured against the first, not PreCPUStats.
	stats.CPUStats.SystemUsage = 3000
	stats.CPUStats.CPUUsage.TotalUsage = 700
	s = d.sample("a", stats)
	if math.Abs(*s.CPU-50) > 0.01 {
		t.Fatalf("cpu = %v, want 50", *s.CPU)
	}
}

func TestForgetMissing(t *testing.T) {
	d := &Docker{prevCPU: map[state.ContainerID]cpuPrev{"a": {}, "b": {}}}
	d.forgetMissing([]state.RawContainer{{ID: "b"}})

	if _, ok := d.prevCPU["a"]; ok {
		t.Fatal("baseline of removed container kept")
	}
	if _, ok := d.prevCPU["b"]; !ok {
		t.Fatal("baseline of live container dropped")
	}
}

func TestDemuxMultiplexed(t *testing.T) {
	var raw bytes.Buffer
	stdout := stdcopy.NewStdWriter(&raw, stdcopy.Stdout)
	stderr := stdcopy.NewStdWriter(&raw, stdcopy.Stderr)
	stdout.Write([]byte("2024-01-01T00:00:01Z out\n"))
	stderr.Write([]byte("2024-01-01T00:00:02Z err\n"))
	stdout.Write([]byte("2024-01-01T00:00:03Z out again\n"))

	text, err := demux(raw.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"2024-01-01T00:00:01Z out",
		"2024-01-01T00:00:02Z err",
		"2024-01-01T00:00:03Z out again",
	}
	if got := splitLines(text); !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestDemuxTTY(t *testing.T) {
	raw := []byte("2024-01-01T00:00:01Z hello\r\n2024-01-01T00:00:02Z world\r\n")
	text, err := demux(raw)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2024-01-01T00:00:01Z hello", "2024-01-01T00:00:02Z world"}
	if got := splitLines(text); !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestSplitLinesEmpty(t *testing.T) {
	if got := splitLines(nil); got != nil {
		t.Fatalf("splitLines(nil) = %q, want nil", got)
	}
	if got := splitLines([]byte("\n")); got != nil {
		t.Fatalf("splitLines(newline) = %q, want nil", got)
	}
}

func TestSelfMatcher(t *testing.T) {
	self := state.RawContainer{ID: "a", Command: "/app/skiff -d 1000"}
	other := state.RawContainer{ID: "b", Command: "nginx -g daemon off;"}

	if !SelfMatcher(true)(self) {
		t.Fatal("containerised skiff should match its own entry point")
	}
	if SelfMatcher(true)(other) {
		t.Fatal("other containers should not match")
	}
	if SelfMatcher(false)(self) {
		t.Fatal("nothing should match outside a container")
	}
}

func TestShellCommand(t *testing.T) {
	d := &Docker{host: "tcp://10.0.0.2:2375"}
	cmd := d.ShellCommand("abc")
	want := []string{"docker", "-H", "tcp://10.0.0.2:2375", "exec", "-it", "abc", "sh"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("args = %q, want %q", cmd.Args, want)
	}
}
