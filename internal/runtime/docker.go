package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/thobiasn/skiff/internal/state"
)

// Docker implements Client against a Docker Engine API endpoint.
type Docker struct {
	client *client.Client
	host   string

	// Previous CPU readings per container for delta calculation.
	mu      sync.Mutex
	prevCPU map[state.ContainerID]cpuPrev
}

type cpuPrev struct {
	containerCPU uint64
	systemCPU    uint64
}

// NewDocker creates a client for host, or for the endpoint described by the
// DOCKER_* environment when host is empty.
func NewDocker(host string) (*Docker, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	c, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Docker{
		client:  c,
		host:    host,
		prevCPU: make(map[state.ContainerID]cpuPrev),
	}, nil
}

// Close closes the Docker client.
func (d *Docker) Close() error {
	return d.client.Close()
}

func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.client.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	return nil
}

func (d *Docker) List(ctx context.Context) ([]state.RawContainer, error) {
	containers, err := d.client.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("container list: %w", err)
	}
	out := make([]state.RawContainer, 0, len(containers))
	for _, c := range containers {
		out = append(out, state.RawContainer{
			ID:      c.ID,
			Names:   c.Names,
			Image:   c.Image,
			State:   string(c.State),
			Status:  c.Status,
			Created: c.Created,
			Command: c.Command,
		})
	}
	d.forgetMissing(out)
	return out, nil
}

// forgetMissing drops CPU baselines of containers that no longer exist.
func (d *Docker) forgetMissing(live []state.RawContainer) {
	keep := make(map[state.ContainerID]struct{}, len(live))
	for _, c := range live {
		keep[state.ContainerID(c.ID)] = struct{}{}
	}
	d.mu.Lock()
	for id := range d.prevCPU {
		if _, ok := keep[id]; !ok {
			delete(d.prevCPU, id)
		}
	}
	d.mu.Unlock()
}

func (d *Docker) Stats(ctx context.Context, id state.ContainerID) (Stats, error) {
	resp, err := d.client.ContainerStatsOneShot(ctx, string(id))
	if err != nil {
		return Stats{}, fmt.Errorf("container stats: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}

	var stats container.StatsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return d.sample(id, &stats), nil
}

func (d *Docker) sample(id state.ContainerID, stats *container.StatsResponse) Stats {
	var s Stats
	if stats.CPUStats.SystemUsage > 0 {
		cpu := d.calcCPUPercent(id, stats)
		s.CPU = &cpu
	}
	if stats.MemoryStats.Usage > 0 {
		usage, limit := calcMemUsage(stats)
		s.Mem = &usage
		s.MemLimit = limit
	}
	s.Rx, s.Tx = calcNetIO(stats)
	return s
}

// calcCPUPercent computes CPU percent from delta, same formula as `docker stats`.
func (d *Docker) calcCPUPercent(id state.ContainerID, stats *container.StatsResponse) float64 {
	cpuTotal := stats.CPUStats.CPUUsage.TotalUsage
	systemCPU := stats.CPUStats.SystemUsage

	d.mu.Lock()
	prev, hasPrev := d.prevCPU[id]
	d.prevCPU[id] = cpuPrev{containerCPU: cpuTotal, systemCPU: systemCPU}
	d.mu.Unlock()

	if !hasPrev {
		prev = cpuPrev{
			containerCPU: stats.PreCPUStats.CPUUsage.TotalUsage,
			systemCPU:    stats.PreCPUStats.SystemUsage,
		}
	}
	return calcCPUPercentDelta(prev.containerCPU, cpuTotal, prev.systemCPU, systemCPU, stats.CPUStats.OnlineCPUs)
}

func (d *Docker) Logs(ctx context.Context, id state.ContainerID, since time.Time) ([]string, error) {
	opts := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
	}
	if !since.IsZero() {
		opts.Since = strconv.FormatInt(since.Unix(), 10)
	}
	rc, err := d.client.ContainerLogs(ctx, string(id), opts)
	if err != nil {
		return nil, fmt.Errorf("container logs: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}
	text, err := demux(raw)
	if err != nil {
		return nil, fmt.Errorf("demux logs: %w", err)
	}
	return splitLines(text), nil
}

// demux strips the stdout/stderr multiplexing headers Docker adds for
// containers without a TTY. Both streams go to one buffer so their relative
// order is kept. TTY output has no headers and is returned as is.
func demux(raw []byte) ([]byte, error) {
	if !multiplexed(raw) {
		return raw, nil
	}
	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// multiplexed reports whether raw starts with a stdcopy frame header:
// a stream byte of 0, 1 or 2 followed by three zero bytes.
func multiplexed(raw []byte) bool {
	if len(raw) < 8 {
		return false
	}
	return raw[0] <= 2 && raw[1] == 0 && raw[2] == 0 && raw[3] == 0
}

func splitLines(b []byte) []string {
	text := strings.TrimRight(string(b), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func (d *Docker) Inspect(ctx context.Context, id state.ContainerID) (string, error) {
	info, err := d.client.ContainerInspect(ctx, string(id))
	if err != nil {
		return "", fmt.Errorf("container inspect: %w", err)
	}
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode inspect: %w", err)
	}
	return string(b), nil
}

func (d *Docker) Start(ctx context.Context, id state.ContainerID) error {
	return wrap("start", d.client.ContainerStart(ctx, string(id), container.StartOptions{}))
}

func (d *Docker) Stop(ctx context.Context, id state.ContainerID) error {
	return wrap("stop", d.client.ContainerStop(ctx, string(id), container.StopOptions{}))
}

func (d *Docker) Pause(ctx context.Context, id state.ContainerID) error {
	return wrap("pause", d.client.ContainerPause(ctx, string(id)))
}

func (d *Docker) Unpause(ctx context.Context, id state.ContainerID) error {
	return wrap("unpause", d.client.ContainerUnpause(ctx, string(id)))
}

func (d *Docker) Restart(ctx context.Context, id state.ContainerID) error {
	return wrap("restart", d.client.ContainerRestart(ctx, string(id), container.StopOptions{}))
}

func (d *Docker) Delete(ctx context.Context, id state.ContainerID) error {
	return wrap("remove", d.client.ContainerRemove(ctx, string(id), container.RemoveOptions{Force: true}))
}

func wrap(action string, err error) error {
	if err != nil {
		return fmt.Errorf("container %s: %w", action, err)
	}
	return nil
}

// ShellCommand returns the command that opens an interactive shell in the
// container, using the docker CLI against the same endpoint.
func (d *Docker) ShellCommand(id state.ContainerID) *exec.Cmd {
	args := []string{}
	if d.host != "" {
		args = append(args, "-H", d.host)
	}
	args = append(args, "exec", "-it", string(id), "sh")
	return exec.Command("docker", args...)
}
