// Package runtime talks to the container runtime on behalf of the
// orchestrator.
package runtime

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/thobiasn/skiff/internal/state"
)

// Client is the set of runtime operations the dashboard needs.
type Client interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]state.RawContainer, error)
	Stats(ctx context.Context, id state.ContainerID) (Stats, error)
	// Logs returns timestamped log lines written at or after since. A zero
	// since returns the full log.
	Logs(ctx context.Context, id state.ContainerID, since time.Time) ([]string, error)
	Inspect(ctx context.Context, id state.ContainerID) (string, error)

	Start(ctx context.Context, id state.ContainerID) error
	Stop(ctx context.Context, id state.ContainerID) error
	Pause(ctx context.Context, id state.ContainerID) error
	Unpause(ctx context.Context, id state.ContainerID) error
	Restart(ctx context.Context, id state.ContainerID) error
	Delete(ctx context.Context, id state.ContainerID) error
}

// Stats is one resource sample. CPU and Mem are nil when the runtime did not
// report a usable reading.
type Stats struct {
	CPU      *float64
	Mem      *uint64
	MemLimit uint64
	Rx       uint64
	Tx       uint64
}

const (
	runtimeEnvKey   = "SKIFF_RUNTIME"
	runtimeEnvValue = "container"
	selfEntryPoint  = "/app/skiff"
)

// Containerised reports whether skiff itself runs inside a container.
func Containerised() bool {
	return os.Getenv(runtimeEnvKey) == runtimeEnvValue
}

// SelfMatcher returns the predicate flagging skiff's own container. Outside a
// container nothing matches.
func SelfMatcher(containerised bool) func(state.RawContainer) bool {
	return func(c state.RawContainer) bool {
		return containerised && strings.HasPrefix(c.Command, selfEntryPoint)
	}
}
