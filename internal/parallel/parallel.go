// Package parallel sizes the bounded worker pools used by the Directory
// Scanner and the Kit Aggregator's directory fan-out, mirroring the
// teacher's runner.getParallelWorkers env-override idiom.
package parallel

import (
	"os"
	"runtime"
	"strconv"

	"github.com/AndreyAkinshin/kitscan/internal/output"
)

const (
	// minWorkers ensures at least one worker to prevent semaphore deadlock.
	minWorkers = 1
	// maxWorkers caps KITSCAN_PARALLEL at 256 workers.
	maxWorkers = 256
)

func defaultWorkerCount() int {
	return max(minWorkers, runtime.NumCPU())
}

// Workers returns the number of parallel workers to use for a scan.
// Invalid KITSCAN_PARALLEL values (non-numeric, <1, >256) log a warning
// and fall back to runtime.NumCPU(). The result is always at least 1 to
// prevent blocking on semaphore acquisition.
func Workers(out *output.Writer) int {
	env := os.Getenv("KITSCAN_PARALLEL")
	if env == "" {
		return defaultWorkerCount()
	}

	n, err := strconv.Atoi(env)
	if err != nil {
		if out != nil {
			out.Warning("invalid KITSCAN_PARALLEL value %q (not a number), using default", env)
		}
		return defaultWorkerCount()
	}

	if n < minWorkers || n > maxWorkers {
		if out != nil {
			out.Warning("KITSCAN_PARALLEL=%d out of range [%d-%d], using default", n, minWorkers, maxWorkers)
		}
		return defaultWorkerCount()
	}

	return n
}
