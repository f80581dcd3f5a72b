// Package diagnostics snapshots process resource usage for the debug UI
// toggle (§4.18), grounded on gopsutil rather than hand-parsing /proc.
package diagnostics

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is a point-in-time resource reading for the running daemon.
type Snapshot struct {
	RSSBytes    uint64
	CPUPercent  float64
	NumGoroutine int
	NumFDs      int32
}

// Capture reads current process statistics. Errors from the per-field
// gopsutil calls are non-fatal: the failing fields are left at zero. A
// failure to open the process handle is returned as an error, alongside a
// snapshot holding only NumGoroutine.
func Capture(numGoroutine int) (Snapshot, error) {
	snap := Snapshot{NumGoroutine: numGoroutine}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return snap, fmt.Errorf("diagnostics: process handle: %w", err)
	}

	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		snap.RSSBytes = mem.RSS
	}
	if pct, err := proc.CPUPercent(); err == nil {
		snap.CPUPercent = pct
	}
	if fds, err := proc.NumFDs(); err == nil {
		snap.NumFDs = fds
	}

	return snap, nil
}

// SystemCPUPercent reports aggregate system CPU usage, sampled instantaneously.
func SystemCPUPercent() (float64, error) {
	pcts, err := cpu.Percent(0, false)
	if err != nil {
		return 0, fmt.Errorf("diagnostics: cpu.Percent: %w", err)
	}
	if len(pcts) == 0 {
		return 0, nil
	}
	return pcts[0], nil
}
