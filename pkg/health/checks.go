package health

import (
	"context"
	"runtime"
	"time"

	"github.com/dd0wney/cluso-lessongraph/pkg/kvstore"
)

// StorageCheck probes the path store with a bounded key listing
func StorageCheck(store kvstore.Store, backend string, timeout time.Duration) CheckFunc {
	return func(ctx context.Context) Check {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		check := Check{Details: map[string]any{"backend": backend}}
		keys, err := store.Keys(ctx, "")
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		check.Status = StatusHealthy
		check.Message = "Connected"
		check.Details["keys"] = len(keys)
		return check
	}
}

// PathsCheck reports how many paths are held in memory
func PathsCheck(count func() int) CheckFunc {
	return func(context.Context) Check {
		return Check{
			Status:  StatusHealthy,
			Details: map[string]any{"paths": count()},
		}
	}
}

// MemoryCheck reports degraded when allocated memory exceeds 90% of the
// memory obtained from the system
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func(context.Context) Check {
		alloc, sys := getUsage()
		check := Check{Details: map[string]any{"allocBytes": alloc, "sysBytes": sys}}

		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}

// RuntimeMemory reads heap usage from the Go runtime
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc, m.Sys
}
