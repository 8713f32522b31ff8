package pipeline

import (
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// pinCurrentThread locks the calling goroutine to its current OS thread and
// restricts that thread to a single CPU core. Pinning is best-effort: a
// failure (no CAP_SYS_NICE, a container without the cgroup's CPU made
// available) degrades latency predictability but must never abort the
// stage, so it is only logged. The affinity call is Linux-only, so this
// package builds only for GOOS=linux.
func pinCurrentThread(cpu int, stage string, log *zap.Logger) {
	runtime.LockOSThread()

	var mask unix.CPUSet
	mask.Set(cpu)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		log.Warn("cpu pinning failed, continuing unpinned",
			zap.String("stage", stage), zap.Int("cpu", cpu), zap.Error(err))
	}
}
