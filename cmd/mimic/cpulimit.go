package main

import (
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// errCPULimitExceeded is the sentinel the driver returns once it observes
// a trapped SIGXCPU, letting the command body pick exit code 2 instead of
// the generic fatal code 1 (spec.md §5, §6.1).
var errCPULimitExceeded = errors.New("cpu time limit exceeded")

func errIsCPULimit(err error) bool {
	return errors.Is(err, errCPULimitExceeded)
}

// cpuLimitWatcher traps SIGXCPU, the POSIX CPU-time-exceeded signal
// spec.md §5 names as the platform equivalent of a scheduler-imposed CPU
// budget, and latches a sticky flag the driver polls at tree-file
// boundaries. Grounded on cmd/vorteil/run.go's listenForInterrupt, which
// likewise turns a trapped signal into a channel-fed flag rather than
// acting on it inside the signal handler itself.
type cpuLimitWatcher struct {
	hit atomic.Bool
}

func newCPULimitWatcher() *cpuLimitWatcher {
	w := &cpuLimitWatcher{}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGXCPU)
	go func() {
		<-sigCh
		w.hit.Store(true)
	}()
	return w
}

// Hit reports whether SIGXCPU has been observed since the watcher was
// created.
func (w *cpuLimitWatcher) Hit() bool {
	return w.hit.Load()
}
