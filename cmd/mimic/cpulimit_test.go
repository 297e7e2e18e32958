package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCPULimitWatcherLatchesOnSIGXCPU(t *testing.T) {
	w := newCPULimitWatcher()
	assert.False(t, w.Hit())

	require := func(err error) {
		if err != nil {
			t.Fatalf("signalling self: %v", err)
		}
	}
	require(syscall.Kill(os.Getpid(), syscall.SIGXCPU))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if w.Hit() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("watcher never observed SIGXCPU")
}
