package utils

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
)

var (
	// TopWaitGroup wait for all top level goroutines before exit
	TopWaitGroup = new(sync.WaitGroup)

	cleanupChan    = make(chan struct{})
	cleanupOnce    sync.Once
	cleanupingFlag int32
	signalsWatched int32
)

// IsCleanuping is cleaning up
func IsCleanuping() bool {
	return atomic.LoadInt32(&cleanupingFlag) != 0
}

// CleanupChan returns a channel closed when cleanup starts
func CleanupChan() <-chan struct{} {
	return cleanupChan
}

// Cleanup trigger the cleanup path manually
func Cleanup() {
	cleanupOnce.Do(func() {
		atomic.StoreInt32(&cleanupingFlag, 1)
		close(cleanupChan)
	})
}

// WaitAndCleanup blocks until cleanup starts, then runs the given cleanup func.
func WaitAndCleanup(doCleanup func()) {
	<-cleanupChan
	doCleanup()
}

// WatchSignals trigger cleanup on interrupt or terminate signal
func WatchSignals() {
	if !atomic.CompareAndSwapInt32(&signalsWatched, 0, 1) {
		return
	}
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signalChan
		log.Info("receive signal, start cleanup", "signal", sig.String())
		Cleanup()
	}()
}
