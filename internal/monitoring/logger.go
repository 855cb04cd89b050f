// Package monitoring carries the process-wide diagnostic logger and the
// data-integrity fault counters shared by the scan tools.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// and may be replaced with SetLogger; tests typically mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// ancestryFaults counts ancestry walks that hit the hop bound across the
// whole process. Malformed mother relations are rare enough that a
// single process counter is sufficient for run bookkeeping.
var ancestryFaults atomic.Int64

// CountAncestryFault records n hop-bound faults.
func CountAncestryFault(n int) {
	if n > 0 {
		ancestryFaults.Add(int64(n))
	}
}

// AncestryFaults returns the process total of hop-bound faults.
func AncestryFaults() int64 {
	return ancestryFaults.Load()
}

// ResetAncestryFaults zeroes the fault counter at the start of a run.
func ResetAncestryFaults() {
	ancestryFaults.Store(0)
}
