// Package collector reports on and drives the garbage collector that backs
// the managed heap.
package collector

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zephyrtronium/avium"
)

// Avium has no collector of its own; managed objects live on the Go heap and
// their finalizers are Go finalizers. These functions combine the runtime's
// statistics with the VM's heap counters.

// Stats is a snapshot of collector and heap statistics.
type Stats struct {
	// Heap holds the VM's managed heap counters.
	Heap avium.HeapStats
	// LastGC is the time the last collection finished, or the zero time.
	LastGC time.Time
	// Cycles is the number of completed collection cycles.
	Cycles uint32
	// Pause is the total time spent in stop-the-world pauses.
	Pause time.Duration
	// Mem holds the raw runtime statistics.
	Mem runtime.MemStats
}

// Snapshot reads the current statistics.
func Snapshot(vm *avium.VM) Stats {
	s := Stats{Heap: vm.HeapStats()}
	runtime.ReadMemStats(&s.Mem)
	if s.Mem.NumGC > 0 {
		s.LastGC = time.Unix(0, int64(s.Mem.LastGC))
	}
	s.Cycles = s.Mem.NumGC
	s.Pause = time.Duration(s.Mem.PauseTotalNs)
	return s
}

// Collect triggers a collection cycle and returns the number of objects
// freed program-wide, not only objects of the VM. This is much slower than
// allowing collection to happen automatically, as the statistics must be
// recorded twice to retrieve the freed object count. Finalizers of
// unreachable managed objects are queued by the cycle and run afterward.
func Collect(vm *avium.VM) uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	old := stats.Frees
	start := time.Now()
	runtime.GC()
	runtime.ReadMemStats(&stats)
	freed := stats.Frees - old
	vm.Logger().WithFields(logrus.Fields{
		"function": "Collect",
		"freed":    freed,
		"elapsed":  time.Since(start),
	}).Debug("collected")
	return freed
}

// TimeUsed reports the time spent in stop-the-world garbage collection.
func TimeUsed() time.Duration {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return time.Duration(stats.PauseTotalNs)
}

// ShowStats writes detailed collector information to w.
func ShowStats(vm *avium.VM, w io.Writer) error {
	s := Snapshot(vm)
	var err error
	if s.Cycles > 0 {
		_, err = fmt.Fprintf(w, "Last GC at %v (%v ago)", s.LastGC, time.Since(s.LastGC))
	} else {
		_, err = fmt.Fprint(w, "GC has not run")
	}
	if err != nil {
		return err
	}
	m := &s.Mem
	_, err = fmt.Fprintf(w, showStatsFormat,
		m.TotalAlloc, m.Mallocs,
		m.HeapAlloc, float64(m.HeapAlloc)/float64(m.TotalAlloc)*100, m.Mallocs-m.Frees,
		m.NextGC,
		m.Frees,
		m.NumGC,
		m.GCCPUFraction*100,
		m.HeapIdle,
		m.HeapInuse,
		m.StackInuse,
		m.MSpanInuse,
		m.GCSys,
		s.Heap.Allocated,
		s.Heap.Finalizable,
		s.Heap.Finalized,
		s.Heap.Suppressed,
		s.Heap.Pending())
	return err
}

const showStatsFormat = `
Lifetime allocated: %d B (%d objects)
Owned allocated: %d B (%.2f%%, %d objects)
Next GC target: %d B
Freed objects: %d
Completed cycles: %d
GC CPU usage: %.6f%%
Idle heap: %d B
In-use heap spans: %d B
Stack spans: %d B
In-use mspans: %d B
GC metadata: %d B
Managed objects: %d
Finalizable objects: %d
Finalized objects: %d
Suppressed finalizers: %d
Pending finalizers: %d
`
