// Package metric exposes rendering counters through expvar. Counters are
// updated with atomic adds only, so metering never introduces locks or
// allocations on the render path.
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"time"
)

const (
	// BlockCounter measures number of rendered blocks.
	BlockCounter = "Blocks"
	// SampleCounter measures number of rendered samples.
	SampleCounter = "Samples"
	// LatencyCounter measures the duration of the last render call.
	LatencyCounter = "Latency"
)

var meters = struct {
	sync.Mutex
	m map[string]*Meter
}{
	m: make(map[string]*Meter),
}

// Meter accumulates render counters for one labeled runtime.
type Meter struct {
	label      string
	sampleRate int
	blocks     *expvar.Int
	samples    *expvar.Int
	latency    *expvar.Int
}

// New returns the meter for the provided label, creating it on first use.
func New(label string, sampleRate int) *Meter {
	meters.Lock()
	defer meters.Unlock()
	if m, ok := meters.m[label]; ok {
		return m
	}
	m := &Meter{
		label:      label,
		sampleRate: sampleRate,
		blocks:     expvar.NewInt(counterName(label, BlockCounter)),
		samples:    expvar.NewInt(counterName(label, SampleCounter)),
		latency:    expvar.NewInt(counterName(label, LatencyCounter)),
	}
	meters.m[label] = m
	return m
}

// Block records one rendered block.
func (m *Meter) Block(numSamples int, d time.Duration) {
	if m == nil {
		return
	}
	m.blocks.Add(1)
	m.samples.Add(int64(numSamples))
	m.latency.Set(int64(d))
}

// Get returns counter values for the provided label.
func Get(label string) map[string]string {
	values := make(map[string]string)
	for _, counter := range []string{BlockCounter, SampleCounter, LatencyCounter} {
		if v := expvar.Get(counterName(label, counter)); v != nil {
			values[counter] = v.String()
		}
	}
	return values
}

func counterName(label, counter string) string {
	return fmt.Sprintf("audiograph.%s.%s", label, counter)
}
