package audiograph

import (
	"github.com/dudk/audiograph/resource"
	"github.com/dudk/audiograph/value"
)

// NodeID identifies a node for the lifetime of a runtime. An id is reused
// only after the node is explicitly deleted.
type NodeID int64

// Factory constructs a node of some kind. It runs on the control plane; the
// returned node must be ready to process silence immediately.
type Factory func(id NodeID, sampleRate float64, blockSize int) Node

// BlockContext carries everything a node may touch while rendering one block.
// All slices are preallocated by the runtime; their lengths are at least
// NumSamples except Output, which is exactly NumSamples.
type BlockContext struct {
	// External holds the caller-provided input channels for this render call.
	External [][]float64
	// Inputs holds the output blocks of connected upstream nodes, in
	// connection order.
	Inputs [][]float64
	// Output is the block this node must fill with exactly NumSamples values.
	Output []float64
	// NumSamples is the block length.
	NumSamples int
	// SampleTime is the engine time of the first sample in the block.
	SampleTime int64
}

// Node is the polymorphic unit of computation.
//
// SetProperty runs only on the control plane. It validates the value shape
// for the given key, may look up shared resources and may construct new
// render state and hand it over through the node's own handoff queue. On
// failure the node keeps its prior valid state.
//
// Process runs only on the render plane, once per block in topological
// order. It must adopt the latest pending handoff state, write exactly
// ctx.NumSamples output values, produce silence when a prerequisite is
// missing, and must not allocate, lock, or fail.
type Node interface {
	ID() NodeID
	Kind() string
	SetProperty(key string, val value.Value, resources *resource.Map) error
	Process(ctx *BlockContext)
	Reset()
}

// EventSink consumes one queued event.
type EventSink func(typ string, payload value.Value)

// EventSource is implemented by node kinds that emit telemetry from the
// render plane. ProcessEvents runs on the control plane and drains the
// node's queued events in FIFO order.
type EventSource interface {
	ProcessEvents(sink EventSink)
}
