package audiograph

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/dudk/audiograph/handoff"
	"github.com/dudk/audiograph/log"
	"github.com/dudk/audiograph/metric"
	"github.com/dudk/audiograph/resource"
	"github.com/dudk/audiograph/value"
)

const defaultCommitCapacity = 64

// Runtime owns the node registry, the staged topology and the committed
// graph handed to the render plane. The control plane edits the graph
// through ApplyInstructions and publishes resources; the render plane calls
// Render once per audio block. Both roles may run on different goroutines;
// all state they share travels through single-writer single-reader queues or
// immutable buffers, never through a shared lock.
type Runtime struct {
	uid            string
	name           string
	sampleRate     float64
	blockSize      int
	commitCapacity int

	log   *logrus.Logger
	meter *metric.Meter

	// control-plane state
	factories map[string]Factory
	nodes     map[NodeID]Node
	order     []NodeID
	edges     map[NodeID][]NodeID
	resources *resource.Map

	// committed graphs in flight from control to render plane
	graphQueue *handoff.Queue[*renderGraph]
	// adopted graph, touched by the render plane only
	active *renderGraph
}

// Option provides a way to set functional parameters to the runtime.
type Option func(*Runtime)

// WithName sets a name used in logs.
func WithName(name string) Option {
	return func(r *Runtime) {
		r.name = name
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *logrus.Logger) Option {
	return func(r *Runtime) {
		r.log = l
	}
}

// WithMetric attaches render counters.
func WithMetric(m *metric.Meter) Option {
	return func(r *Runtime) {
		r.meter = m
	}
}

// WithCommitCapacity bounds how many committed graphs may await adoption by
// the render plane before ApplyInstructions fails with ErrCommitBacklog.
func WithCommitCapacity(capacity int) Option {
	return func(r *Runtime) {
		r.commitCapacity = capacity
	}
}

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

// New creates a runtime for the given sample rate and maximum block size and
// registers the default node types. The returned runtime has no committed
// graph; Render produces silence until a batch commits one.
func New(sampleRate float64, blockSize int, options ...Option) *Runtime {
	r := &Runtime{
		uid:            newUID(),
		sampleRate:     sampleRate,
		blockSize:      blockSize,
		commitCapacity: defaultCommitCapacity,
		log:            log.GetLogger(),
		factories:      make(map[string]Factory),
		nodes:          make(map[NodeID]Node),
		edges:          make(map[NodeID][]NodeID),
		resources:      resource.NewMap(),
	}
	for kind, f := range defaultNodeTypes() {
		r.factories[kind] = f
	}
	for _, option := range options {
		option(r)
	}
	r.graphQueue = handoff.New[*renderGraph](r.commitCapacity)
	return r
}

// RegisterNodeType adds a factory for a node kind. It must be called before
// any instruction references that kind; registering an already known kind
// fails.
func (r *Runtime) RegisterNodeType(kind string, f Factory) error {
	if f == nil {
		return fmt.Errorf("nil factory for node type %q", kind)
	}
	if _, ok := r.factories[kind]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateNodeType, kind)
	}
	r.factories[kind] = f
	return nil
}

// UpdateResource validates path and data and publishes the buffer into the
// shared resource map. Data must be an array of numbers or a float buffer.
func (r *Runtime) UpdateResource(path, data value.Value) error {
	p, err := path.AsString()
	if err != nil {
		return invariantWrap(err, "path must be a string type")
	}
	var buf []float32
	switch data.Kind() {
	case value.KindFloatBuffer:
		buf, _ = data.AsFloatBuffer()
	case value.KindArray:
		elems, _ := data.AsArray()
		buf = make([]float32, len(elems))
		for i := range elems {
			n, err := elems[i].AsNumber()
			if err != nil {
				return invariantWrap(err, "invalid array child for resource %q", p)
			}
			buf[i] = float32(n)
		}
	default:
		return invariantf("buffer argument must be an array or float buffer type, got %v", data.Kind())
	}
	r.resources.Publish(p, buf)
	r.log.WithFields(logrus.Fields{
		"runtime": r.String(),
		"path":    p,
		"samples": len(buf),
	}).Debug("resource published")
	return nil
}

// Resources returns the shared resource map.
func (r *Runtime) Resources() *resource.Map {
	return r.resources
}

// SampleRate returns the runtime sample rate.
func (r *Runtime) SampleRate() float64 {
	return r.sampleRate
}

// BlockSize returns the maximum block length Render accepts.
func (r *Runtime) BlockSize() int {
	return r.blockSize
}

// ProcessQueuedEvents drains the event queue of every node that emits
// telemetry, in node creation order, FIFO within each node.
func (r *Runtime) ProcessQueuedEvents(sink EventSink) {
	for _, id := range r.order {
		if es, ok := r.nodes[id].(EventSource); ok {
			es.ProcessEvents(sink)
		}
	}
}

// Reset returns every node's render state to its initial condition without
// altering topology or properties. Call it from the control plane between
// blocks; calling it twice is equivalent to calling it once.
func (r *Runtime) Reset() {
	for _, id := range r.order {
		r.nodes[id].Reset()
	}
	r.log.WithField("runtime", r.String()).Debug("runtime reset")
}

// String returns the runtime name, if set, and its uid.
func (r *Runtime) String() string {
	if r.name == "" {
		return r.uid
	}
	return fmt.Sprintf("%v %v", r.name, r.uid)
}
