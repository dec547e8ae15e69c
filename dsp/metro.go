package dsp

import (
	"sync/atomic"

	"github.com/dudk/audiograph"
	"github.com/dudk/audiograph/handoff"
	"github.com/dudk/audiograph/resource"
	"github.com/dudk/audiograph/value"
)

// metroNode is a metronome: it outputs 1 on every tick sample, 0 otherwise,
// and queues a "metro" event per tick. The tick period is set through the
// "interval" property in milliseconds.
type metroNode struct {
	audiograph.BaseNode
	period    atomic.Int64 // samples between ticks
	countdown int64
	tick      int64
	ticks     *handoff.Queue[int64]
}

func newMetroNode(id audiograph.NodeID, sampleRate float64, blockSize int) audiograph.Node {
	n := &metroNode{
		BaseNode: audiograph.NewBaseNode("metro", id, sampleRate, blockSize),
		ticks:    handoff.New[int64](64),
	}
	// one tick per second until configured
	n.period.Store(int64(sampleRate))
	return n
}

func (n *metroNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key != "interval" {
		return n.BaseNode.SetProperty(key, val, res)
	}
	ms, err := val.AsNumber()
	if err != nil {
		return &audiograph.InvariantError{Reason: "interval prop of metro node must be a number", Err: err}
	}
	if ms <= 0 {
		return &audiograph.InvariantError{Reason: "interval prop of metro node must be positive"}
	}
	if err := n.BaseNode.SetProperty(key, val, res); err != nil {
		return err
	}
	period := int64(ms / 1000.0 * n.SampleRate())
	if period < 1 {
		period = 1
	}
	n.period.Store(period)
	return nil
}

func (n *metroNode) Process(ctx *audiograph.BlockContext) {
	period := n.period.Load()
	for i := range ctx.Output {
		if n.countdown <= 0 {
			ctx.Output[i] = 1
			n.ticks.Push(n.tick)
			n.tick++
			n.countdown = period
		} else {
			ctx.Output[i] = 0
		}
		n.countdown--
	}
}

// ProcessEvents relays queued ticks in FIFO order.
func (n *metroNode) ProcessEvents(sink audiograph.EventSink) {
	var tick int64
	for n.ticks.Pop(&tick) {
		sink("metro", value.ObjectVal(map[string]value.Value{
			"source": value.NumberVal(float64(n.ID())),
			"tick":   value.NumberVal(float64(tick)),
		}))
	}
}

func (n *metroNode) Reset() {
	n.countdown = 0
	n.tick = 0
}
