package dsp

import (
	"github.com/cwbudde/algo-dsp/dsp/conv"

	"github.com/dudk/audiograph"
	"github.com/dudk/audiograph/handoff"
	"github.com/dudk/audiograph/resource"
	"github.com/dudk/audiograph/value"
)

// convolveNode convolves its input with an impulse response published in the
// shared resource map. Setting the "path" property builds a streaming
// overlap-save convolver off the render path and pushes it into the node's
// queue; replacing the impulse response while playing causes an audible
// discontinuity, which is the intended latest-wins policy.
type convolveNode struct {
	audiograph.BaseNode
	queue      *handoff.Queue[*conv.StreamingOverlapSave]
	convolver  *conv.StreamingOverlapSave
	inScratch  []float64
	outScratch []float64
}

func newConvolveNode(id audiograph.NodeID, sampleRate float64, blockSize int) audiograph.Node {
	return &convolveNode{
		BaseNode:   audiograph.NewBaseNode("convolve", id, sampleRate, blockSize),
		queue:      handoff.New[*conv.StreamingOverlapSave](8),
		inScratch:  make([]float64, blockSize),
		outScratch: make([]float64, blockSize),
	}
}

func (n *convolveNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key != "path" {
		return n.BaseNode.SetProperty(key, val, res)
	}
	path, err := val.AsString()
	if err != nil {
		return &audiograph.InvariantError{Reason: "path prop must be a string", Err: err}
	}
	buf, err := res.Get(path)
	if err != nil {
		return &audiograph.InvariantError{Reason: "failed to find a resource at the given path", Err: err}
	}
	kernel := make([]float64, buf.Len())
	for i, s := range buf.Data() {
		kernel[i] = float64(s)
	}
	co, err := conv.NewStreamingOverlapSave(kernel, n.BlockSize())
	if err != nil {
		return &audiograph.InvariantError{Reason: "invalid impulse response buffer", Err: err}
	}
	if err := n.BaseNode.SetProperty(key, val, res); err != nil {
		return err
	}
	n.queue.Push(co)
	return nil
}

func (n *convolveNode) Process(ctx *audiograph.BlockContext) {
	// Grab the most recent convolver if there's anything in the queue.
	n.queue.PopLatest(&n.convolver)

	if len(ctx.Inputs) == 0 || n.convolver == nil {
		zero(ctx.Output)
		return
	}
	in := ctx.Inputs[0]
	if ctx.NumSamples == n.convolver.BlockSize() {
		_ = n.convolver.ProcessBlockTo(ctx.Output, in[:ctx.NumSamples])
		return
	}
	// Short block: pad with silence to the convolver's fixed block size.
	copy(n.inScratch, in[:ctx.NumSamples])
	for i := ctx.NumSamples; i < len(n.inScratch); i++ {
		n.inScratch[i] = 0
	}
	if err := n.convolver.ProcessBlockTo(n.outScratch, n.inScratch); err != nil {
		zero(ctx.Output)
		return
	}
	copy(ctx.Output, n.outScratch[:ctx.NumSamples])
}

func (n *convolveNode) Reset() {
	if n.convolver != nil {
		n.convolver.Reset()
	}
}
