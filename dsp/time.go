package dsp

import (
	"github.com/dudk/audiograph"
)

// sampleTimeNode outputs the engine sample time, sample-accurately, so a
// graph can derive sequencing decisions from the transport position.
type sampleTimeNode struct {
	audiograph.BaseNode
}

func newSampleTimeNode(id audiograph.NodeID, sampleRate float64, blockSize int) audiograph.Node {
	return &sampleTimeNode{BaseNode: audiograph.NewBaseNode("time", id, sampleRate, blockSize)}
}

func (n *sampleTimeNode) Process(ctx *audiograph.BlockContext) {
	for i := range ctx.Output {
		ctx.Output[i] = float64(ctx.SampleTime + int64(i))
	}
}
