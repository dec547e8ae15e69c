package dsp

import (
	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/dudk/audiograph"
	"github.com/dudk/audiograph/handoff"
	"github.com/dudk/audiograph/resource"
	"github.com/dudk/audiograph/value"
)

// fftFrameCount bounds how many spectrum frames may be in flight between the
// planes. When the control plane falls behind, frames are dropped rather
// than queued without bound.
const fftFrameCount = 8

// fftState carries everything one FFT size needs: the plan and every scratch
// buffer, preallocated on the control plane.
type fftState struct {
	size    int
	plan    *algofft.Plan[complex128]
	acc     []float64
	pos     int
	scratch []complex128
	spec    []complex128
	re      []float64
	im      []float64
}

// fftNode passes its input through while accumulating it into fixed-size
// frames; every full frame is transformed and its magnitude spectrum emitted
// as an "fft" event. Frame buffers cycle between the planes through a pair
// of queues, so the render side never allocates.
type fftNode struct {
	audiograph.BaseNode
	stateQueue *handoff.Queue[*fftState]
	state      *fftState
	// frames carries filled magnitude buffers render -> control; free
	// returns drained buffers control -> render.
	frames *handoff.Queue[[]float64]
	free   *handoff.Queue[[]float64]
}

func newFFTNode(id audiograph.NodeID, sampleRate float64, blockSize int) audiograph.Node {
	return &fftNode{
		BaseNode:   audiograph.NewBaseNode("fft", id, sampleRate, blockSize),
		stateQueue: handoff.New[*fftState](8),
		frames:     handoff.New[[]float64](fftFrameCount),
		free:       handoff.New[[]float64](fftFrameCount * 2),
	}
}

func (n *fftNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key != "size" {
		return n.BaseNode.SetProperty(key, val, res)
	}
	f, err := val.AsNumber()
	if err != nil {
		return &audiograph.InvariantError{Reason: "size prop of fft node must be a number", Err: err}
	}
	size := int(f)
	if size < 16 || size&(size-1) != 0 {
		return &audiograph.InvariantError{Reason: "size prop of fft node must be a power of two, 16 or larger"}
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return &audiograph.InvariantError{Reason: "failed to plan fft", Err: err}
	}
	if err := n.BaseNode.SetProperty(key, val, res); err != nil {
		return err
	}
	s := &fftState{
		size:    size,
		plan:    plan,
		acc:     make([]float64, size),
		scratch: make([]complex128, size),
		spec:    make([]complex128, size),
		re:      make([]float64, size/2),
		im:      make([]float64, size/2),
	}
	for i := 0; i < fftFrameCount; i++ {
		n.free.Push(make([]float64, size/2))
	}
	n.stateQueue.Push(s)
	return nil
}

func (n *fftNode) Process(ctx *audiograph.BlockContext) {
	n.stateQueue.PopLatest(&n.state)

	if len(ctx.Inputs) == 0 {
		zero(ctx.Output)
		return
	}
	in := ctx.Inputs[0]
	copy(ctx.Output, in[:ctx.NumSamples])

	s := n.state
	if s == nil {
		return
	}
	for i := 0; i < ctx.NumSamples; i++ {
		s.acc[s.pos] = in[i]
		s.pos++
		if s.pos == s.size {
			s.pos = 0
			n.emitFrame(s)
		}
	}
}

// emitFrame transforms the accumulated frame into a recycled magnitude
// buffer. Frames are dropped when no buffer is free or the outbound queue is
// full; dropped buffers are reclaimed by the garbage collector off the
// render path.
func (n *fftNode) emitFrame(s *fftState) {
	var buf []float64
	for {
		if !n.free.Pop(&buf) {
			return
		}
		if len(buf) == s.size/2 {
			break
		}
		// stale buffer from a previous size, drop it
	}
	for i := range s.acc {
		s.scratch[i] = complex(s.acc[i], 0)
	}
	if err := s.plan.Forward(s.spec, s.scratch); err != nil {
		return
	}
	for i := 0; i < s.size/2; i++ {
		s.re[i] = real(s.spec[i])
		s.im[i] = imag(s.spec[i])
	}
	vecmath.Magnitude(buf, s.re, s.im)
	n.frames.Push(buf)
}

// ProcessEvents drains the finished spectrum frames in FIFO order and
// returns their buffers to the render plane.
func (n *fftNode) ProcessEvents(sink audiograph.EventSink) {
	var buf []float64
	for n.frames.Pop(&buf) {
		data := make([]float32, len(buf))
		for i := range buf {
			data[i] = float32(buf[i])
		}
		sink("fft", value.ObjectVal(map[string]value.Value{
			"source": value.NumberVal(float64(n.ID())),
			"data":   value.FloatBufferVal(data),
		}))
		n.free.Push(buf)
	}
}

func (n *fftNode) Reset() {
	if n.state != nil {
		for i := range n.state.acc {
			n.state.acc[i] = 0
		}
		n.state.pos = 0
	}
}
