package audiograph

import (
	"math"
	"sync/atomic"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/dudk/audiograph/handoff"
	"github.com/dudk/audiograph/resource"
	"github.com/dudk/audiograph/value"
)

// atomicFloat is a float64 written by the control plane and read by the
// render plane without locking.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func silence(out []float64) {
	for i := range out {
		out[i] = 0
	}
}

// defaultNodeTypes returns the factories registered on every new runtime.
func defaultNodeTypes() map[string]Factory {
	types := map[string]Factory{
		"in":      newIdentityNode,
		"root":    newRootNode,
		"const":   newConstNode,
		"sr":      newSampleRateNode,
		"phasor":  newPhasorNode,
		"counter": newCounterNode,
		"latch":   newLatchNode,
		"z":       newSingleSampleDelayNode,
		"sdelay":  newSampleDelayNode,
		"gain":    newGainNode,
		"tapIn":   newTapInNode,
		"tapOut":  newTapOutNode,
	}

	unary := map[string]func(float64) float64{
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"tanh":  math.Tanh,
		"sqrt":  math.Sqrt,
		"exp":   math.Exp,
		"ln":    math.Log,
		"log":   math.Log10,
		"log2":  math.Log2,
		"abs":   math.Abs,
		"ceil":  math.Ceil,
		"floor": math.Floor,
	}
	for kind, fn := range unary {
		kind, fn := kind, fn
		types[kind] = func(id NodeID, sampleRate float64, blockSize int) Node {
			return &unaryNode{BaseNode: NewBaseNode(kind, id, sampleRate, blockSize), fn: fn}
		}
	}

	reduce := map[string]func(a, b float64) float64{
		"sub": func(a, b float64) float64 { return a - b },
		"div": safeDivide,
		"mod": safeMod,
		"pow": math.Pow,
		"min": math.Min,
		"max": math.Max,
		"le":  compare(func(a, b float64) bool { return a < b }),
		"leq": compare(func(a, b float64) bool { return a <= b }),
		"ge":  compare(func(a, b float64) bool { return a > b }),
		"geq": compare(func(a, b float64) bool { return a >= b }),
		"eq":  compare(func(a, b float64) bool { return a == b }),
		"and": compare(func(a, b float64) bool { return a != 0 && b != 0 }),
		"or":  compare(func(a, b float64) bool { return a != 0 || b != 0 }),
	}
	for kind, op := range reduce {
		kind, op := kind, op
		types[kind] = func(id NodeID, sampleRate float64, blockSize int) Node {
			return &reduceNode{BaseNode: NewBaseNode(kind, id, sampleRate, blockSize), op: op}
		}
	}
	types["add"] = func(id NodeID, sampleRate float64, blockSize int) Node {
		return &reduceNode{BaseNode: NewBaseNode("add", id, sampleRate, blockSize), blockOp: vecmath.AddBlockInPlace}
	}
	types["mul"] = func(id NodeID, sampleRate float64, blockSize int) Node {
		return &reduceNode{BaseNode: NewBaseNode("mul", id, sampleRate, blockSize), blockOp: vecmath.MulBlockInPlace}
	}
	return types
}

func safeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func safeMod(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return math.Mod(a, b)
}

func compare(pred func(a, b float64) bool) func(a, b float64) float64 {
	return func(a, b float64) float64 {
		if pred(a, b) {
			return 1
		}
		return 0
	}
}

// identityNode feeds an external input channel into the graph, or passes its
// first input through when no channel is configured.
type identityNode struct {
	BaseNode
	channel atomic.Int64
}

func newIdentityNode(id NodeID, sampleRate float64, blockSize int) Node {
	n := &identityNode{BaseNode: NewBaseNode("in", id, sampleRate, blockSize)}
	n.channel.Store(-1)
	return n
}

func (n *identityNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key == "channel" {
		ch, err := n.setNumber(key, val)
		if err != nil {
			return err
		}
		n.channel.Store(int64(ch))
		return nil
	}
	return n.BaseNode.SetProperty(key, val, res)
}

func (n *identityNode) Process(ctx *BlockContext) {
	ch := int(n.channel.Load())
	if ch >= 0 && ch < len(ctx.External) {
		copy(ctx.Output, ctx.External[ch][:ctx.NumSamples])
		return
	}
	if len(ctx.Inputs) > 0 {
		copy(ctx.Output, ctx.Inputs[0][:ctx.NumSamples])
		return
	}
	silence(ctx.Output)
}

// rootNode terminates the graph: it sums its inputs and the runtime copies
// its block into the configured output channel.
type rootNode struct {
	BaseNode
	channel atomic.Int64
}

func newRootNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &rootNode{BaseNode: NewBaseNode("root", id, sampleRate, blockSize)}
}

func (n *rootNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key == "channel" {
		ch, err := n.setNumber(key, val)
		if err != nil {
			return err
		}
		n.channel.Store(int64(ch))
		return nil
	}
	return n.BaseNode.SetProperty(key, val, res)
}

func (n *rootNode) Process(ctx *BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output)
		return
	}
	copy(ctx.Output, ctx.Inputs[0][:ctx.NumSamples])
	for _, in := range ctx.Inputs[1:] {
		vecmath.AddBlockInPlace(ctx.Output, in[:ctx.NumSamples])
	}
}

type constNode struct {
	BaseNode
	level atomicFloat
}

func newConstNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &constNode{BaseNode: NewBaseNode("const", id, sampleRate, blockSize)}
}

func (n *constNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key == "value" {
		v, err := n.setNumber(key, val)
		if err != nil {
			return err
		}
		n.level.Store(v)
		return nil
	}
	return n.BaseNode.SetProperty(key, val, res)
}

func (n *constNode) Process(ctx *BlockContext) {
	v := n.level.Load()
	for i := range ctx.Output {
		ctx.Output[i] = v
	}
}

type sampleRateNode struct {
	BaseNode
}

func newSampleRateNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &sampleRateNode{BaseNode: NewBaseNode("sr", id, sampleRate, blockSize)}
}

func (n *sampleRateNode) Process(ctx *BlockContext) {
	sr := n.SampleRate()
	for i := range ctx.Output {
		ctx.Output[i] = sr
	}
}

// phasorNode outputs a 0..1 ramp at the frequency given by its first input,
// or by the "freq" property when unconnected.
type phasorNode struct {
	BaseNode
	freq  atomicFloat
	phase float64
}

func newPhasorNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &phasorNode{BaseNode: NewBaseNode("phasor", id, sampleRate, blockSize)}
}

func (n *phasorNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key == "freq" {
		f, err := n.setNumber(key, val)
		if err != nil {
			return err
		}
		n.freq.Store(f)
		return nil
	}
	return n.BaseNode.SetProperty(key, val, res)
}

func (n *phasorNode) Process(ctx *BlockContext) {
	inc := n.freq.Load() / n.SampleRate()
	for i := range ctx.Output {
		if len(ctx.Inputs) > 0 {
			inc = ctx.Inputs[0][i] / n.SampleRate()
		}
		ctx.Output[i] = n.phase
		n.phase += inc
		n.phase -= math.Floor(n.phase)
	}
}

func (n *phasorNode) Reset() {
	n.phase = 0
}

// counterNode counts samples while its gate input is high and rewinds to
// zero when the gate falls.
type counterNode struct {
	BaseNode
	count float64
}

func newCounterNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &counterNode{BaseNode: NewBaseNode("counter", id, sampleRate, blockSize)}
}

func (n *counterNode) Process(ctx *BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output)
		return
	}
	gate := ctx.Inputs[0]
	for i := range ctx.Output {
		if gate[i] > 0 {
			ctx.Output[i] = n.count
			n.count++
		} else {
			n.count = 0
			ctx.Output[i] = 0
		}
	}
}

func (n *counterNode) Reset() {
	n.count = 0
}

// latchNode samples its second input on the rising edge of the first and
// holds it.
type latchNode struct {
	BaseNode
	held     float64
	prevGate float64
}

func newLatchNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &latchNode{BaseNode: NewBaseNode("latch", id, sampleRate, blockSize)}
}

func (n *latchNode) Process(ctx *BlockContext) {
	if len(ctx.Inputs) < 2 {
		silence(ctx.Output)
		return
	}
	gate, sig := ctx.Inputs[0], ctx.Inputs[1]
	for i := range ctx.Output {
		if gate[i] > 0 && n.prevGate <= 0 {
			n.held = sig[i]
		}
		n.prevGate = gate[i]
		ctx.Output[i] = n.held
	}
}

func (n *latchNode) Reset() {
	n.held = 0
	n.prevGate = 0
}

type singleSampleDelayNode struct {
	BaseNode
	prev float64
}

func newSingleSampleDelayNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &singleSampleDelayNode{BaseNode: NewBaseNode("z", id, sampleRate, blockSize)}
}

func (n *singleSampleDelayNode) Process(ctx *BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output)
		return
	}
	in := ctx.Inputs[0]
	for i := range ctx.Output {
		ctx.Output[i] = n.prev
		n.prev = in[i]
	}
}

func (n *singleSampleDelayNode) Reset() {
	n.prev = 0
}

// sampleDelayNode delays its input by a fixed number of samples. The delay
// line is built on the control plane when the "size" property is set and
// handed over to the render plane, which adopts the latest line and accepts
// the discontinuity.
type sampleDelayNode struct {
	BaseNode
	lineQueue *handoff.Queue[[]float64]
	line      []float64
	pos       int
}

func newSampleDelayNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &sampleDelayNode{
		BaseNode:  NewBaseNode("sdelay", id, sampleRate, blockSize),
		lineQueue: handoff.New[[]float64](8),
	}
}

func (n *sampleDelayNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key == "size" {
		size, err := n.setNumber(key, val)
		if err != nil {
			return err
		}
		if size < 0 {
			return invariantf("size prop of sdelay node must not be negative")
		}
		n.lineQueue.Push(make([]float64, int(size)))
		return nil
	}
	return n.BaseNode.SetProperty(key, val, res)
}

func (n *sampleDelayNode) Process(ctx *BlockContext) {
	if n.lineQueue.PopLatest(&n.line) {
		n.pos = 0
	}
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output)
		return
	}
	in := ctx.Inputs[0]
	if len(n.line) == 0 {
		copy(ctx.Output, in[:ctx.NumSamples])
		return
	}
	for i := range ctx.Output {
		ctx.Output[i] = n.line[n.pos]
		n.line[n.pos] = in[i]
		n.pos++
		if n.pos == len(n.line) {
			n.pos = 0
		}
	}
}

func (n *sampleDelayNode) Reset() {
	for i := range n.line {
		n.line[i] = 0
	}
	n.pos = 0
}

// tapInNode receives feedback from within the graph: it feeds the named
// mutable buffer to its output, or silence while no buffer is configured.
// The buffer carries what the matching tapOut node captured one block ago,
// so a feedback path has exactly one block of latency without a graph edge
// that would form a cycle.
type tapInNode struct {
	BaseNode
	bufferQueue *handoff.Queue[*resource.MutableBuffer]
	active      *resource.MutableBuffer
}

func newTapInNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &tapInNode{
		BaseNode:    NewBaseNode("tapIn", id, sampleRate, blockSize),
		bufferQueue: handoff.New[*resource.MutableBuffer](8),
	}
}

func (n *tapInNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key == "name" {
		name, err := n.setString(key, val)
		if err != nil {
			return err
		}
		n.bufferQueue.Push(res.GetOrCreateMutable(name, n.BlockSize()))
		return nil
	}
	return n.BaseNode.SetProperty(key, val, res)
}

func (n *tapInNode) Process(ctx *BlockContext) {
	n.bufferQueue.PopLatest(&n.active)
	if n.active == nil {
		silence(ctx.Output)
		return
	}
	copy(ctx.Output, n.active.Data()[:ctx.NumSamples])
}

// tapOutNode produces feedback from within the graph: it passes its input
// through while capturing the same block into a delay line. The runtime
// promotes the delay line into the named mutable buffer before the graph
// traversal of the next block, so readers stay exactly one block behind.
type tapOutNode struct {
	BaseNode
	tapQueue *handoff.Queue[*resource.MutableBuffer]
	active   *resource.MutableBuffer
	delay    []float64
}

func newTapOutNode(id NodeID, sampleRate float64, blockSize int) Node {
	return &tapOutNode{
		BaseNode: NewBaseNode("tapOut", id, sampleRate, blockSize),
		tapQueue: handoff.New[*resource.MutableBuffer](8),
		delay:    make([]float64, blockSize),
	}
}

func (n *tapOutNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key == "name" {
		name, err := n.setString(key, val)
		if err != nil {
			return err
		}
		n.tapQueue.Push(res.GetOrCreateMutable(name, n.BlockSize()))
		return nil
	}
	return n.BaseNode.SetProperty(key, val, res)
}

// promote adopts the latest named buffer and drains the delay line into it.
// It runs before the graph traversal, so the read pointer moves before the
// write pointer and readers never observe the current block.
func (n *tapOutNode) promote(numSamples int) {
	n.tapQueue.PopLatest(&n.active)
	if n.active == nil {
		return
	}
	copy(n.active.Data()[:numSamples], n.delay[:numSamples])
}

func (n *tapOutNode) Process(ctx *BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output)
		return
	}
	in := ctx.Inputs[0]
	copy(n.delay, in[:ctx.NumSamples])
	copy(ctx.Output, in[:ctx.NumSamples])
}

func (n *tapOutNode) Reset() {
	for i := range n.delay {
		n.delay[i] = 0
	}
}

type gainNode struct {
	BaseNode
	gain atomicFloat
}

func newGainNode(id NodeID, sampleRate float64, blockSize int) Node {
	n := &gainNode{BaseNode: NewBaseNode("gain", id, sampleRate, blockSize)}
	n.gain.Store(1)
	return n
}

func (n *gainNode) SetProperty(key string, val value.Value, res *resource.Map) error {
	if key == "gain" {
		g, err := n.setNumber(key, val)
		if err != nil {
			return err
		}
		n.gain.Store(g)
		return nil
	}
	return n.BaseNode.SetProperty(key, val, res)
}

func (n *gainNode) Process(ctx *BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output)
		return
	}
	vecmath.ScaleBlock(ctx.Output, ctx.Inputs[0][:ctx.NumSamples], n.gain.Load())
}

type unaryNode struct {
	BaseNode
	fn func(float64) float64
}

func (n *unaryNode) Process(ctx *BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output)
		return
	}
	in := ctx.Inputs[0]
	for i := range ctx.Output {
		ctx.Output[i] = n.fn(in[i])
	}
}

// reduceNode folds all of its inputs pairwise. Kinds with a vectorized block
// form provide blockOp, the rest fold elementwise.
type reduceNode struct {
	BaseNode
	op      func(a, b float64) float64
	blockOp func(dst, src []float64)
}

func (n *reduceNode) Process(ctx *BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output)
		return
	}
	copy(ctx.Output, ctx.Inputs[0][:ctx.NumSamples])
	for _, in := range ctx.Inputs[1:] {
		if n.blockOp != nil {
			n.blockOp(ctx.Output, in[:ctx.NumSamples])
			continue
		}
		for i := range ctx.Output {
			ctx.Output[i] = n.op(ctx.Output[i], in[i])
		}
	}
}
