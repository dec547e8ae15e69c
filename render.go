package audiograph

import (
	"sort"
	"time"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// renderNode binds a node to its preallocated block buffers.
type renderNode struct {
	node Node
	// inputs alias the output blocks of upstream nodes, in connection order.
	inputs [][]float64
	out    []float64
}

type renderRoot struct {
	node *rootNode
	buf  []float64
}

// renderGraph is an immutable snapshot of the committed topology. It is
// built on the control plane with every buffer preallocated, handed to the
// render plane through the commit queue and never mutated afterwards, so
// rendering one block touches no shared mutable state.
type renderGraph struct {
	// order holds the live nodes in dependency order.
	order []renderNode
	roots []renderRoot
	// taps holds the live tapOut nodes; their delay lines are promoted into
	// the shared feedback buffers before the traversal.
	taps []*tapOutNode
	ctx  BlockContext
}

const (
	colorWhite = iota
	colorGrey
	colorBlack
)

// buildRenderGraph computes the dependency order of all nodes reachable from
// the root nodes and preallocates their block buffers. It fails when the
// staged topology contains a cycle.
func buildRenderGraph(nodes map[NodeID]Node, edges map[NodeID][]NodeID, blockSize int) (*renderGraph, error) {
	rootIDs := make([]NodeID, 0)
	for id, n := range nodes {
		if n.Kind() == "root" {
			rootIDs = append(rootIDs, id)
		}
	}
	sort.Slice(rootIDs, func(i, j int) bool { return rootIDs[i] < rootIDs[j] })

	g := &renderGraph{}
	color := make(map[NodeID]int, len(nodes))
	bufs := make(map[NodeID][]float64, len(nodes))

	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		switch color[id] {
		case colorBlack:
			return nil
		case colorGrey:
			return invariantf("graph contains a cycle through node %v", id)
		}
		color[id] = colorGrey
		for _, from := range edges[id] {
			if err := visit(from); err != nil {
				return err
			}
		}
		color[id] = colorBlack

		inputs := make([][]float64, len(edges[id]))
		for i, from := range edges[id] {
			inputs[i] = bufs[from]
		}
		out := make([]float64, blockSize)
		bufs[id] = out
		g.order = append(g.order, renderNode{node: nodes[id], inputs: inputs, out: out})
		if tap, ok := nodes[id].(*tapOutNode); ok {
			g.taps = append(g.taps, tap)
		}
		return nil
	}

	for _, id := range rootIDs {
		if err := visit(id); err != nil {
			return nil, err
		}
		root, ok := nodes[id].(*rootNode)
		if !ok {
			return nil, invariantf("node %v carries the root kind tag but is not a root node", id)
		}
		g.roots = append(g.roots, renderRoot{node: root, buf: bufs[id]})
	}
	return g, nil
}

// Render evaluates the committed graph for one block. It adopts the latest
// committed topology, runs every live node once in dependency order and
// accumulates root node blocks into the caller's output channels, leaving
// channels without a producer zero-filled. Render never blocks, allocates or
// fails; without a committed graph it produces silence.
func (r *Runtime) Render(in, out [][]float64, numSamples int, sampleTime int64) {
	start := time.Now()
	if numSamples < 0 {
		numSamples = 0
	}
	if numSamples > r.blockSize {
		numSamples = r.blockSize
	}
	for i := range out {
		dst := out[i]
		if len(dst) > numSamples {
			dst = dst[:numSamples]
		}
		silence(dst)
	}

	r.graphQueue.PopLatest(&r.active)
	g := r.active
	if g == nil {
		r.meter.Block(numSamples, time.Since(start))
		return
	}

	for _, tap := range g.taps {
		tap.promote(numSamples)
	}

	ctx := &g.ctx
	ctx.External = in
	ctx.NumSamples = numSamples
	ctx.SampleTime = sampleTime
	for i := range g.order {
		rn := &g.order[i]
		ctx.Inputs = rn.inputs
		ctx.Output = rn.out[:numSamples]
		rn.node.Process(ctx)
	}

	for _, root := range g.roots {
		ch := int(root.node.channel.Load())
		if ch < 0 || ch >= len(out) {
			continue
		}
		n := numSamples
		if len(out[ch]) < n {
			n = len(out[ch])
		}
		vecmath.AddBlockInPlace(out[ch][:n], root.buf[:n])
	}
	r.meter.Block(numSamples, time.Since(start))
}
