/*
Package audiograph implements a mutable, node-based audio computation graph
with a realtime-safe rendering path.

# Concept

Two roles cooperate around one runtime. The control plane edits the graph by
applying batches of instructions, publishes shared resources and drains
queued events. The render plane calls Render once per audio block and must
meet the block's deadline, so it never blocks on a lock, never allocates and
never fails; every missing prerequisite degrades to silence.

The planes may run on different goroutines. All state crossing between them
travels one of two ways: through single-writer single-reader lock-free
queues (package handoff) that transfer ownership of heavyweight objects, or
through immutable, path-keyed float buffers (package resource) whose handles
are swapped, never mutated.

# Instructions

Graph edits arrive as dynamic values (package value) shaped like

	{kind: "createNode", id: 1, type: "gain"}
	{kind: "setProperty", id: 1, key: "gain", value: 0.5}
	{kind: "connect", from: 2, to: 1}
	{kind: "deleteNode", id: 3}
	{kind: "commitGraph"}

Structural edits of one batch are staged and become visible to the render
plane as a single atomic graph swap between blocks, so a block is always
rendered against one consistent topology. A structural failure rejects the
whole batch and keeps the prior graph renderable; property failures are
skipped and reported while the rest of the batch still applies.

# Node kinds

A node kind is a factory registered under a string tag. The runtime ships
arithmetic and utility kinds; package dsp adds convolution, spectrum
analysis and timing kinds built on top of the same contract. Kinds that
construct heavyweight render state do so on the control plane and hand the
result over through their own queue; the render plane adopts the latest
pending state at the start of each block, so rapid successive updates
collapse to last-one-wins.
*/
package audiograph
