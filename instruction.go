package audiograph

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/dudk/audiograph/value"
)

// Instruction kinds dispatched by ApplyInstructions.
const (
	kindCreateNode  = "createNode"
	kindDeleteNode  = "deleteNode"
	kindSetProperty = "setProperty"
	kindConnect     = "connect"
	kindCommitGraph = "commitGraph"
)

// changeset stages structural edits of one batch. It is adopted as the new
// control-plane state only when the whole batch succeeds, so a failed batch
// never leaves the graph partially updated.
type changeset struct {
	nodes map[NodeID]Node
	edges map[NodeID][]NodeID
	order []NodeID
	dirty bool
}

func (r *Runtime) newChangeset() *changeset {
	cs := &changeset{
		nodes: make(map[NodeID]Node, len(r.nodes)),
		edges: make(map[NodeID][]NodeID, len(r.edges)),
		order: make([]NodeID, len(r.order)),
	}
	for id, n := range r.nodes {
		cs.nodes[id] = n
	}
	for id, ins := range r.edges {
		cs.edges[id] = append([]NodeID(nil), ins...)
	}
	copy(cs.order, r.order)
	return cs
}

// ApplyInstructions applies one batch of graph edits in array order.
// Structural edits are staged and become visible to the render plane as one
// atomic graph swap after the whole batch succeeds. A structural failure
// rejects the batch and keeps the prior graph renderable. Property-set
// failures are skipped and reported together once the batch completes.
func (r *Runtime) ApplyInstructions(batch value.Value) error {
	instrs, err := batch.AsArray()
	if err != nil {
		return invariantWrap(err, "malformed message batch")
	}
	cs := r.newChangeset()
	var skipped batchErrors
	for i := range instrs {
		if err := r.applyInstruction(cs, instrs[i], &skipped); err != nil {
			if r.log.IsLevelEnabled(logrus.DebugLevel) {
				r.log.WithFields(logrus.Fields{
					"runtime":     r.String(),
					"instruction": i,
				}).Debugf("batch rejected: %v\n%v", err, spew.Sdump(instrs[i]))
			}
			return err
		}
	}
	if cs.dirty {
		g, err := buildRenderGraph(cs.nodes, cs.edges, r.blockSize)
		if err != nil {
			return err
		}
		if !r.graphQueue.Push(g) {
			return ErrCommitBacklog
		}
		r.nodes = cs.nodes
		r.edges = cs.edges
		r.order = cs.order
		r.log.WithFields(logrus.Fields{
			"runtime": r.String(),
			"nodes":   len(r.nodes),
			"live":    len(g.order),
		}).Debug("graph committed")
	}
	return skipped.ret()
}

func (r *Runtime) applyInstruction(cs *changeset, instr value.Value, skipped *batchErrors) error {
	kind, err := stringField(instr, "kind")
	if err != nil {
		return err
	}
	switch kind {
	case kindCreateNode:
		id, err := nodeIDField(instr, "id")
		if err != nil {
			return err
		}
		typ, err := stringField(instr, "type")
		if err != nil {
			return err
		}
		if _, ok := cs.nodes[id]; ok {
			return invariantf("node %v already exists", id)
		}
		f, ok := r.factories[typ]
		if !ok {
			return invariantWrap(ErrUnknownNodeType, "no factory for node type %q", typ)
		}
		cs.nodes[id] = f(id, r.sampleRate, r.blockSize)
		cs.order = append(cs.order, id)
		cs.dirty = true

	case kindDeleteNode:
		id, err := nodeIDField(instr, "id")
		if err != nil {
			return err
		}
		if _, ok := cs.nodes[id]; !ok {
			return invariantWrap(ErrNodeNotFound, "delete node %v", id)
		}
		for to, ins := range cs.edges {
			if to == id {
				continue
			}
			for _, from := range ins {
				if from == id {
					return invariantf("node %v is still connected to node %v in the staged topology", id, to)
				}
			}
		}
		delete(cs.nodes, id)
		delete(cs.edges, id)
		for i, oid := range cs.order {
			if oid == id {
				cs.order = append(cs.order[:i], cs.order[i+1:]...)
				break
			}
		}
		cs.dirty = true

	case kindSetProperty:
		id, err := nodeIDField(instr, "id")
		if err != nil {
			return err
		}
		node, ok := cs.nodes[id]
		if !ok {
			return invariantWrap(ErrNodeNotFound, "set property on node %v", id)
		}
		key, err := stringField(instr, "key")
		if err != nil {
			return err
		}
		val, _ := instr.Field("value")
		if err := node.SetProperty(key, val, r.resources); err != nil {
			*skipped = append(*skipped, &PropertyError{Node: id, Key: key, Err: err})
		}

	case kindConnect:
		from, err := nodeIDField(instr, "from")
		if err != nil {
			return err
		}
		to, err := nodeIDField(instr, "to")
		if err != nil {
			return err
		}
		if _, ok := cs.nodes[from]; !ok {
			return invariantWrap(ErrNodeNotFound, "connect from node %v", from)
		}
		if _, ok := cs.nodes[to]; !ok {
			return invariantWrap(ErrNodeNotFound, "connect to node %v", to)
		}
		cs.edges[to] = append(cs.edges[to], from)
		cs.dirty = true

	case kindCommitGraph:
		cs.dirty = true

	default:
		return invariantf("unhandled instruction kind %q", kind)
	}
	return nil
}

func stringField(instr value.Value, field string) (string, error) {
	v, ok := instr.Field(field)
	if !ok {
		return "", invariantf("instruction missing %q field", field)
	}
	s, err := v.AsString()
	if err != nil {
		return "", invariantWrap(err, "instruction %q field must be a string", field)
	}
	return s, nil
}

func nodeIDField(instr value.Value, field string) (NodeID, error) {
	v, ok := instr.Field(field)
	if !ok {
		return 0, invariantf("instruction missing %q field", field)
	}
	n, err := v.AsNumber()
	if err != nil {
		return 0, invariantWrap(err, "instruction %q field must be a number", field)
	}
	return NodeID(n), nil
}
