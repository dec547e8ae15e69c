package audiograph

import (
	"github.com/dudk/audiograph/resource"
	"github.com/dudk/audiograph/value"
)

// BaseNode carries the state every node kind shares: identity, rates and the
// last-write-wins property map. Concrete kinds embed it and override
// SetProperty and Process.
type BaseNode struct {
	id         NodeID
	kind       string
	sampleRate float64
	blockSize  int
	props      map[string]value.Value
}

// NewBaseNode returns an initialized base for a concrete node kind.
func NewBaseNode(kind string, id NodeID, sampleRate float64, blockSize int) BaseNode {
	return BaseNode{
		id:         id,
		kind:       kind,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		props:      make(map[string]value.Value),
	}
}

// ID returns the node id.
func (n *BaseNode) ID() NodeID {
	return n.id
}

// Kind returns the kind tag the node was created with.
func (n *BaseNode) Kind() string {
	return n.kind
}

// SampleRate returns the runtime sample rate.
func (n *BaseNode) SampleRate() float64 {
	return n.sampleRate
}

// BlockSize returns the maximum block length.
func (n *BaseNode) BlockSize() int {
	return n.blockSize
}

// SetProperty stores the property. Kinds with typed properties validate the
// value first and store only when it is acceptable.
func (n *BaseNode) SetProperty(key string, val value.Value, _ *resource.Map) error {
	n.props[key] = val
	return nil
}

// Property returns a previously set property.
func (n *BaseNode) Property(key string) (value.Value, bool) {
	v, ok := n.props[key]
	return v, ok
}

// Reset is a no-op; kinds with render state override it.
func (n *BaseNode) Reset() {}

// setNumber validates a numeric property and stores it.
func (n *BaseNode) setNumber(key string, val value.Value) (float64, error) {
	f, err := val.AsNumber()
	if err != nil {
		return 0, invariantWrap(err, "%v prop of %v node must be a number", key, n.kind)
	}
	n.props[key] = val
	return f, nil
}

// setString validates a string property and stores it.
func (n *BaseNode) setString(key string, val value.Value) (string, error) {
	s, err := val.AsString()
	if err != nil {
		return "", invariantWrap(err, "%v prop of %v node must be a string", key, n.kind)
	}
	n.props[key] = val
	return s, nil
}
