// Package resource implements the shared resource map: a path-keyed registry
// of immutable float buffers staged by the control plane before a node
// consumes them. Buffers are never mutated after publication; an update at an
// existing path swaps the handle, so a reader can never observe a partially
// written buffer.
package resource

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when no buffer is published at the requested path.
var ErrNotFound = errors.New("resource not found")

// Buffer is an immutable float buffer shared by reference across nodes. It
// survives node destruction for as long as any holder references it.
type Buffer struct {
	data []float32
}

// Data returns the samples. The slice is shared; callers must not modify it.
func (b *Buffer) Data() []float32 {
	return b.data
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	return len(b.data)
}

// MutableBuffer is a named buffer shared between tap nodes for in-graph
// feedback. Unlike Buffer it is rewritten every block by its owning tapOut
// node; readers observe the block written one render call earlier.
type MutableBuffer struct {
	data []float64
}

// Data returns the samples. Only the owning tapOut node may write them.
func (b *MutableBuffer) Data() []float64 {
	return b.data
}

// Map is a path-keyed registry of immutable buffers plus a name-keyed
// registry of mutable feedback buffers. Publish may run concurrently with
// Get; both are control-plane operations and never appear on the render
// path.
type Map struct {
	mu       sync.RWMutex
	buffers  map[string]*Buffer
	mutables map[string]*MutableBuffer
}

// NewMap returns an empty resource map.
func NewMap() *Map {
	return &Map{
		buffers:  make(map[string]*Buffer),
		mutables: make(map[string]*MutableBuffer),
	}
}

// Publish installs or atomically replaces the buffer at path. The data is
// copied, so the caller keeps ownership of its slice.
func (m *Map) Publish(path string, data []float32) {
	b := &Buffer{data: make([]float32, len(data))}
	copy(b.data, data)

	m.mu.Lock()
	m.buffers[path] = b
	m.mu.Unlock()
}

// Has reports whether a buffer is published at path.
func (m *Map) Has(path string) bool {
	m.mu.RLock()
	_, ok := m.buffers[path]
	m.mu.RUnlock()
	return ok
}

// Get returns the shared buffer published at path.
func (m *Map) Get(path string) (*Buffer, error) {
	m.mu.RLock()
	b, ok := m.buffers[path]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return b, nil
}

// GetOrCreateMutable returns the mutable buffer registered under name,
// creating a zeroed one of the given size on first use. Tap nodes sharing a
// name share the buffer.
func (m *Map) GetOrCreateMutable(name string, size int) *MutableBuffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.mutables[name]; ok {
		return b
	}
	b := &MutableBuffer{data: make([]float64, size)}
	m.mutables[name] = b
	return b
}

// Paths returns the published paths in no particular order.
func (m *Map) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.buffers))
	for p := range m.buffers {
		paths = append(paths, p)
	}
	return paths
}
