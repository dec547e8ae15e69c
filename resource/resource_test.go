package resource_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/audiograph/resource"
)

func TestPublishGet(t *testing.T) {
	m := resource.NewMap()

	assert.False(t, m.Has("/ir.wav"))
	_, err := m.Get("/ir.wav")
	assert.True(t, errors.Is(err, resource.ErrNotFound))

	m.Publish("/ir.wav", []float32{1, 0, 0, 0})
	assert.True(t, m.Has("/ir.wav"))

	buf, err := m.Get("/ir.wav")
	assert.NoError(t, err)
	assert.Equal(t, 4, buf.Len())
	assert.Equal(t, []float32{1, 0, 0, 0}, buf.Data())
}

func TestPublishCopies(t *testing.T) {
	m := resource.NewMap()
	data := []float32{1, 2, 3}
	m.Publish("/a", data)
	data[0] = 99

	buf, err := m.Get("/a")
	assert.NoError(t, err)
	assert.Equal(t, float32(1), buf.Data()[0])
}

func TestPublishReplaces(t *testing.T) {
	m := resource.NewMap()
	m.Publish("/a", []float32{1})
	old, err := m.Get("/a")
	assert.NoError(t, err)

	m.Publish("/a", []float32{2, 2})
	replaced, err := m.Get("/a")
	assert.NoError(t, err)
	assert.Equal(t, []float32{2, 2}, replaced.Data())

	// already handed out buffers keep their contents
	assert.Equal(t, []float32{1}, old.Data())
}

func TestGetOrCreateMutable(t *testing.T) {
	m := resource.NewMap()

	b := m.GetOrCreateMutable("fb", 8)
	assert.Len(t, b.Data(), 8)
	assert.Equal(t, make([]float64, 8), b.Data())

	// tap nodes sharing a name share the buffer
	assert.Same(t, b, m.GetOrCreateMutable("fb", 8))
	assert.NotSame(t, b, m.GetOrCreateMutable("other", 8))

	// mutable names and published paths are separate namespaces
	assert.False(t, m.Has("fb"))
}

func TestPaths(t *testing.T) {
	m := resource.NewMap()
	m.Publish("/b", nil)
	m.Publish("/a", nil)

	paths := m.Paths()
	sort.Strings(paths)
	assert.Equal(t, []string{"/a", "/b"}, paths)
}
