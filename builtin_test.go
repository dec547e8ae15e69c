package audiograph_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/audiograph"
	"github.com/dudk/audiograph/value"
)

// TestBuiltinNodes renders short chains through the default node kinds and
// checks their block output, one block after another.
func TestBuiltinNodes(t *testing.T) {
	constInto := func(id, target float64, v float64) []value.Value {
		return []value.Value{
			createNode(id, "const"),
			setProperty(id, "value", value.NumberVal(v)),
			connect(id, target),
		}
	}
	chain := func(kind string, inputs ...float64) []value.Value {
		batch := []value.Value{
			createNode(1, kind),
			createNode(2, "root"),
			connect(1, 2),
		}
		for i, v := range inputs {
			batch = append(batch, constInto(float64(10+i), 1, v)...)
		}
		return append(batch, commitGraph())
	}

	tests := []struct {
		description string
		batch       []value.Value
		expected    [][]float64
	}{
		{
			description: "const",
			batch: []value.Value{
				createNode(1, "const"),
				setProperty(1, "value", value.NumberVal(2)),
				createNode(2, "root"),
				connect(1, 2),
				commitGraph(),
			},
			expected: [][]float64{{2, 2, 2, 2, 2, 2, 2, 2}},
		},
		{
			description: "sr",
			batch: []value.Value{
				createNode(1, "sr"),
				createNode(2, "root"),
				connect(1, 2),
				commitGraph(),
			},
			expected: [][]float64{{44100, 44100, 44100, 44100, 44100, 44100, 44100, 44100}},
		},
		{
			description: "gain",
			batch: append(chain("gain", 2),
				setProperty(1, "gain", value.NumberVal(0.5)),
				commitGraph(),
			),
			expected: [][]float64{{1, 1, 1, 1, 1, 1, 1, 1}},
		},
		{
			description: "add",
			batch:       chain("add", 1, 2),
			expected:    [][]float64{{3, 3, 3, 3, 3, 3, 3, 3}},
		},
		{
			description: "sub",
			batch:       chain("sub", 5, 2),
			expected:    [][]float64{{3, 3, 3, 3, 3, 3, 3, 3}},
		},
		{
			description: "mul",
			batch:       chain("mul", 2, 3),
			expected:    [][]float64{{6, 6, 6, 6, 6, 6, 6, 6}},
		},
		{
			description: "div by zero yields zero",
			batch:       chain("div", 1, 0),
			expected:    [][]float64{{0, 0, 0, 0, 0, 0, 0, 0}},
		},
		{
			description: "pow",
			batch:       chain("pow", 2, 3),
			expected:    [][]float64{{8, 8, 8, 8, 8, 8, 8, 8}},
		},
		{
			description: "mod",
			batch:       chain("mod", 7, 4),
			expected:    [][]float64{{3, 3, 3, 3, 3, 3, 3, 3}},
		},
		{
			description: "mod by zero yields zero",
			batch:       chain("mod", 7, 0),
			expected:    [][]float64{{0, 0, 0, 0, 0, 0, 0, 0}},
		},
		{
			description: "le",
			batch:       chain("le", 1, 2),
			expected:    [][]float64{{1, 1, 1, 1, 1, 1, 1, 1}},
		},
		{
			description: "leq",
			batch:       chain("leq", 2, 1),
			expected:    [][]float64{{0, 0, 0, 0, 0, 0, 0, 0}},
		},
		{
			description: "ge",
			batch:       chain("ge", 2, 2),
			expected:    [][]float64{{0, 0, 0, 0, 0, 0, 0, 0}},
		},
		{
			description: "geq",
			batch:       chain("geq", 2, 2),
			expected:    [][]float64{{1, 1, 1, 1, 1, 1, 1, 1}},
		},
		{
			description: "eq",
			batch:       chain("eq", 3, 3),
			expected:    [][]float64{{1, 1, 1, 1, 1, 1, 1, 1}},
		},
		{
			description: "and",
			batch:       chain("and", 1, 0),
			expected:    [][]float64{{0, 0, 0, 0, 0, 0, 0, 0}},
		},
		{
			description: "or",
			batch:       chain("or", 1, 0),
			expected:    [][]float64{{1, 1, 1, 1, 1, 1, 1, 1}},
		},
		{
			description: "min",
			batch:       chain("min", 3, -1),
			expected:    [][]float64{{-1, -1, -1, -1, -1, -1, -1, -1}},
		},
		{
			description: "max",
			batch:       chain("max", 3, -1),
			expected:    [][]float64{{3, 3, 3, 3, 3, 3, 3, 3}},
		},
		{
			description: "sin",
			batch:       chain("sin", math.Pi/2),
			expected:    [][]float64{{1, 1, 1, 1, 1, 1, 1, 1}},
		},
		{
			description: "abs",
			batch:       chain("abs", -4),
			expected:    [][]float64{{4, 4, 4, 4, 4, 4, 4, 4}},
		},
		{
			description: "counter counts while the gate is high",
			batch:       chain("counter", 1),
			expected: [][]float64{
				{0, 1, 2, 3, 4, 5, 6, 7},
				{8, 9, 10, 11, 12, 13, 14, 15},
			},
		},
		{
			description: "z delays by one sample",
			batch:       chain("z", 1),
			expected: [][]float64{
				{0, 1, 1, 1, 1, 1, 1, 1},
				{1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		{
			description: "sdelay delays by its line size",
			batch: append(chain("sdelay", 1),
				setProperty(1, "size", value.NumberVal(2)),
				commitGraph(),
			),
			expected: [][]float64{
				{0, 0, 1, 1, 1, 1, 1, 1},
				{1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		{
			description: "latch holds the signal from the rising edge",
			batch:       chain("latch", 1, 5),
			expected:    [][]float64{{5, 5, 5, 5, 5, 5, 5, 5}},
		},
		{
			description: "in passes its input through without a channel",
			batch:       chain("in", 7),
			expected:    [][]float64{{7, 7, 7, 7, 7, 7, 7, 7}},
		},
		{
			description: "unconnected operators are silent",
			batch: []value.Value{
				createNode(1, "gain"),
				createNode(2, "root"),
				connect(1, 2),
				commitGraph(),
			},
			expected: [][]float64{{0, 0, 0, 0, 0, 0, 0, 0}},
		},
		{
			description: "tapIn without a name is silent",
			batch: []value.Value{
				createNode(1, "tapIn"),
				createNode(2, "root"),
				connect(1, 2),
				commitGraph(),
			},
			expected: [][]float64{{0, 0, 0, 0, 0, 0, 0, 0}},
		},
	}
	for _, test := range tests {
		rt := audiograph.New(testSampleRate, testBlockSize)
		err := rt.ApplyInstructions(value.ArrayVal(test.batch...))
		assert.NoError(t, err, test.description)

		var sampleTime int64
		for _, expected := range test.expected {
			out := renderChannel(rt, nil, sampleTime)
			assert.InDeltaSlice(t, expected, out, 1e-12, test.description)
			sampleTime += testBlockSize
		}
	}
}

func TestPhasor(t *testing.T) {
	rt := audiograph.New(testSampleRate, testBlockSize)
	err := rt.ApplyInstructions(value.ArrayVal(
		createNode(1, "phasor"),
		setProperty(1, "freq", value.NumberVal(testSampleRate/4)),
		createNode(2, "root"),
		connect(1, 2),
		commitGraph(),
	))
	assert.NoError(t, err)

	// a quarter of the sample rate wraps every fourth sample
	out := renderChannel(rt, nil, 0)
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75, 0, 0.25, 0.5, 0.75}, out, 1e-12)
}

func TestRootChannel(t *testing.T) {
	rt := audiograph.New(testSampleRate, testBlockSize)
	err := rt.ApplyInstructions(value.ArrayVal(
		createNode(1, "const"),
		setProperty(1, "value", value.NumberVal(1)),
		createNode(2, "root"),
		setProperty(2, "channel", value.NumberVal(1)),
		connect(1, 2),
		commitGraph(),
	))
	assert.NoError(t, err)

	out := [][]float64{make([]float64, testBlockSize), make([]float64, testBlockSize)}
	rt.Render(nil, out, testBlockSize, 0)
	assert.Equal(t, 0.0, out[0][0])
	assert.Equal(t, 1.0, out[1][0])
}

func TestTwoRootsSameChannel(t *testing.T) {
	rt := audiograph.New(testSampleRate, testBlockSize)
	err := rt.ApplyInstructions(value.ArrayVal(
		createNode(1, "const"),
		setProperty(1, "value", value.NumberVal(0.25)),
		createNode(2, "root"),
		connect(1, 2),
		createNode(3, "const"),
		setProperty(3, "value", value.NumberVal(0.5)),
		createNode(4, "root"),
		connect(3, 4),
		commitGraph(),
	))
	assert.NoError(t, err)

	// both roots target channel 0 and their blocks accumulate
	out := renderChannel(rt, nil, 0)
	assert.InDelta(t, 0.75, out[0], 1e-12)
}

func TestTapFeedback(t *testing.T) {
	rt := audiograph.New(testSampleRate, testBlockSize)
	err := rt.ApplyInstructions(value.ArrayVal(
		createNode(1, "const"),
		setProperty(1, "value", value.NumberVal(0.5)),
		createNode(2, "tapOut"),
		setProperty(2, "name", value.StringVal("fb")),
		connect(1, 2),
		createNode(3, "root"),
		connect(2, 3),
		createNode(4, "tapIn"),
		setProperty(4, "name", value.StringVal("fb")),
		createNode(5, "root"),
		setProperty(5, "channel", value.NumberVal(1)),
		connect(4, 5),
		commitGraph(),
	))
	assert.NoError(t, err)

	render := func(sampleTime int64) ([]float64, []float64) {
		out := [][]float64{make([]float64, testBlockSize), make([]float64, testBlockSize)}
		rt.Render(nil, out, testBlockSize, sampleTime)
		return out[0], out[1]
	}

	// the tap line serves what tapOut captured one block earlier
	through, fed := render(0)
	assert.Equal(t, 0.5, through[0])
	assert.Equal(t, make([]float64, testBlockSize), fed)

	through, fed = render(testBlockSize)
	assert.Equal(t, 0.5, through[0])
	for i := range fed {
		assert.Equal(t, 0.5, fed[i], i)
	}

	// reset clears the captured block before it is promoted again
	rt.Reset()
	_, fed = render(2 * testBlockSize)
	assert.Equal(t, make([]float64, testBlockSize), fed)
}

func TestTapNameValidation(t *testing.T) {
	rt := audiograph.New(testSampleRate, testBlockSize)
	err := rt.ApplyInstructions(value.ArrayVal(
		createNode(1, "tapOut"),
		setProperty(1, "name", value.NumberVal(1)),
		createNode(2, "tapIn"),
		setProperty(2, "name", value.NumberVal(1)),
		commitGraph(),
	))
	assert.Error(t, err)
	var perr *audiograph.PropertyError
	assert.True(t, errors.As(err, &perr))
}

func TestSharedSource(t *testing.T) {
	rt := audiograph.New(testSampleRate, testBlockSize)
	err := rt.ApplyInstructions(value.ArrayVal(
		createNode(1, "const"),
		setProperty(1, "value", value.NumberVal(2)),
		createNode(2, "add"),
		connect(1, 2),
		connect(1, 2),
		createNode(3, "root"),
		connect(2, 3),
		commitGraph(),
	))
	assert.NoError(t, err)

	// one source fanned into both adder inputs is processed once
	out := renderChannel(rt, nil, 0)
	assert.Equal(t, 4.0, out[0])
}
