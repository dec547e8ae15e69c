// Package dsp provides the heavyweight extension node kinds: convolution,
// spectrum analysis and timing generators. They follow the same contract as
// the builtin kinds; everything expensive is constructed on the control
// plane and handed to the render plane through the node's own queue.
package dsp

import (
	"github.com/dudk/audiograph"
)

// Register adds the dsp node kinds to the runtime. It must be called before
// any instruction references them.
func Register(r *audiograph.Runtime) error {
	kinds := []struct {
		kind    string
		factory audiograph.Factory
	}{
		{"convolve", newConvolveNode},
		{"fft", newFFTNode},
		{"metro", newMetroNode},
		{"time", newSampleTimeNode},
	}
	for _, k := range kinds {
		if err := r.RegisterNodeType(k.kind, k.factory); err != nil {
			return err
		}
	}
	return nil
}

func zero(out []float64) {
	for i := range out {
		out[i] = 0
	}
}
