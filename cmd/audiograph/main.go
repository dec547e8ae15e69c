// Command audiograph renders an instruction batch offline: it publishes wav
// resources, applies the batch and renders a fixed number of blocks into a
// wav file, standing in for a real-time host embedding.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dudk/audiograph"
	"github.com/dudk/audiograph/dsp"
	"github.com/dudk/audiograph/log"
	"github.com/dudk/audiograph/value"
	"github.com/dudk/audiograph/wav"
)

type resourceFlags []string

func (f *resourceFlags) String() string {
	return strings.Join(*f, ",")
}

func (f *resourceFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var (
		instructions = flag.String("instructions", "", "path to the instruction batch (json)")
		input        = flag.String("in", "", "optional input wav fed to channel 0")
		output       = flag.String("out", "out.wav", "path of the rendered wav")
		sampleRate   = flag.Int("sample-rate", 44100, "sample rate")
		blockSize    = flag.Int("block-size", 512, "samples per render block")
		blocks       = flag.Int("blocks", 100, "number of blocks to render")
		resources    resourceFlags
	)
	flag.Var(&resources, "resource", "resource to publish as path=file.wav, repeatable")
	flag.Parse()

	if err := run(*instructions, *input, *output, *sampleRate, *blockSize, *blocks, resources); err != nil {
		fmt.Fprintf(os.Stderr, "audiograph: %v\n", err)
		os.Exit(1)
	}
}

func run(instructions, input, output string, sampleRate, blockSize, blocks int, resources resourceFlags) error {
	if instructions == "" {
		return fmt.Errorf("missing -instructions")
	}
	logger := log.GetLogger()
	rt := audiograph.New(float64(sampleRate), blockSize,
		audiograph.WithName("cli"),
		audiograph.WithLogger(logger),
	)
	if err := dsp.Register(rt); err != nil {
		return err
	}

	for _, r := range resources {
		path, file, ok := strings.Cut(r, "=")
		if !ok {
			return fmt.Errorf("malformed -resource %q, want path=file.wav", r)
		}
		samples, _, err := wav.ReadResource(file)
		if err != nil {
			return fmt.Errorf("read resource %q: %w", file, err)
		}
		if err := rt.UpdateResource(value.StringVal(path), value.FloatBufferVal(samples)); err != nil {
			return err
		}
	}

	raw, err := os.ReadFile(instructions)
	if err != nil {
		return err
	}
	batch, err := value.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode instructions: %w", err)
	}
	if err := rt.ApplyInstructions(batch); err != nil {
		return fmt.Errorf("apply instructions: %w", err)
	}

	var feed []float64
	if input != "" {
		samples, _, err := wav.ReadResource(input)
		if err != nil {
			return fmt.Errorf("read input %q: %w", input, err)
		}
		feed = make([]float64, len(samples))
		for i := range samples {
			feed[i] = float64(samples[i])
		}
	}

	const numChannels = 2
	rendered := make([][]float64, numChannels)
	for i := range rendered {
		rendered[i] = make([]float64, blocks*blockSize)
	}
	in := [][]float64{make([]float64, blockSize)}
	out := make([][]float64, numChannels)

	var sampleTime int64
	for b := 0; b < blocks; b++ {
		for i := range in[0] {
			pos := int(sampleTime) + i
			if pos < len(feed) {
				in[0][i] = feed[pos]
			} else {
				in[0][i] = 0
			}
		}
		for i := range out {
			out[i] = rendered[i][b*blockSize : (b+1)*blockSize]
		}
		rt.Render(in, out, blockSize, sampleTime)
		sampleTime += int64(blockSize)
	}

	rt.ProcessQueuedEvents(func(typ string, payload value.Value) {
		logger.Infof("event %v: %v", typ, payload)
	})

	return wav.Write(output, rendered, sampleRate)
}
