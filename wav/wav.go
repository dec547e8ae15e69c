// Package wav converts between wav files and the engine's sample
// representations: float32 resource buffers for impulse responses and
// non-interleaved float64 channels for rendered audio.
package wav

import (
	"errors"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotValid is returned when the decoded file is not a valid wav.
var ErrNotValid = errors.New("wav is not valid")

func divider(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return math.MaxInt8
	case 16:
		return math.MaxInt16
	case 24:
		return 1 << 23
	case 32:
		return math.MaxInt32
	default:
		return 1
	}
}

// ReadResource decodes the first channel of a wav file into a float32
// buffer suitable for publishing into the shared resource map. It returns
// the samples and the file's sample rate.
func ReadResource(path string) ([]float32, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, ErrNotValid
	}
	ib, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	numChannels := ib.Format.NumChannels
	div := divider(int(decoder.BitDepth))
	data := make([]float32, 0, len(ib.Data)/numChannels)
	for i := 0; i < len(ib.Data); i += numChannels {
		data = append(data, float32(float64(ib.Data[i])/div))
	}
	return data, int(decoder.SampleRate), nil
}

// Write encodes non-interleaved float64 channels into a 16-bit wav file.
func Write(path string, channels [][]float64, sampleRate int) error {
	if len(channels) == 0 {
		return errors.New("no channels to write")
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	numChannels := len(channels)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, numChannels*len(channels[0])),
		SourceBitDepth: 16,
	}
	mult := divider(16) - 1
	for i := range channels[0] {
		for j := range channels {
			ib.Data[i*numChannels+j] = int(channels[j][i] * mult)
		}
	}

	encoder := wav.NewEncoder(file, sampleRate, 16, numChannels, 1)
	if err := encoder.Write(ib); err != nil {
		file.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
