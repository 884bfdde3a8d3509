package soundbank

import (
	"fmt"
	"io"
	"os"

	wav "github.com/youpy/go-wav"
)

// loadWAV decodes a WAV file into normalized mono float32 frames. Stereo
// and multichannel files are averaged down to mono.
func loadWAV(path string) ([]float32, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, 0, fmt.Errorf("reading wav header: %w", err)
	}
	channels := int(format.NumChannels)
	if channels < 1 {
		return nil, 0, fmt.Errorf("wav has no channels")
	}

	var frames []float32
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		for _, s := range samples {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += r.FloatValue(s, uint(ch))
			}
			frames = append(frames, float32(sum/float64(channels)))
		}
	}
	if len(frames) == 0 {
		return nil, 0, fmt.Errorf("wav has no frames")
	}
	return frames, float64(format.SampleRate), nil
}
