package spessasynth

import (
	"fmt"
	"io"

	"github.com/viterin/vek/vek32"
	wav "github.com/youpy/go-wav"

	"github.com/msveshnikov/spessasynth-go/internal/midi"
)

// releaseTailSeconds is appended after the last scheduled event so release
// stages ring out in offline renders.
const releaseTailSeconds = 2.0

// RenderFile renders a standard MIDI file against a soundbank into
// interleaved stereo float32 frames. seconds limits the render length;
// pass 0 to render the whole file plus a release tail.
func RenderFile(bankPath, midiPath string, sampleRate int, seconds float64) ([]float32, error) {
	schedule, err := midi.LoadSMF(midiPath)
	if err != nil {
		return nil, fmt.Errorf("loading midi file: %w", err)
	}
	if seconds <= 0 {
		seconds = schedule.Duration() + releaseTailSeconds
	}

	pl, err := NewPlayer(sampleRate, WithBackend("none"))
	if err != nil {
		return nil, err
	}
	defer pl.Stop()
	if err := pl.LoadBank(bankPath); err != nil {
		return nil, err
	}
	pl.PreloadSamples()

	totalFrames := int(float64(sampleRate) * seconds)
	out := make([]float32, 0, totalFrames*2)
	chunk := make([]float32, pl.blockSize*2)
	next := 0
	for rendered := 0; rendered < totalFrames; rendered += pl.blockSize {
		blockEnd := float64(rendered+pl.blockSize) / float64(sampleRate)
		for next < len(schedule) && schedule[next].At < blockEnd {
			pl.proc.Post(schedule[next].Event)
			next++
		}
		pl.Process(chunk)
		out = append(out, chunk...)
	}
	if len(out) > totalFrames*2 {
		out = out[:totalFrames*2]
	}
	return out, nil
}

// Normalize scales samples in place so the peak magnitude hits the given
// level. Silent input is left untouched.
func Normalize(samples []float32, peak float32) {
	if len(samples) == 0 || peak <= 0 {
		return
	}
	maxAbs := vek32.Max(vek32.Abs(samples))
	if maxAbs <= 0 {
		return
	}
	vek32.MulNumber_Inplace(samples, peak/maxAbs)
}

// Peak returns the peak magnitude of the buffer, 0 for empty input.
func Peak(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	return vek32.Max(vek32.Abs(samples))
}

// EncodeWAV writes interleaved stereo float32 frames as a 16-bit PCM WAV.
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	frames := len(samples) / 2
	writer := wav.NewWriter(w, uint32(frames), 2, uint32(sampleRate), 16)
	const batch = 1024
	buf := make([]wav.Sample, 0, batch)
	for f := 0; f < frames; f++ {
		buf = append(buf, wav.Sample{Values: [2]int{
			pcm16(samples[f*2]),
			pcm16(samples[f*2+1]),
		}})
		if len(buf) == batch {
			if err := writer.WriteSamples(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		return writer.WriteSamples(buf)
	}
	return nil
}

func pcm16(v float32) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(v * 32767)
}
