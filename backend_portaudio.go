//go:build portaudio

package spessasynth

import (
	"fmt"

	"github.com/msveshnikov/spessasynth-go/internal/audio"
)

func openExtraBackend(name string, sampleRate, blockSize int, source interface{ Process([]float32) }) (audioBackend, error) {
	if name != "portaudio" {
		return nil, fmt.Errorf("unknown audio backend %q", name)
	}
	src, ok := source.(audio.Source)
	if !ok {
		return nil, fmt.Errorf("source does not implement the sample source contract")
	}
	return audio.NewPortAudioPlayer(sampleRate, blockSize, src)
}
