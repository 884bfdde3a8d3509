//go:build !portaudio

package spessasynth

import "fmt"

func openExtraBackend(name string, sampleRate, blockSize int, source interface{ Process([]float32) }) (audioBackend, error) {
	return nil, fmt.Errorf("unknown audio backend %q (build with -tags portaudio for the portaudio backend)", name)
}
