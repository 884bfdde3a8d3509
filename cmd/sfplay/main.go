// sfplay plays a standard MIDI file against a soundbank, or renders it to
// a WAV file with -render.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	spessasynth "github.com/msveshnikov/spessasynth-go"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		bankPath   = flag.String("bank", "bank.yaml", "path to the soundbank manifest")
		midiPath   = flag.String("midi", "", "path to a standard MIDI file")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto|portaudio")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		renderPath = flag.String("render", "", "render to a WAV file instead of playing")
		normalize  = flag.Bool("normalize", true, "peak-normalize rendered output")
		tail       = flag.Float64("tail", 0, "render length in seconds (0 = file length plus a 2 s release tail)")
		counts     = flag.Bool("counts", false, "print voice-count updates")
	)
	flag.Parse()

	if *midiPath == "" {
		log.Fatal("need -midi")
	}

	if *renderPath != "" {
		render(*bankPath, *midiPath, *renderPath, *sampleRate, *tail, *normalize)
		return
	}

	pl, err := spessasynth.NewPlayer(*sampleRate, spessasynth.WithBackend(*backend))
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.LoadBank(*bankPath); err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(*volume)
	if *counts {
		go func() {
			for u := range pl.Watch() {
				fmt.Printf("voices: %v\n", u.VoiceCounts)
			}
		}()
	}
	if err := pl.Play(); err != nil {
		log.Fatal(err)
	}

	duration, err := pl.PlayMIDIFile(*midiPath)
	if err != nil {
		log.Fatal(err)
	}
	time.Sleep(duration + 2*time.Second)
	pl.StopAll(true)
	time.Sleep(time.Second)
	if err := pl.Stop(); err != nil {
		log.Fatal(err)
	}
}

func render(bankPath, midiPath, outPath string, sampleRate int, tail float64, normalize bool) {
	samples, err := spessasynth.RenderFile(bankPath, midiPath, sampleRate, tail)
	if err != nil {
		log.Fatal(err)
	}
	if normalize {
		spessasynth.Normalize(samples, 0.95)
	}
	f, err := os.Create(outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := spessasynth.EncodeWAV(f, samples, sampleRate); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%.1fs, peak %.3f)\n", outPath,
		float64(len(samples)/2)/float64(sampleRate), spessasynth.Peak(samples))
}
