package spessasynth

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	wav "github.com/youpy/go-wav"
)

const testManifest = `
name: Test Bank
presets:
  - bank: 0
    program: 0
    name: Sine
    zones:
      - sample: sine.wav
        rootKey: 60
        loopStart: 100
        loopEnd: 3900
        loopMode: continuous
  - bank: 0
    program: 1
    name: Sine Octave
    zones:
      - sample: sine.wav
        rootKey: 48
        loopStart: 100
        loopEnd: 3900
        loopMode: continuous
`

func writeTestBank(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "sine.wav"))
	if err != nil {
		t.Fatal(err)
	}
	const frames = 4000
	w := wav.NewWriter(f, frames, 1, 44100, 16)
	samples := make([]wav.Sample, frames)
	for i := range samples {
		samples[i].Values[0] = int(30000 * math.Sin(2*math.Pi*220*float64(i)/44100))
	}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "bank.yaml")
	if err := os.WriteFile(path, []byte(testManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestPlayer(t *testing.T, opts ...PlayerOption) *Player {
	t.Helper()
	opts = append([]PlayerOption{WithBackend("none")}, opts...)
	pl, err := NewPlayer(44100, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pl.Stop() })
	if err := pl.LoadBank(writeTestBank(t)); err != nil {
		t.Fatal(err)
	}
	return pl
}

func absSum(buf []float32) float64 {
	var sum float64
	for _, s := range buf {
		sum += math.Abs(float64(s))
	}
	return sum
}

func TestPlayerRendersNotes(t *testing.T) {
	pl := newTestPlayer(t, WithReverb(false), WithChorus(false))
	buf := make([]float32, 4096)

	pl.Process(buf)
	if absSum(buf) != 0 {
		t.Fatal("idle player must render silence")
	}

	pl.NoteOn(0, 60, 100)
	pl.Process(buf)
	if absSum(buf) == 0 {
		t.Fatal("note produced no output")
	}

	pl.StopAll(false)
	// Without release, stopAll drops every voice, so the buffers after it are silent.
	for i := 0; i < 40; i++ {
		pl.Process(buf)
	}
	if absSum(buf) != 0 {
		t.Errorf("voice still sounding after stopAll: %v", absSum(buf))
	}
}

func TestPlayerMasterVolume(t *testing.T) {
	pl := newTestPlayer(t, WithReverb(false), WithChorus(false))
	pl.SetMasterVolume(0)
	pl.NoteOn(0, 60, 100)
	buf := make([]float32, 2048)
	pl.Process(buf)
	if absSum(buf) != 0 {
		t.Error("zero master volume must silence the output")
	}
}

func TestMasterVolumeDecibels(t *testing.T) {
	unity := newTestPlayer(t, WithReverb(false), WithChorus(false))
	quiet := newTestPlayer(t, WithReverb(false), WithChorus(false))
	quiet.SetMasterVolumeDb(-20)

	unity.NoteOn(0, 60, 100)
	quiet.NoteOn(0, 60, 100)
	a := make([]float32, 4096)
	b := make([]float32, 4096)
	unity.Process(a)
	quiet.Process(b)

	// -20 dB is a factor of 10 on every sample.
	for i := range a {
		if math.Abs(float64(b[i]-a[i]/10)) > 1e-5 {
			t.Fatalf("sample %d: %v not a tenth of %v", i, b[i], a[i])
		}
	}
}

func TestProcessHandlesArbitraryBufferLengths(t *testing.T) {
	pl := newTestPlayer(t, WithReverb(false), WithChorus(false))
	pl.NoteOn(0, 60, 100)

	// Render the same audio through odd-sized pulls and one big pull; the
	// streams must be identical.
	a := make([]float32, 0, 4096)
	chunk := make([]float32, 0)
	for _, n := range []int{2, 250, 498, 1000, 2346} {
		chunk = append(chunk[:0], make([]float32, n)...)
		pl.Process(chunk)
		a = append(a, chunk...)
	}

	pl2 := newTestPlayer(t, WithReverb(false), WithChorus(false))
	pl2.NoteOn(0, 60, 100)
	b := make([]float32, 4096)
	pl2.Process(b)

	for i := range b {
		if math.Abs(float64(a[i]-b[i])) > 1e-6 {
			t.Fatalf("streams diverge at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestProgramChangeSwitchesPreset(t *testing.T) {
	pl := newTestPlayer(t, WithReverb(false), WithChorus(false))
	buf := make([]float32, 4096)

	pl.ProgramChange(0, 0, 1)
	pl.NoteOn(0, 60, 100)
	pl.Process(buf)
	if absSum(buf) == 0 {
		t.Fatal("preset 1 produced no output")
	}
}

func TestWatchReportsVoiceCounts(t *testing.T) {
	pl := newTestPlayer(t, WithReverb(false), WithChorus(false))
	updates := pl.Watch()
	pl.NoteOn(0, 60, 100)
	buf := make([]float32, 1024)

	deadline := time.After(2 * time.Second)
	for {
		pl.Process(buf)
		select {
		case u := <-updates:
			total := 0
			for _, c := range u.VoiceCounts {
				total += c
			}
			if total != 1 {
				t.Errorf("voice count = %d, want 1", total)
			}
			return
		case <-deadline:
			t.Fatal("no voice-count update arrived")
		default:
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReverbBusAddsWetSignal(t *testing.T) {
	dry := newTestPlayer(t, WithReverb(false), WithChorus(false))
	wet := newTestPlayer(t, WithChorus(false)) // reverb on

	// The default reverb send is wide open, so once the comb delays fill
	// the wet render must diverge from the dry one.
	dry.NoteOn(0, 60, 100)
	wet.NoteOn(0, 60, 100)
	bufDry := make([]float32, 8192)
	bufWet := make([]float32, 8192)
	dry.Process(bufDry)
	wet.Process(bufWet)
	differ := 0
	for i := range bufDry {
		if math.Abs(float64(bufDry[i]-bufWet[i])) > 1e-6 {
			differ++
		}
	}
	if differ == 0 {
		t.Error("reverb bus left the output untouched")
	}
}
