// Package sample holds the immutable sample records handed over by the bank
// parser, the process-wide store of decoded PCM, and the preset lookup
// contract the voice builder consumes.
package sample

import "github.com/msveshnikov/spessasynth-go/internal/gen"

// Sample describes one mono source recording. Data may be nil when the
// sample is compressed and its decode has not finished yet; the id will be
// dumped into the Store once the frames exist.
type Sample struct {
	ID              int
	SampleRate      float64
	RootPitch       int // MIDI key the recording is pitched at
	PitchCorrection int // cents
	LoopStart       int // frames
	LoopEnd         int // frames
	Compressed      bool
	Data            []float32
}

// Zone is one (sample, generators, modulators) tuple yielded by preset
// lookup. The preset layer is relative, the instrument layer absolute.
type Zone struct {
	Sample         *Sample
	PresetGens     gen.Vec
	InstrumentGens gen.Vec
	Modulators     []gen.Modulator
}

// Preset is the parser-side contract: given a note and velocity it yields
// the zones whose key and velocity ranges match.
type Preset interface {
	Zones(note, velocity int) []Zone
}

// Store is the process-wide cache from sample id to decoded mono PCM. It is
// owned by the processor and only ever touched from the audio thread; dumps
// and clears arrive through the event queue, so no locking is needed.
type Store struct {
	frames map[int][]float32
}

func NewStore() *Store {
	return &Store{frames: make(map[int][]float32)}
}

// Dump publishes decoded frames for a sample id.
func (s *Store) Dump(id int, frames []float32) {
	s.frames[id] = frames
}

// Get returns the decoded frames for id, if they have been dumped.
func (s *Store) Get(id int) ([]float32, bool) {
	f, ok := s.frames[id]
	return f, ok
}

// Has reports whether id has been dumped.
func (s *Store) Has(id int) bool {
	_, ok := s.frames[id]
	return ok
}

// Clear drops every entry. The caller must ensure no voices are live.
func (s *Store) Clear() {
	for id := range s.frames {
		delete(s.frames, id)
	}
}

// Len returns the number of dumped samples.
func (s *Store) Len() int {
	return len(s.frames)
}
