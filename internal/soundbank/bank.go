// Package soundbank loads an instrument bank from a YAML manifest plus WAV
// sample files and exposes it through the preset lookup contract the voice
// builder consumes. It stands in for a SoundFont parser: the synthesis core
// only ever sees Sample records, generator vectors and modulators.
package soundbank

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/msveshnikov/spessasynth-go/internal/gen"
	"github.com/msveshnikov/spessasynth-go/internal/sample"
)

type manifest struct {
	Name    string           `yaml:"name"`
	Presets []presetManifest `yaml:"presets"`
}

type presetManifest struct {
	Bank    int            `yaml:"bank"`
	Program int            `yaml:"program"`
	Name    string         `yaml:"name"`
	Zones   []zoneManifest `yaml:"zones"`
}

type zoneManifest struct {
	Sample          string             `yaml:"sample"`
	RootKey         int                `yaml:"rootKey"`
	KeyRange        []int              `yaml:"keyRange"`
	VelRange        []int              `yaml:"velRange"`
	LoopStart       int                `yaml:"loopStart"`
	LoopEnd         int                `yaml:"loopEnd"`
	LoopMode        string             `yaml:"loopMode"`
	PitchCorrection int                `yaml:"pitchCorrection"`
	Compressed      bool               `yaml:"compressed"`
	Generators      map[string]int     `yaml:"generators"`
	Modulators      []modulatorManifest `yaml:"modulators"`
}

type modulatorManifest struct {
	CC          int    `yaml:"cc"`
	Destination string `yaml:"destination"`
	Amount      int    `yaml:"amount"`
	Curve       string `yaml:"curve"`
	Bipolar     bool   `yaml:"bipolar"`
	Negative    bool   `yaml:"negative"`
}

// Bank is a loaded soundbank: presets addressable by bank/program and the
// decoded frames for every sample, including the ones withheld from their
// Sample records to exercise the asynchronous dump path.
type Bank struct {
	Name    string
	Samples []*sample.Sample

	presets map[presetKey]*Preset
	frames  map[int][]float32
}

type presetKey struct {
	bank, program int
}

// Preset is one bank entry implementing sample.Preset.
type Preset struct {
	Bank    int
	Program int
	Name    string
	zones   []presetZone
}

type presetZone struct {
	sample                 *sample.Sample
	keyLo, keyHi           int
	velLo, velHi           int
	instr                  gen.Vec
	mods                   []gen.Modulator
}

// Zones returns the zones matching note and velocity.
func (p *Preset) Zones(note, velocity int) []sample.Zone {
	var out []sample.Zone
	for i := range p.zones {
		z := &p.zones[i]
		if note < z.keyLo || note > z.keyHi || velocity < z.velLo || velocity > z.velHi {
			continue
		}
		out = append(out, sample.Zone{
			Sample:         z.sample,
			InstrumentGens: z.instr,
			Modulators:     z.mods,
		})
	}
	return out
}

// Load reads a YAML manifest and decodes every referenced WAV relative to
// the manifest's directory.
func Load(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing bank manifest: %w", err)
	}
	return build(&m, filepath.Dir(path))
}

func build(m *manifest, dir string) (*Bank, error) {
	b := &Bank{
		Name:    m.Name,
		presets: make(map[presetKey]*Preset),
		frames:  make(map[int][]float32),
	}
	nextID := 1
	for _, pm := range m.Presets {
		preset := &Preset{Bank: pm.Bank, Program: pm.Program, Name: pm.Name}
		for _, zm := range pm.Zones {
			frames, rate, err := loadWAV(filepath.Join(dir, zm.Sample))
			if err != nil {
				return nil, fmt.Errorf("zone sample %s: %w", zm.Sample, err)
			}
			loopEnd := zm.LoopEnd
			if loopEnd == 0 {
				loopEnd = len(frames) - 1
			}
			s := &sample.Sample{
				ID:              nextID,
				SampleRate:      rate,
				RootPitch:       rootKeyOrDefault(zm.RootKey),
				PitchCorrection: zm.PitchCorrection,
				LoopStart:       zm.LoopStart,
				LoopEnd:         loopEnd,
				Compressed:      zm.Compressed,
			}
			if !zm.Compressed {
				s.Data = frames
			}
			b.frames[nextID] = frames
			nextID++
			b.Samples = append(b.Samples, s)

			zone, err := buildZone(s, &zm)
			if err != nil {
				return nil, fmt.Errorf("preset %s: %w", pm.Name, err)
			}
			preset.zones = append(preset.zones, zone)
		}
		b.presets[presetKey{pm.Bank, pm.Program}] = preset
	}
	return b, nil
}

func rootKeyOrDefault(k int) int {
	if k <= 0 {
		return 60
	}
	return k
}

func buildZone(s *sample.Sample, zm *zoneManifest) (presetZone, error) {
	z := presetZone{
		sample: s,
		keyLo:  0, keyHi: 127,
		velLo: 0, velHi: 127,
		instr: gen.NewInstrumentVec(),
	}
	if len(zm.KeyRange) == 2 {
		z.keyLo, z.keyHi = zm.KeyRange[0], zm.KeyRange[1]
	}
	if len(zm.VelRange) == 2 {
		z.velLo, z.velHi = zm.VelRange[0], zm.VelRange[1]
	}
	switch zm.LoopMode {
	case "", "none":
	case "continuous":
		z.instr[gen.SampleModes] = 1
	case "until-release":
		z.instr[gen.SampleModes] = 3
	default:
		return z, fmt.Errorf("unknown loopMode %q", zm.LoopMode)
	}
	for name, value := range zm.Generators {
		id, ok := generatorNames[name]
		if !ok {
			return z, fmt.Errorf("unknown generator %q", name)
		}
		z.instr[id] = gen.Clamp(id, value)
	}
	z.mods = gen.DefaultModulators()
	for _, mm := range zm.Modulators {
		mod, err := buildModulator(&mm)
		if err != nil {
			return z, err
		}
		z.mods = append(z.mods, mod)
	}
	return z, nil
}

func buildModulator(mm *modulatorManifest) (gen.Modulator, error) {
	dest, ok := generatorNames[mm.Destination]
	if !ok {
		return gen.Modulator{}, fmt.Errorf("unknown modulator destination %q", mm.Destination)
	}
	curve := gen.CurveLinear
	switch mm.Curve {
	case "", "linear":
	case "concave":
		curve = gen.CurveConcave
	case "convex":
		curve = gen.CurveConvex
	case "switch":
		curve = gen.CurveSwitch
	default:
		return gen.Modulator{}, fmt.Errorf("unknown modulator curve %q", mm.Curve)
	}
	return gen.Modulator{
		Source: gen.Source{
			Index:    mm.CC,
			CC:       true,
			Curve:    curve,
			Bipolar:  mm.Bipolar,
			Negative: mm.Negative,
		},
		Destination: dest,
		Amount:      mm.Amount,
	}, nil
}

// Preset returns the preset at bank/program, or nil.
func (b *Bank) Preset(bank, program int) sample.Preset {
	p, ok := b.presets[presetKey{bank, program}]
	if !ok {
		return nil
	}
	return p
}

// FirstPreset returns any preset, preferring bank 0 program 0, for hosts
// that just want a default instrument.
func (b *Bank) FirstPreset() sample.Preset {
	if p, ok := b.presets[presetKey{0, 0}]; ok {
		return p
	}
	for _, p := range b.presets {
		return p
	}
	return nil
}

// Frames returns the decoded frames for a sample id, used to answer dump
// requests for samples whose data was withheld from the record.
func (b *Bank) Frames(id int) ([]float32, bool) {
	f, ok := b.frames[id]
	return f, ok
}
