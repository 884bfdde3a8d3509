// sfplay-ui is an on-screen keyboard for the synthesizer: the computer
// keyboard plays notes on channel 0, tracker-style (z-row naturals, s-row
// accidentals), with arrow keys shifting the octave.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	spessasynth "github.com/msveshnikov/spessasynth-go"
)

const (
	screenW = 640
	screenH = 200
)

// keyNotes maps keys to semitone offsets from the current octave's C.
var keyNotes = map[ebiten.Key]int{
	ebiten.KeyZ: 0, ebiten.KeyS: 1, ebiten.KeyX: 2, ebiten.KeyD: 3,
	ebiten.KeyC: 4, ebiten.KeyV: 5, ebiten.KeyG: 6, ebiten.KeyB: 7,
	ebiten.KeyH: 8, ebiten.KeyN: 9, ebiten.KeyJ: 10, ebiten.KeyM: 11,
	ebiten.KeyComma: 12,
}

type game struct {
	pl       *spessasynth.Player
	updates  <-chan spessasynth.Update
	octave   int
	velocity int
	held     map[ebiten.Key]int // key -> sounding note
	counts   []int
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && g.octave < 8 {
		g.octave++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && g.octave > 0 {
		g.octave--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.pl.StopAll(true)
	}
	for key, offset := range keyNotes {
		if inpututil.IsKeyJustPressed(key) {
			note := 12*(g.octave+1) + offset
			g.pl.NoteOn(0, note, g.velocity)
			g.held[key] = note
		}
		if inpututil.IsKeyJustReleased(key) {
			if note, ok := g.held[key]; ok {
				g.pl.NoteOff(0, note)
				delete(g.held, key)
			}
		}
	}
	select {
	case u := <-g.updates:
		g.counts = u.VoiceCounts
	default:
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	const keyW, keyH = 48, 120
	x := float32(8)
	for i := 0; i < 13; i++ {
		col := color.RGBA{230, 230, 230, 255}
		for _, note := range g.held {
			if note == 12*(g.octave+1)+i {
				col = color.RGBA{120, 180, 255, 255}
			}
		}
		if isAccidental(i) {
			col.R /= 3
			col.G /= 3
			col.B /= 3
		}
		vector.DrawFilledRect(screen, x, 40, keyW-2, keyH, col, false)
		x += keyW
	}
	total := 0
	for _, c := range g.counts {
		total += c
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"octave: %d (arrows)  velocity: %d  voices: %d  level: %.2f  space: panic",
		g.octave, g.velocity, total, g.pl.OutputLevel()))
}

func isAccidental(offset int) bool {
	switch offset % 12 {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		bankPath   = flag.String("bank", "bank.yaml", "path to the soundbank manifest")
		velocity   = flag.Int("velocity", 100, "note-on velocity")
	)
	flag.Parse()

	pl, err := spessasynth.NewPlayer(*sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.LoadBank(*bankPath); err != nil {
		log.Fatal(err)
	}
	if err := pl.Play(); err != nil {
		log.Fatal(err)
	}
	defer pl.Stop()

	ebiten.SetWindowSize(screenW*2, screenH*2)
	ebiten.SetWindowTitle("sfplay-ui")
	if err := ebiten.RunGame(&game{
		pl:       pl,
		updates:  pl.Watch(),
		octave:   4,
		velocity: *velocity,
		held:     make(map[ebiten.Key]int),
	}); err != nil {
		log.Fatal(err)
	}
}
