// sfjam is an interactive shell for playing the synthesizer live:
//
//	> on 0 60 100
//	> cc 0 64 127
//	> off 0 60
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	spessasynth "github.com/msveshnikov/spessasynth-go"
)

type command struct {
	name  string
	arity int
	help  string
	run   func(pl *spessasynth.Player, args []int) error
}

var commands = []command{
	{"on", 3, "on <ch> <note> <vel>: note on", func(pl *spessasynth.Player, a []int) error {
		pl.NoteOn(a[0], a[1], a[2])
		return nil
	}},
	{"off", 2, "off <ch> <note>: note off", func(pl *spessasynth.Player, a []int) error {
		pl.NoteOff(a[0], a[1])
		return nil
	}},
	{"kill", 2, "kill <ch> <note>: cut a note", func(pl *spessasynth.Player, a []int) error {
		pl.KillNote(a[0], a[1])
		return nil
	}},
	{"cc", 3, "cc <ch> <num> <val>: control change", func(pl *spessasynth.Player, a []int) error {
		pl.ControlChange(a[0], a[1], a[2])
		return nil
	}},
	{"pw", 2, "pw <ch> <val>: pitch wheel (0-16383, center 8192)", func(pl *spessasynth.Player, a []int) error {
		pl.PitchWheel(a[0], a[1])
		return nil
	}},
	{"prog", 3, "prog <ch> <bank> <program>: program change", func(pl *spessasynth.Player, a []int) error {
		pl.ProgramChange(a[0], a[1], a[2])
		return nil
	}},
	{"vib", 4, "vib <ch> <delay-ms> <cents> <rate-hz*10>: channel vibrato", func(pl *spessasynth.Player, a []int) error {
		pl.SetChannelVibrato(a[0], float64(a[1])/1000, float64(a[2]), float64(a[3])/10)
		return nil
	}},
	{"trans", 2, "trans <ch> <semitones>: transpose", func(pl *spessasynth.Player, a []int) error {
		pl.Transpose(a[0], a[1])
		return nil
	}},
	{"mute", 2, "mute <ch> <0|1>", func(pl *spessasynth.Player, a []int) error {
		pl.MuteChannel(a[0], a[1] != 0)
		return nil
	}},
	{"reset", 1, "reset <ch>: reset controllers", func(pl *spessasynth.Player, a []int) error {
		pl.ResetControllers(a[0])
		return nil
	}},
	{"vol", 1, "vol <db>: master volume in dB (0 = unity)", func(pl *spessasynth.Player, a []int) error {
		pl.SetMasterVolumeDb(float64(a[0]))
		return nil
	}},
	{"panic", 0, "panic: drop all voices", func(pl *spessasynth.Player, a []int) error {
		pl.StopAll(false)
		return nil
	}},
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		bankPath   = flag.String("bank", "bank.yaml", "path to the soundbank manifest")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto|portaudio")
	)
	flag.Parse()

	pl, err := spessasynth.NewPlayer(*sampleRate, spessasynth.WithBackend(*backend))
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

	rl, err := readline.New("sfjam> ")
	if err != nil {
		log.Fatal(err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return
		}
		if err != nil {
			log.Fatal(err)
		}
		if err := eval(pl, strings.TrimSpace(line)); err != nil {
			fmt.Println(err)
		}
	}
}

func eval(pl *spessasynth.Player, line string) error {
	if line == "" {
		return nil
	}
	fields := strings.Fields(line)
	name := fields[0]
	if name == "help" {
		for _, cmd := range commands {
			fmt.Println("  " + cmd.help)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if len(fields)-1 != cmd.arity {
			return fmt.Errorf("%s: wrong number of arguments: want %d, got %d", cmd.name, cmd.arity, len(fields)-1)
		}
		args := make([]int, cmd.arity)
		for i, f := range fields[1:] {
			v, err := strconv.Atoi(f)
			if err != nil {
				return fmt.Errorf("%s: bad argument %q", cmd.name, f)
			}
			args[i] = v
		}
		return cmd.run(pl, args)
	}
	return fmt.Errorf("unknown command %q (try help)", name)
}
