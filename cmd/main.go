package main

import (
	"flag"
	"log"
	"os"

	"github.com/pkg/profile"

	"github.com/dvoelker/z9001/internal/ui"
	"github.com/dvoelker/z9001/internal/z9001"
)

func main() {
	var (
		modelName  = flag.String("model", "kc87", "machine model: z9001 or kc87")
		osROM      = flag.String("os", "", "KC87 OS ROM image (8 KB)")
		os1ROM     = flag.String("os1", "", "Z9001 OS ROM 1 image (2 KB)")
		os2ROM     = flag.String("os2", "", "Z9001 OS ROM 2 image (2 KB)")
		basicROM   = flag.String("basic", "", "BASIC ROM image (8 KB KC87, 10 KB Z9001 module)")
		fontROM    = flag.String("font", "", "font ROM image (2 KB)")
		loadFile   = flag.String("load", "", "KCC or KC-TAP file to quickload after boot")
		scale      = flag.Int("scale", 2, "window scale factor")
		cpuProfile = flag.Bool("cpuprofile", false, "write a CPU profile")
	)
	flag.Parse()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	var desc z9001.Desc
	switch *modelName {
	case "z9001":
		desc.Model = z9001.ModelZ9001
		desc.ROMs.Z9001.OS1 = readROM(*os1ROM, "os1")
		desc.ROMs.Z9001.OS2 = readROM(*os2ROM, "os2")
		desc.ROMs.Z9001.Font = readROM(*fontROM, "font")
		if *basicROM != "" {
			desc.ROMs.Z9001.Basic = readROM(*basicROM, "basic")
		}
	case "kc87":
		desc.Model = z9001.ModelKC87
		desc.ROMs.KC87.OS = readROM(*osROM, "os")
		desc.ROMs.KC87.Basic = readROM(*basicROM, "basic")
		desc.ROMs.KC87.Font = readROM(*fontROM, "font")
	default:
		log.Fatalf("unknown model %q", *modelName)
	}

	audio, err := ui.NewAudioPlayer(44100)
	if err != nil {
		log.Fatalf("couldn't open audio: %s", err)
	}
	defer audio.Close()
	desc.Audio = z9001.AudioDesc{
		Callback:   audio.PushSamples,
		SampleRate: 44100,
	}

	sys := new(z9001.System)
	sys.Init(desc)
	audio.Start()

	frontend := ui.New(sys, *scale)
	if *loadFile != "" {
		data, err := os.ReadFile(*loadFile)
		if err != nil {
			log.Fatalf("couldn't read %s: %s", *loadFile, err)
		}
		// give the OS two seconds to boot before injecting the program
		frontend.SetQuickload(data, 120)
	}

	if err := ui.Run(frontend, "Z9001 / KC87"); err != nil {
		log.Fatalf("ui error: %s", err)
	}
}

func readROM(path, name string) []byte {
	if path == "" {
		log.Fatalf("missing -%s ROM image", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("couldn't read %s ROM: %s", name, err)
	}
	return data
}
