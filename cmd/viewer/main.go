package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/bossmod/config"
	"github.com/milk9111/bossmod/session"
)

func main() {
	flags := config.NewFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		log.Fatal(err)
	}
	s, err := session.New(cfg, log.New(os.Stderr, "", log.Ltime))
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle("bossmod - " + s.Encounter())

	if err := ebiten.RunGame(NewViewer(s)); err != nil {
		log.Fatal(err)
	}
}
