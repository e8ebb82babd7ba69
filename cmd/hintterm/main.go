package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/milk9111/bossmod/config"
	"github.com/milk9111/bossmod/session"
)

const alertSampleRate = beep.SampleRate(44100)

func main() {
	flags := config.NewFlags(flag.CommandLine)
	logPath := flag.String("log", "hintterm.log", "file receiving log output while the screen is in use")
	mute := flag.Bool("mute", false, "use the terminal bell instead of the speaker")
	flag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		log.Fatal(err)
	}

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.Ltime|log.Lmicroseconds)

	s, err := session.New(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}
	defer screen.Fini()

	alert := func() { screen.Beep() }
	if !*mute {
		if err := speaker.Init(alertSampleRate, alertSampleRate.N(time.Second/10)); err != nil {
			// Non-fatal, the terminal bell still works.
			logger.Printf("hintterm: audio init failed: %v", err)
		} else {
			alert = playAlert
		}
	}

	run(screen, newMonitor(screen, s, alert), cfg)
}

func playAlert() {
	tone, err := generators.SineTone(alertSampleRate, 880)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(alertSampleRate.N(80*time.Millisecond), tone))
}

func run(screen tcell.Screen, mon *monitor, cfg *config.Config) {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go screen.ChannelEvents(events, quit)
	defer close(quit)

	speed := cfg.Speed
	if speed <= 0 {
		speed = 1
	}
	ticker := time.NewTicker(time.Duration(float64(cfg.Tick) / speed))
	defer ticker.Stop()

	mon.draw()
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if mon.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			mon.step()
		}
		mon.draw()
	}
}
