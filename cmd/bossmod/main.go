package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/config"
	"github.com/milk9111/bossmod/encounters"
	"github.com/milk9111/bossmod/hintfeed"
	"github.com/milk9111/bossmod/session"
)

func main() {
	flags := config.NewFlags(flag.CommandLine)
	list := flag.Bool("list", false, "list encounters and component kinds, then exit")
	describe := flag.Bool("describe", false, "print the encounter timeline and components, then exit")
	serve := flag.Bool("serve", false, "serve the hint feed over websocket while replaying")
	flag.Parse()

	cfg, err := flags.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)

	if *list {
		if err := printLibrary(os.Stdout, encounters.Library{Dir: cfg.EncounterDir}); err != nil {
			log.Fatal(err)
		}
		return
	}

	s, err := session.New(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	if *describe {
		printModule(os.Stdout, s.Module)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var hub *hintfeed.Hub
	if *serve {
		hub = hintfeed.NewHub(hintfeed.Config{Logger: logger})
		srv := startFeed(cfg.FeedAddr, hub, logger)
		defer func() {
			hub.Close()
			shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdown)
		}()
	}

	run(ctx, s, hub, os.Stdout)

	if hub != nil && ctx.Err() == nil {
		logger.Printf("replay finished, still serving on %s (interrupt to quit)", cfg.FeedAddr)
		<-ctx.Done()
	}
}

func startFeed(addr string, hub *hintfeed.Hub, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/hints", hub)
	srv := &http.Server{Addr: addr, Handler: mux, ErrorLog: logger}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("hint feed: %v", err)
		}
	}()
	logger.Printf("hint feed on ws://%s/hints", addr)
	return srv
}

// run replays the session, printing each slot's hints whenever they change.
func run(ctx context.Context, s *session.Session, hub *hintfeed.Hub, out io.Writer) {
	var pace <-chan time.Time
	if s.Config.Speed > 0 {
		ticker := time.NewTicker(time.Duration(float64(s.Config.Tick) / s.Config.Speed))
		defer ticker.Stop()
		pace = ticker.C
	}

	last := map[int]string{}
	lastPhase := ""
	for !s.Done() {
		if pace != nil {
			select {
			case <-ctx.Done():
				return
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return
		}

		s.Step()
		m := s.Module
		if phase := phaseName(m); phase != lastPhase {
			fmt.Fprintf(out, "[%6.2fs] phase %s\n", s.Elapsed().Seconds(), phase)
			lastPhase = phase
		}
		for slot, a := range m.Raid().Members() {
			line := formatHints(m.CalculateHints(slot, a, nil))
			if line == last[slot] {
				continue
			}
			last[slot] = line
			if line == "" {
				line = "clear"
			}
			fmt.Fprintf(out, "[%6.2fs] %d %-10s %s\n", s.Elapsed().Seconds(), slot, a.Name, line)
		}
		if hub != nil {
			if err := hub.Broadcast(hintfeed.Capture(m)); err != nil {
				log.Printf("hint feed: %v", err)
			}
		}
	}
}

func phaseName(m *bossmod.Module) string {
	if active := m.StateMachine.Active(); active != nil {
		return active.Name
	}
	return "-"
}

// formatHints renders hints on one line, risk hints marked with "!".
func formatHints(hints bossmod.TextHints) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		if h.Risk {
			parts = append(parts, "! "+h.Text)
			continue
		}
		parts = append(parts, h.Text)
	}
	return strings.Join(parts, " | ")
}

func printLibrary(out io.Writer, lib encounters.Library) error {
	names, err := lib.Names()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "encounters:")
	for _, name := range names {
		spec, err := lib.LoadSpec(name)
		if err != nil {
			fmt.Fprintf(out, "  %-16s (%v)\n", name, err)
			continue
		}
		fmt.Fprintf(out, "  %-16s %s\n", name, spec.Description)
	}
	fmt.Fprintf(out, "component kinds: %s\n", strings.Join(encounters.Kinds(), ", "))
	return nil
}

func printModule(out io.Writer, m *bossmod.Module) {
	fmt.Fprintf(out, "%s\n\ntimeline:\n%s\ncomponents:\n", m.Name, m.StateMachine.Describe())
	for _, r := range m.Registry().Entries() {
		fmt.Fprintf(out, "  %3d %-18s %s\n", r.Order, r.Name, r.Description)
	}
}
