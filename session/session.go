// Package session drives one encounter module from a replay log. It is the
// loop shared by the headless tool, the viewer and the terminal monitor.
package session

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/milk9111/bossmod/bossmod"
	"github.com/milk9111/bossmod/config"
	"github.com/milk9111/bossmod/encounters"
	"github.com/milk9111/bossmod/replay"
	"github.com/milk9111/bossmod/world"
)

var ErrNoReplay = errors.New("session: no replay")

// Session owns a world fed by a replay log and the module watching it.
type Session struct {
	Config  *config.Config
	Library encounters.Library
	Log     *replay.Log
	World   *world.State
	Module  *bossmod.Module
	Player  *replay.Player

	encounter string
	logger    *log.Logger
	watcher   *encounters.Watcher
	now       time.Time
	reload    bool
	reloads   int
}

// New loads the replay named by cfg and builds its encounter. The encounter
// named by the replay log wins over cfg.Encounter.
func New(cfg *config.Config, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.Default()
	}
	name := cfg.Replay
	if name == "" {
		name = cfg.Encounter
	}
	l, err := LoadReplay(name)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Config:    cfg,
		Library:   encounters.Library{Dir: cfg.EncounterDir},
		Log:       l,
		encounter: cfg.Encounter,
		logger:    logger,
	}
	if l.Encounter != "" {
		s.encounter = l.Encounter
	}
	if err := s.Restart(); err != nil {
		return nil, err
	}
	if cfg.Watch {
		if err := s.watch(); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// LoadReplay reads a replay log from a path, falling back to the embedded
// sample of that name.
func LoadReplay(name string) (*replay.Log, error) {
	if _, err := os.Stat(name); err == nil {
		return replay.Load(name)
	}
	l, err := replay.LoadSample(name)
	if err != nil {
		return nil, fmt.Errorf("%w for %q: %w", ErrNoReplay, name, err)
	}
	return l, nil
}

func (s *Session) options() encounters.Options {
	return encounters.Options{Logger: s.logger, Debug: s.Config.Debug, RaidSize: s.Config.RaidSize}
}

// Restart rewinds the replay and rebuilds the module on a fresh world.
func (s *Session) Restart() error {
	w := s.Log.NewWorld()
	m, err := encounters.Open(w, s.Library, s.encounter, s.options())
	if err != nil {
		return err
	}
	if s.Module != nil {
		s.Module.Close()
	}
	s.World, s.Module = w, m
	s.Player = replay.NewPlayer(w, s.Log)
	s.now = s.Log.Start
	s.reload = false
	return nil
}

// Reload rebuilds the module from the encounter files over the current
// world. On failure the previous module keeps running.
func (s *Session) Reload() error {
	m, err := encounters.Open(s.World, s.Library, s.encounter, s.options())
	if err != nil {
		return err
	}
	s.Module.Close()
	s.Module = m
	s.reload = false
	s.reloads++
	s.logger.Printf("session: reloaded %s", s.encounter)
	return nil
}

// RequestReload rebuilds the module now, or once combat ends when a pull is
// in progress.
func (s *Session) RequestReload() error {
	if s.World.InCombat() {
		if !s.reload {
			s.logger.Printf("session: %s changed, reloading after combat", s.encounter)
		}
		s.reload = true
		return nil
	}
	return s.Reload()
}

func (s *Session) ReloadPending() bool { return s.reload }

// Reloads counts successful reloads.
func (s *Session) Reloads() int { return s.reloads }

func (s *Session) Encounter() string { return s.encounter }

func (s *Session) Now() time.Time { return s.now }

func (s *Session) Elapsed() time.Duration { return s.now.Sub(s.Log.Start) }

func (s *Session) Done() bool { return s.Player.Done() }

// Step advances the replay by one tick and updates the module. Replay event
// errors are logged and playback continues.
func (s *Session) Step() {
	s.now = s.now.Add(s.Config.Tick)
	for {
		_, err := s.Player.AdvanceTo(s.now)
		if err == nil {
			break
		}
		s.logger.Printf("session: %v", err)
	}
	s.pollWatcher()
	if s.reload && !s.World.InCombat() {
		if err := s.Reload(); err != nil {
			s.logger.Printf("session: reload %s: %v", s.encounter, err)
			s.reload = false
		}
	}
	s.Module.Update()
}

func (s *Session) watch() error {
	dir := s.Config.EncounterDir
	if dir == "" {
		dir = encounters.DefaultDir
	}
	dirs := []string{dir}
	if st, err := os.Stat(filepath.Join(dir, "scripts")); err == nil && st.IsDir() {
		dirs = append(dirs, filepath.Join(dir, "scripts"))
	}
	w, err := encounters.NewWatcher(dirs...)
	if err != nil {
		return fmt.Errorf("session: watch %s: %w", dir, err)
	}
	if s.Library.Dir == "" {
		s.Library.Dir = dir
	}
	s.watcher = w
	return nil
}

func (s *Session) pollWatcher() {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case c, ok := <-s.watcher.Events:
			if !ok {
				s.watcher = nil
				return
			}
			if !c.Script && c.Name != s.encounter {
				continue
			}
			if err := s.RequestReload(); err != nil {
				s.logger.Printf("session: reload %s after %s changed: %v", s.encounter, c.Path, err)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				s.watcher = nil
				return
			}
			s.logger.Printf("session: watch: %v", err)
		default:
			return
		}
	}
}

func (s *Session) Close() {
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.Module != nil {
		s.Module.Close()
	}
}
