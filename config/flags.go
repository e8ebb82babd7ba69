package config

import (
	"flag"
	"time"
)

// Flags binds the command line switches shared by the tools. Values given
// on the command line override the config file; the rest keep the file's.
type Flags struct {
	fs *flag.FlagSet

	path      string
	encounter string
	dir       string
	replay    string
	feed      string
	raidSize  int
	tick      time.Duration
	speed     float64
	watch     bool
	debug     bool
}

func NewFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.path, "config", "", "path to a YAML config file")
	fs.StringVar(&f.encounter, "encounter", DefaultEncounter, "encounter name")
	fs.StringVar(&f.dir, "dir", "", "directory with encounter YAML overriding the embedded ones")
	fs.StringVar(&f.replay, "replay", "", "replay sample name or log path (defaults to the encounter's sample)")
	fs.StringVar(&f.feed, "feed", DefaultFeedAddr, "hint feed listen address")
	fs.IntVar(&f.raidSize, "raid", DefaultRaidSize, "raid size")
	fs.DurationVar(&f.tick, "tick", DefaultTick, "update interval")
	fs.Float64Var(&f.speed, "speed", 0, "replay speed against wall time, 0 for unpaced")
	fs.BoolVar(&f.watch, "watch", false, "reload encounters when their files change")
	fs.BoolVar(&f.debug, "debug", false, "log every dispatched event")
	return f
}

// Load reads the config file named by -config and applies explicit flags.
func (f *Flags) Load() (*Config, error) {
	c, err := Load(f.path)
	if err != nil {
		return nil, err
	}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "encounter":
			c.Encounter = f.encounter
		case "dir":
			c.EncounterDir = f.dir
		case "replay":
			c.Replay = f.replay
		case "feed":
			c.FeedAddr = f.feed
		case "raid":
			c.RaidSize = f.raidSize
		case "tick":
			c.Tick = f.tick
		case "speed":
			c.Speed = f.speed
		case "watch":
			c.Watch = f.watch
		case "debug":
			c.Debug = f.debug
		}
	})
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
