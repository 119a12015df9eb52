package config

import (
	"flag"
	"strconv"
)

// seedValue is a flag that records whether it was set.
type seedValue struct {
	value uint32
	set   bool
}

func (s *seedValue) String() string {
	if s == nil || !s.set {
		return ""
	}
	return strconv.FormatUint(uint64(s.value), 10)
}

func (s *seedValue) Set(v string) error {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return err
	}
	s.value, s.set = uint32(n), true
	return nil
}

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagRoot    = flag.String("root", "", "Base directory inside the planet root (defaults to directory of input file)")
	flagWidth   = flag.Int("width", 0, "Width of the output image")
	flagHeight  = flag.Int("height", 0, "Height of the output image")
	flagPlayers = flag.Int("players", 0, "Set the result of GetStartupPlayerCount()")
	flagTeams   = flag.Int("teams", 0, "Set the result of GetStartupTeamCount()")
	flagWatch   = flag.Bool("watch", false, "Watch input file for changes")
	flagBg      = flag.String("bg", "", "Output file for the background layer")
	flagMapType = flag.String("map-type", "", "Map type: map.c or landscape.txt (defaults to detection by extension)")
	flagCBOR    = flag.Bool("cbor", false, "Serve CBOR render requests on stdin/stdout")
	flagSeed    seedValue
)

// HiddenFlags are not listed in usage output.
var HiddenFlags = map[string]bool{"cbor": true}

func init() {
	flag.Var(&flagSeed, "seed", "Random seed")
	flag.StringVar(flagRoot, "r", "", "Shorthand for -root")
	flag.IntVar(flagWidth, "w", 0, "Shorthand for -width")
	flag.IntVar(flagHeight, "h", 0, "Shorthand for -height")
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// ServiceMode reports whether the hidden --cbor flag was given.
func ServiceMode() bool {
	return *flagCBOR
}

// Args returns the positional arguments.
func Args() []string {
	return flag.Args()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRoot != "" {
		cfg.Data.Root = *flagRoot
	}
	if *flagWidth > 0 {
		cfg.Render.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Render.Height = *flagHeight
	}
	if *flagPlayers > 0 {
		cfg.Render.Players = *flagPlayers
	}
	if *flagTeams > 0 {
		cfg.Render.Teams = *flagTeams
	}
	if flagSeed.set {
		seed := flagSeed.value
		cfg.Render.Seed = &seed
	}
	if *flagWatch {
		cfg.Watch.Enabled = true
	}
	if *flagBg != "" {
		cfg.Render.Background = *flagBg
	}
	if *flagMapType != "" {
		cfg.Render.MapType = *flagMapType
	}
}
