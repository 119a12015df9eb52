package assets

import (
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/logger"
	"github.com/Faultbox/ocmapgen/pkg/c4group"
	"github.com/Faultbox/ocmapgen/pkg/encoding"
	"github.com/Faultbox/ocmapgen/pkg/formats"
)

const (
	playerControlsFile   = "PlayerControls.txt"
	playerControlsScript = "PlayerControlsCompat.c"
	systemScripts        = "*.c"
)

// ScriptLoader receives system scripts.
type ScriptLoader interface {
	LoadScript(filename, source string) error
}

// LoadSystem loads System.ocg from the planet root into the engine. The
// control identifiers of PlayerControls.txt become CON_ constants so that
// scripts referring to them compile without the control system.
func LoadSystem(loader ScriptLoader, rootDir string) error {
	g, err := c4group.Open(filepath.Join(rootDir, SystemGroup), false)
	if err != nil {
		return err
	}
	defer g.Close()

	data, err := g.LoadEntry(playerControlsFile)
	switch {
	case err == nil:
		ids := formats.PlayerControlIdentifiers(data)
		if err := loader.LoadScript(playerControlsScript, formats.PlayerControlsScript(ids)); err != nil {
			return err
		}
		logger.Debug("generated player control constants", zap.Int("count", len(ids)))
	case errors.Is(err, c4group.ErrEntryNotFound):
		logger.Debug("system group has no player controls", zap.String("group", g.FullName()))
	default:
		return err
	}

	g.Rewind()
	scripts := 0
	for name := range g.Entries(systemScripts) {
		src, err := g.LoadEntry(name)
		if err != nil {
			return err
		}
		if err := loader.LoadScript(g.FullName()+"/"+name, encoding.Windows1252ToUTF8(src)); err != nil {
			return err
		}
		scripts++
	}
	logger.Debug("loaded system scripts", zap.Int("count", scripts))
	return nil
}
