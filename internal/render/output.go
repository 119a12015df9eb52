package render

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/mapgen"
)

// RenderToFile renders cfg and writes the foreground to output. A non-empty
// bgOutput also writes the background layer when the map has one.
func RenderToFile(cfg *Config, output, bgOutput string) error {
	h, err := cfg.Render()
	if err != nil {
		return errors.Wrap(err, "map rendering failed")
	}
	cfg.r.report(h)

	if err := h.Save(output); err != nil {
		return errors.Wrap(err, "writing output image failed")
	}
	if bgOutput == "" {
		return nil
	}
	if !h.HasBackground() {
		cfg.r.log.Warn("map has no background layer", zap.String("output", bgOutput))
		return nil
	}
	if err := h.Export(bgOutput, mapgen.Background); err != nil {
		return errors.Wrap(err, "writing background image failed")
	}
	return nil
}

// report logs engine warnings and script output of a render.
func (r *Renderer) report(h *mapgen.Handle) {
	if w := h.Warnings(); w != "" {
		r.log.Warn("map warnings", zap.String("warnings", w))
	}
	if out := h.ScriptOutput(); out != "" {
		r.log.Info("script output", zap.String("output", out))
	}
}
