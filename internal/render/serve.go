package render

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/mapgen"
	"github.com/Faultbox/ocmapgen/internal/protocol"
)

// ServeOptions configures Serve.
type ServeOptions struct {
	// Background adds the background layer to image responses.
	Background bool
	// Seed, if set, re-seeds the engine after every request so that
	// identical requests produce identical maps.
	Seed *uint32
}

// Serve answers render requests read from r until r ends. Each request
// renders cfg with the request's source; render failures are sent as error
// responses. Malformed input or a failing writer end the loop with an error.
func Serve(ctx context.Context, r io.Reader, w io.Writer, cfg *Config, opts ServeOptions) error {
	reader := protocol.NewReader(r)
	writer := protocol.NewWriter(w)
	log := cfg.r.log

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		req, err := reader.ReadRequest()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading request")
		}

		start := time.Now()
		res := handleRequest(cfg, req, opts)
		if res.Error != nil {
			log.Warn("render request failed", zap.String("error", *res.Error))
		} else {
			log.Debug("render request done", zap.Duration("took", time.Since(start)))
		}

		if err := writer.WriteResponse(res); err != nil {
			return errors.Wrap(err, "writing response")
		}
		if opts.Seed != nil {
			cfg.r.Seed(*opts.Seed)
		}
	}
}

func handleRequest(cfg *Config, req protocol.Request, opts ServeOptions) protocol.Response {
	h, err := cfg.Clone().Source(req.RenderMap.Source).Render()
	if err != nil {
		return protocol.ErrorResponse(err)
	}

	var fg bytes.Buffer
	if err := h.EncodePNG(&fg, mapgen.Foreground); err != nil {
		return protocol.ErrorResponse(errors.Wrap(err, "encoding map"))
	}

	var bg []byte
	if opts.Background && h.HasBackground() {
		var buf bytes.Buffer
		if err := h.EncodePNG(&buf, mapgen.Background); err != nil {
			return protocol.ErrorResponse(errors.Wrap(err, "encoding background"))
		}
		bg = buf.Bytes()
	}

	return protocol.ImageResponse(fg.Bytes(), bg, h.Warnings(), h.ScriptOutput())
}
