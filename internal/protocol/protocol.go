// Package protocol implements the CBOR messages exchanged in service mode.
//
// Every message is one self-delimiting CBOR item. Variants are encoded as a
// two element array of variant name and payload:
//
//	["RenderMap", {"source": "..."}]
//	["Image", {"fg": h'..', "bg": null, "warnings": null, "script_output": null}]
//	["Error", "message"]
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Variant names.
const (
	VariantRenderMap = "RenderMap"
	VariantImage     = "Image"
	VariantError     = "Error"
)

// ErrUnknownVariant is returned for messages with an unexpected variant name.
var ErrUnknownVariant = errors.New("unknown message variant")

// RenderMap asks for a map rendered from inline source text.
type RenderMap struct {
	Source string `cbor:"source"`
}

// Request is a service request. RenderMap is the only variant.
type Request struct {
	RenderMap *RenderMap
}

// Image is a successful render. Optional fields are encoded as null.
type Image struct {
	FG           []byte  `cbor:"fg"`
	BG           []byte  `cbor:"bg"`
	Warnings     *string `cbor:"warnings"`
	ScriptOutput *string `cbor:"script_output"`
}

// Response is either an Image or an error message.
type Response struct {
	Image *Image
	Error *string
}

// ImageResponse builds a success response. Empty warnings and script output
// are omitted.
func ImageResponse(fg, bg []byte, warnings, scriptOutput string) Response {
	return Response{Image: &Image{
		FG:           fg,
		BG:           bg,
		Warnings:     optional(warnings),
		ScriptOutput: optional(scriptOutput),
	}}
}

// ErrorResponse builds a failure response.
func ErrorResponse(err error) Response {
	msg := err.Error()
	return Response{Error: &msg}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{}.EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 16,
		MaxMapPairs:      16,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

type envelope struct {
	_       struct{} `cbor:",toarray"`
	Variant string
	Payload cbor.RawMessage
}

// Reader decodes messages from a stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

func (r *Reader) readEnvelope() (envelope, error) {
	var env envelope
	if err := r.dec.Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return env, io.EOF
		}
		return env, fmt.Errorf("decoding message: %w", err)
	}
	return env, nil
}

// ReadRequest reads the next request. It returns io.EOF when the stream
// ends cleanly between messages.
func (r *Reader) ReadRequest() (Request, error) {
	env, err := r.readEnvelope()
	if err != nil {
		return Request{}, err
	}
	switch env.Variant {
	case VariantRenderMap:
		var rm RenderMap
		if err := decMode.Unmarshal(env.Payload, &rm); err != nil {
			return Request{}, fmt.Errorf("decoding %s: %w", env.Variant, err)
		}
		return Request{RenderMap: &rm}, nil
	default:
		return Request{}, fmt.Errorf("%w %q", ErrUnknownVariant, env.Variant)
	}
}

// ReadResponse reads the next response.
func (r *Reader) ReadResponse() (Response, error) {
	env, err := r.readEnvelope()
	if err != nil {
		return Response{}, err
	}
	switch env.Variant {
	case VariantImage:
		var img Image
		if err := decMode.Unmarshal(env.Payload, &img); err != nil {
			return Response{}, fmt.Errorf("decoding %s: %w", env.Variant, err)
		}
		return Response{Image: &img}, nil
	case VariantError:
		var msg string
		if err := decMode.Unmarshal(env.Payload, &msg); err != nil {
			return Response{}, fmt.Errorf("decoding %s: %w", env.Variant, err)
		}
		return Response{Error: &msg}, nil
	default:
		return Response{}, fmt.Errorf("%w %q", ErrUnknownVariant, env.Variant)
	}
}

// Writer encodes messages to a stream, flushing after each one.
type Writer struct {
	bw  *bufio.Writer
	enc *cbor.Encoder
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{bw: bw, enc: encMode.NewEncoder(bw)}
}

func (w *Writer) write(variant string, payload any) error {
	if err := w.enc.Encode([]any{variant, payload}); err != nil {
		return fmt.Errorf("encoding %s: %w", variant, err)
	}
	return w.bw.Flush()
}

// WriteRequest writes a request.
func (w *Writer) WriteRequest(req Request) error {
	if req.RenderMap == nil {
		return errors.New("empty request")
	}
	return w.write(VariantRenderMap, req.RenderMap)
}

// WriteResponse writes a response and flushes it.
func (w *Writer) WriteResponse(res Response) error {
	switch {
	case res.Image != nil:
		return w.write(VariantImage, res.Image)
	case res.Error != nil:
		return w.write(VariantError, *res.Error)
	default:
		return errors.New("empty response")
	}
}
