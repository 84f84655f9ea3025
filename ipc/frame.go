package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (1 MiB), including length prefix.
	MaxFrameSize = 1024 * 1024
	// MaxFramePayloadSize is the maximum msgpack payload per frame.
	MaxFramePayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// FrameKind discriminates frames on a stream link.
type FrameKind string

const (
	// FrameHello is the first frame each side sends; it names the node.
	FrameHello FrameKind = "hello"
	// FrameMessage carries one transport message.
	FrameMessage FrameKind = "message"
)

// Frame is the msgpack body of a length-prefixed frame.
type Frame struct {
	// Kind is the frame discriminator.
	Kind FrameKind `msgpack:"kind"`
	// NodeID identifies the sending node (hello frames).
	NodeID string `msgpack:"node_id,omitempty"`
	// DisplayName is the human-readable node name (hello frames).
	DisplayName string `msgpack:"display_name,omitempty"`
	// Path is the message path (message frames).
	Path string `msgpack:"path,omitempty"`
	// Data is the opaque message body (message frames).
	Data []byte `msgpack:"data,omitempty"`
}

// NewHelloFrame builds a hello frame.
func NewHelloFrame(nodeID, displayName string) *Frame {
	return &Frame{Kind: FrameHello, NodeID: nodeID, DisplayName: displayName}
}

// NewMessageFrame builds a message frame.
func NewMessageFrame(path string, data []byte) *Frame {
	return &Frame{Kind: FrameMessage, Path: path, Data: data}
}

// FrameDecoder decodes length-prefixed msgpack frames from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: r}
}

// ReadFrame reads a single frame payload from the stream.
//
// Errors:
//   - io.EOF: stream ended cleanly
//   - *CodecError with Kind=ErrorPartial: incomplete frame (fatal)
//   - *CodecError with Kind=ErrorTooLarge: frame exceeds limit (fatal)
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &CodecError{
			Kind: ErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxFramePayloadSize {
		return nil, &CodecError{
			Kind: ErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxFramePayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	_, err = io.ReadFull(d.reader, payload)
	if err != nil {
		return nil, &CodecError{
			Kind: ErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return payload, nil
}

// Next reads and decodes the next frame.
// Decode errors are non-fatal; the caller may skip the frame and continue.
func (d *FrameDecoder) Next() (*Frame, error) {
	payload, err := d.ReadFrame()
	if err != nil {
		return nil, err
	}
	return DecodeFrame(payload)
}

// DecodeFrame decodes a msgpack frame payload.
func DecodeFrame(payload []byte) (*Frame, error) {
	var frame Frame
	if err := msgpack.Unmarshal(payload, &frame); err != nil {
		return nil, &CodecError{
			Kind: ErrorDecode,
			Msg:  "failed to decode frame",
			Err:  err,
		}
	}
	switch frame.Kind {
	case FrameHello, FrameMessage:
		return &frame, nil
	default:
		return nil, &CodecError{
			Kind: ErrorValidate,
			Msg:  fmt.Sprintf("unknown frame kind %q", frame.Kind),
		}
	}
}

// EncodeFrame encodes a frame with its length prefix.
func EncodeFrame(frame *Frame) ([]byte, error) {
	payload, err := msgpack.Marshal(frame)
	if err != nil {
		return nil, &CodecError{Kind: ErrorEncode, Msg: "failed to encode frame", Err: err}
	}
	if len(payload) > MaxFramePayloadSize {
		return nil, &CodecError{
			Kind: ErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxFramePayloadSize),
		}
	}
	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	return buf, nil
}

// FrameWriter writes length-prefixed frames to a stream.
// Safe for concurrent use; each frame is written with a single Write call.
type FrameWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{writer: w}
}

// WriteFrame encodes and writes one frame.
func (w *FrameWriter) WriteFrame(frame *Frame) error {
	buf, err := EncodeFrame(frame)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.writer.Write(buf)
	return err
}
