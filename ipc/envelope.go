// Package ipc implements the companion bridge envelope codec and the
// length-prefixed frame format used by stream transports.
//
// Envelopes are UTF-8 JSON. Decoders never return errors to their callers:
// an unreadable envelope is reported as absent so that receivers drop it.
package ipc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pithecene-io/wearlink/types"
)

// MaxEnvelopeSize is the largest encoded envelope accepted by the encoders.
// The watch messaging layer rejects messages much above 100 KB.
const MaxEnvelopeSize = 100 * 1024

var emptyObject = json.RawMessage(`{}`)

// requestWire mirrors types.Request with a loosely typed action so that a
// non-string action is a decode error rather than a silent zero value.
type requestWire struct {
	RequestID string          `json:"requestId"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
}

// EncodeRequest encodes a request envelope.
// payload may be any JSON-marshalable value that encodes to an object; nil
// encodes as an empty object.
func EncodeRequest(requestID string, action types.ActionKind, payload any) ([]byte, error) {
	if action == "" {
		return nil, &CodecError{Kind: ErrorValidate, Msg: "request action is required"}
	}
	raw, err := marshalObject(payload, "request payload")
	if err != nil {
		return nil, err
	}
	return marshalEnvelope(types.Request{
		RequestID: requestID,
		Action:    action,
		Payload:   raw,
	})
}

// DecodeRequest decodes a request envelope.
// Returns false for malformed bytes, a blank action, or a missing payload object.
func DecodeRequest(data []byte) (*types.Request, bool) {
	req, err := decodeRequest(data)
	if err != nil {
		return nil, false
	}
	return req, true
}

func decodeRequest(data []byte) (*types.Request, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &CodecError{Kind: ErrorDecode, Msg: "empty request"}
	}
	if trimmed[0] != '{' {
		return nil, &CodecError{Kind: ErrorDecode, Msg: "request is not a JSON object"}
	}

	var wire requestWire
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, &CodecError{Kind: ErrorDecode, Msg: "failed to decode request", Err: err}
	}
	if wire.Action == "" {
		return nil, &CodecError{Kind: ErrorValidate, Msg: "request action is missing"}
	}
	if !isObject(wire.Payload) {
		return nil, &CodecError{Kind: ErrorValidate, Msg: "request payload is missing or not an object"}
	}

	return &types.Request{
		RequestID: wire.RequestID,
		Action:    types.ActionKind(wire.Action),
		Payload:   wire.Payload,
	}, nil
}

// EncodeResponse encodes a response envelope stamped with now.
// data is optional; when non-nil it must encode to a JSON object.
func EncodeResponse(requestID string, action types.ActionKind, ok bool, message string, data any, now time.Time) ([]byte, error) {
	resp := types.Response{
		RequestID: requestID,
		Action:    action,
		OK:        ok,
		Message:   message,
		Timestamp: now.UnixMilli(),
	}
	if data != nil {
		raw, err := marshalObject(data, "response data")
		if err != nil {
			return nil, err
		}
		resp.Data = raw
	}
	return marshalEnvelope(resp)
}

// DecodeResponse decodes a response envelope.
// Returns false when the bytes are not a JSON object of the response shape.
func DecodeResponse(data []byte) (*types.Response, bool) {
	resp, err := decodeResponse(data)
	if err != nil {
		return nil, false
	}
	return resp, true
}

func decodeResponse(data []byte) (*types.Response, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &CodecError{Kind: ErrorDecode, Msg: "response is not a JSON object"}
	}
	var resp types.Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, &CodecError{Kind: ErrorDecode, Msg: "failed to decode response", Err: err}
	}
	if len(resp.Data) > 0 && !isObject(resp.Data) {
		resp.Data = nil
	}
	return &resp, nil
}

func marshalObject(v any, what string) (json.RawMessage, error) {
	if v == nil {
		return emptyObject, nil
	}
	var raw []byte
	switch typed := v.(type) {
	case json.RawMessage:
		raw = typed
	case []byte:
		raw = typed
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, &CodecError{Kind: ErrorEncode, Msg: fmt.Sprintf("failed to encode %s", what), Err: err}
		}
		raw = encoded
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return emptyObject, nil
	}
	if !isObject(raw) {
		return nil, &CodecError{Kind: ErrorValidate, Msg: fmt.Sprintf("%s must be a JSON object", what)}
	}
	return json.RawMessage(raw), nil
}

func marshalEnvelope(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, &CodecError{Kind: ErrorEncode, Msg: "failed to encode envelope", Err: err}
	}
	if len(body) > MaxEnvelopeSize {
		return nil, &CodecError{
			Kind: ErrorTooLarge,
			Msg:  fmt.Sprintf("envelope size %d exceeds maximum %d", len(body), MaxEnvelopeSize),
		}
	}
	return body, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
