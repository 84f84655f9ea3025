package types

import "encoding/json"

// Request is the envelope sent on PathRequest.
type Request struct {
	// RequestID correlates the request with a later response.
	// Generated by the sender per logical action, not per retry.
	RequestID string `json:"requestId"`
	// Action selects the handler on the receiving side.
	Action ActionKind `json:"action"`
	// Payload is the action-specific JSON object.
	Payload json.RawMessage `json:"payload"`
}

// Response is the envelope sent on PathResponse.
type Response struct {
	// RequestID echoes the request's id. Empty when the request was unreadable.
	RequestID string `json:"requestId"`
	// Action echoes the request's action.
	Action ActionKind `json:"action"`
	// OK reports whether the handler succeeded.
	OK bool `json:"ok"`
	// Message is a short human-readable outcome.
	Message string `json:"message"`
	// Timestamp is stamped by the responder in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Data is an optional action-specific JSON object.
	Data json.RawMessage `json:"data,omitempty"`
}

// Diagnostics is the data object of a status response.
type Diagnostics struct {
	Model             string `json:"model"`
	SDKInt            int    `json:"sdkInt"`
	AppVersion        string `json:"appVersion"`
	LoggedIn          bool   `json:"loggedIn"`
	HasCookie         bool   `json:"hasCookie"`
	HasSpotifySpdc    bool   `json:"hasSpotifySpdc"`
	AccountCount      int    `json:"accountCount"`
	QueueSize         int    `json:"queueSize"`
	NowPlayingVideoID string `json:"nowPlayingVideoId"`
}
