// Package login implements the legacy sign-in hand-off between watch and
// phone.
//
// The watch asks the phone to prompt for sign-in (open) or to push its
// current session (sync). The phone answers with raw cookie bytes and
// "status|message" strings. These paths never reach the companion
// dispatcher.
package login

import (
	"context"
	"strings"

	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/types"
)

// Login statuses carried on the status path.
const (
	StatusRequested  = "requested"
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// EncodeStatus builds the "status|message" wire string.
func EncodeStatus(status, message string) []byte {
	return []byte(status + "|" + message)
}

// DecodeStatus splits a status string on its first '|'. Without a '|' the
// whole string is the status.
func DecodeStatus(data []byte) (status, message string) {
	status, message, _ = strings.Cut(string(data), "|")
	return status, message
}

// RequestOpen asks the first connected phone to show a sign-in prompt.
func RequestOpen(ctx context.Context, sender transport.Sender) bool {
	return sendToFirstPeer(ctx, sender, types.PathLoginOpen, nil)
}

// RequestSync asks the first connected phone to push its signed-in session.
func RequestSync(ctx context.Context, sender transport.Sender) bool {
	return sendToFirstPeer(ctx, sender, types.PathLoginSync, nil)
}

func sendToFirstPeer(ctx context.Context, sender transport.Sender, path string, data []byte) bool {
	peer, ok := transport.FirstPeer(ctx, sender)
	if !ok {
		return false
	}
	return sender.Send(ctx, peer.ID, path, data)
}
