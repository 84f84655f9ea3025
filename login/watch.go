package login

import (
	"context"
	"strings"

	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/store"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/types"
)

// Watch-side status messages.
const (
	MessageSyncingToWatch = "Syncing session to watch..."
	MessageSignedIn       = "Signed in."
	MessageSignInFailed   = "Failed to sign in. Try again."
)

// WatchHandler applies cookies and status updates sent by the phone.
type WatchHandler struct {
	accounts library.Accounts
	bridge   *store.Bridge
	logger   *log.Logger
}

// NewWatchHandler creates a watch handler.
func NewWatchHandler(accounts library.Accounts, bridge *store.Bridge, logger *log.Logger) *WatchHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &WatchHandler{accounts: accounts, bridge: bridge, logger: logger}
}

// Mount registers the cookie and status paths on mux.
func (h *WatchHandler) Mount(mux *transport.Mux) {
	mux.Handle(types.PathLoginCookie, h.HandleCookie)
	mux.Handle(types.PathLoginStatus, h.HandleStatus)
}

// HandleCookie signs in with the received cookie. Blank cookies are ignored.
func (h *WatchHandler) HandleCookie(ctx context.Context, msg transport.Message) {
	cookie := string(msg.Data)
	if strings.TrimSpace(cookie) == "" {
		return
	}
	h.store(ctx, StatusProcessing, MessageSyncingToWatch)

	if err := h.accounts.AddAccountFromCookie(ctx, cookie); err != nil {
		h.logger.Warn("sign-in from phone cookie failed", map[string]any{"error": err.Error()})
		h.store(ctx, StatusFailed, MessageSignInFailed)
		return
	}
	h.store(ctx, StatusSuccess, MessageSignedIn)
}

// HandleStatus records a status pushed by the phone. The message is always
// replaced so stale text does not linger; a blank status keeps the previous
// one.
func (h *WatchHandler) HandleStatus(ctx context.Context, msg transport.Message) {
	status, message := DecodeStatus(msg.Data)
	if strings.TrimSpace(status) == "" && strings.TrimSpace(message) == "" {
		return
	}
	if strings.TrimSpace(status) != "" {
		if err := h.bridge.SetLoginState(ctx, status); err != nil {
			h.logger.Warn("failed to store login status", map[string]any{"error": err.Error()})
		}
	}
	if err := h.bridge.SetLoginMessage(ctx, message); err != nil {
		h.logger.Warn("failed to store login message", map[string]any{"error": err.Error()})
	}
}

func (h *WatchHandler) store(ctx context.Context, status, message string) {
	if err := h.bridge.SetLoginStatus(ctx, status, message); err != nil {
		h.logger.Warn("failed to store login status", map[string]any{"error": err.Error()})
	}
}
