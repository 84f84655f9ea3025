package login

import (
	"context"
	"strings"

	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/types"
)

// Phone-side status messages.
const (
	MessageRequested        = "Phone received request. Check phone notification."
	MessageNotifyFailed     = "Phone could not show login notification. Open SimpMusic on phone."
	MessageNoPhoneSession   = "No active phone session found. Open SimpMusic on your phone and sign in first."
	MessageSyncingFromPhone = "Syncing signed-in session from phone..."
)

// Notifier shows the sign-in prompt on the phone.
type Notifier interface {
	NotifyLoginRequest(ctx context.Context, sourceNodeID string) error
}

// LogNotifier records prompts in the process log.
type LogNotifier struct {
	Logger *log.Logger
}

// NotifyLoginRequest implements Notifier.
func (n LogNotifier) NotifyLoginRequest(_ context.Context, sourceNodeID string) error {
	if n.Logger != nil {
		n.Logger.Info("watch requested sign-in on phone", map[string]any{"source": sourceNodeID})
	}
	return nil
}

// PhoneHandler answers open and sync requests from the watch.
type PhoneHandler struct {
	sender   transport.Sender
	accounts library.Accounts
	notifier Notifier
	logger   *log.Logger
}

// NewPhoneHandler creates a phone handler. A nil notifier logs prompts.
func NewPhoneHandler(sender transport.Sender, accounts library.Accounts, notifier Notifier, logger *log.Logger) *PhoneHandler {
	if logger == nil {
		logger = log.NewNop()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &PhoneHandler{sender: sender, accounts: accounts, notifier: notifier, logger: logger}
}

// Mount registers the open and sync paths on mux.
func (h *PhoneHandler) Mount(mux *transport.Mux) {
	mux.Handle(types.PathLoginOpen, h.HandleOpen)
	mux.Handle(types.PathLoginSync, h.HandleSync)
}

// HandleOpen posts the sign-in prompt and reports the result to the watch.
func (h *PhoneHandler) HandleOpen(ctx context.Context, msg transport.Message) {
	if err := h.notifier.NotifyLoginRequest(ctx, msg.Source); err != nil {
		h.logger.Warn("login notification failed", map[string]any{"error": err.Error()})
		h.reportStatus(ctx, msg.Source, StatusFailed, MessageNotifyFailed)
		return
	}
	h.reportStatus(ctx, msg.Source, StatusRequested, MessageRequested)
}

// HandleSync pushes the phone's cookie to the watch when signed in.
func (h *PhoneHandler) HandleSync(ctx context.Context, msg transport.Message) {
	session, err := h.accounts.Session(ctx)
	if err != nil || !session.LoggedIn || strings.TrimSpace(session.Cookie) == "" {
		h.reportStatus(ctx, msg.Source, StatusFailed, MessageNoPhoneSession)
		return
	}
	if !h.sender.Send(ctx, msg.Source, types.PathLoginCookie, []byte(session.Cookie)) {
		h.logger.Warn("failed to send login cookie", map[string]any{"target": msg.Source})
	}
	h.reportStatus(ctx, msg.Source, StatusProcessing, MessageSyncingFromPhone)
}

func (h *PhoneHandler) reportStatus(ctx context.Context, target, status, message string) {
	if !h.sender.Send(ctx, target, types.PathLoginStatus, EncodeStatus(status, message)) {
		h.logger.Warn("failed to send login status", map[string]any{
			"target": target,
			"status": status,
		})
	}
}
