// Package dispatch executes companion requests and records their responses.
//
// A Dispatcher runs in one role. Requests that cannot be decoded are dropped
// without a response; every decoded request gets exactly one response sent
// back to its source on the response path.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pithecene-io/wearlink/device"
	"github.com/pithecene-io/wearlink/ipc"
	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/metrics"
	"github.com/pithecene-io/wearlink/player"
	"github.com/pithecene-io/wearlink/store"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/types"
)

// DefaultFailureMessage replaces blank handler error messages.
const DefaultFailureMessage = "Watch action failed."

// Deps are the collaborators a Dispatcher uses.
type Deps struct {
	Sender  transport.Sender
	Library library.Library
	// Player may be nil on the phone, where it reads as an unavailable
	// playback service.
	Player  player.Player
	Device  device.Info
	Bridge  *store.Bridge
	Logger  *log.Logger
	Metrics *metrics.Collector
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) defaults() {
	if d.Logger == nil {
		d.Logger = log.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// result is a handler outcome. data must encode to a JSON object when set.
type result struct {
	ok      bool
	message string
	data    any
}

func success(message string) result {
	return result{ok: true, message: message}
}

func failure(message string) result {
	return result{ok: false, message: message}
}

type handler func(ctx context.Context, req *types.Request) (result, error)

// Dispatcher routes decoded requests to the handlers of its role.
type Dispatcher struct {
	role     types.Role
	deps     Deps
	handlers map[types.ActionKind]handler
}

// New creates a dispatcher for role.
func New(role types.Role, deps Deps) *Dispatcher {
	deps.defaults()
	d := &Dispatcher{role: role, deps: deps}
	switch role {
	case types.RoleWatch:
		d.handlers = map[types.ActionKind]handler{
			types.ActionStatus:       d.handleStatus,
			types.ActionSyncSession:  d.handleSyncSession,
			types.ActionSyncSong:     d.handleSyncSong,
			types.ActionSyncPlaylist: d.handleSyncPlaylist,
			types.ActionSyncAlbum:    d.handleSyncAlbum,
			types.ActionSyncArtist:   d.handleSyncArtist,
			types.ActionSyncPodcast:  d.handleSyncPodcast,
			types.ActionSyncDownload: d.handleSyncDownload,
			types.ActionRemote:       d.handleWatchRemote,
		}
	default:
		d.handlers = map[types.ActionKind]handler{
			types.ActionRemote: d.handlePhoneRemote,
		}
	}
	return d
}

// Role returns the dispatcher role.
func (d *Dispatcher) Role() types.Role {
	return d.role
}

// HandleRequest decodes, executes and answers one inbound request.
// It satisfies transport.MessageHandler.
func (d *Dispatcher) HandleRequest(ctx context.Context, msg transport.Message) {
	req, ok := ipc.DecodeRequest(msg.Data)
	if !ok {
		d.deps.Metrics.IncDecodeDrop()
		d.deps.Logger.Debug("dropping undecodable request", map[string]any{
			"source": msg.Source,
			"bytes":  len(msg.Data),
		})
		return
	}

	res := d.execute(ctx, req)
	d.respond(ctx, msg.Source, req, res)
}

// execute runs the routed handler, converting errors and panics into a
// failed result.
func (d *Dispatcher) execute(ctx context.Context, req *types.Request) (res result) {
	h, ok := d.handlers[req.Action]
	if !ok {
		return failure("Unsupported action: " + string(req.Action))
	}

	defer func() {
		if r := recover(); r != nil {
			d.deps.Metrics.IncHandlerFailure()
			d.deps.Logger.Error("request handler panicked", map[string]any{
				"action":     string(req.Action),
				"request_id": req.RequestID,
				"panic":      fmt.Sprint(r),
			})
			res = failure(failureMessage(fmt.Sprint(r)))
		}
	}()

	res, err := h(ctx, req)
	if err != nil {
		d.deps.Metrics.IncHandlerFailure()
		d.deps.Logger.Warn("request handler failed", map[string]any{
			"action":     string(req.Action),
			"request_id": req.RequestID,
			"error":      err.Error(),
		})
		return failure(failureMessage(err.Error()))
	}
	return res
}

func (d *Dispatcher) respond(ctx context.Context, target string, req *types.Request, res result) {
	body, err := ipc.EncodeResponse(req.RequestID, req.Action, res.ok, res.message, res.data, d.deps.Now())
	if err != nil {
		d.deps.Logger.Error("failed to encode response", map[string]any{
			"action":     string(req.Action),
			"request_id": req.RequestID,
			"error":      err.Error(),
		})
		return
	}

	d.deps.Metrics.IncRequestHandled()
	if d.deps.Sender == nil || !d.deps.Sender.Send(ctx, target, types.PathResponse, body) {
		d.deps.Metrics.IncSendFailure()
		d.deps.Logger.Warn("failed to send response", map[string]any{
			"action":     string(req.Action),
			"request_id": req.RequestID,
			"target":     target,
		})
	}
}

// appendLog writes to the bridge log, logging but not returning failures.
func (d *Dispatcher) appendLog(ctx context.Context, message string) {
	if d.deps.Bridge == nil {
		return
	}
	if err := d.deps.Bridge.AppendLog(ctx, d.deps.Now(), message); err != nil {
		d.deps.Logger.Warn("failed to append bridge log", map[string]any{"error": err.Error()})
	}
}

func failureMessage(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return DefaultFailureMessage
	}
	return msg
}

func missingField(field string, action types.ActionKind) result {
	return failure(fmt.Sprintf("Missing %s in %s payload.", field, action))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
