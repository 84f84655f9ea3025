package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/pithecene-io/wearlink/bus"
	"github.com/pithecene-io/wearlink/ipc"
	"github.com/pithecene-io/wearlink/log"
	"github.com/pithecene-io/wearlink/metrics"
	"github.com/pithecene-io/wearlink/store"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/types"
)

// ResponseListener records inbound responses and publishes them on a broker.
type ResponseListener struct {
	bridge  *store.Bridge
	broker  *bus.Broker
	logger  *log.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewResponseListener creates a listener. broker and m may be nil.
func NewResponseListener(bridge *store.Bridge, broker *bus.Broker, logger *log.Logger, m *metrics.Collector, now func() time.Time) *ResponseListener {
	if logger == nil {
		logger = log.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &ResponseListener{bridge: bridge, broker: broker, logger: logger, metrics: m, now: now}
}

// HandleResponse stores the raw response, logs its message, and publishes
// the decoded response. Blank payloads are ignored.
func (l *ResponseListener) HandleResponse(ctx context.Context, msg transport.Message) {
	raw := string(msg.Data)
	if strings.TrimSpace(raw) == "" {
		return
	}

	if err := l.bridge.SetLastResponse(ctx, raw); err != nil {
		l.logger.Warn("failed to store response", map[string]any{"error": err.Error()})
	}

	resp, ok := ipc.DecodeResponse(msg.Data)
	if ok && resp.Action == types.ActionStatus {
		if err := l.bridge.SetLastDiagnostics(ctx, raw); err != nil {
			l.logger.Warn("failed to store diagnostics", map[string]any{"error": err.Error()})
		}
	}

	line := raw
	if ok && strings.TrimSpace(resp.Message) != "" {
		line = resp.Message
	}
	if err := l.bridge.AppendLog(ctx, l.now(), line); err != nil {
		l.logger.Warn("failed to append bridge log", map[string]any{"error": err.Error()})
	}

	if !ok {
		l.logger.Debug("undecodable response stored raw", map[string]any{"source": msg.Source})
		return
	}
	l.metrics.ObserveResponse(resp.OK)
	if l.broker != nil {
		l.broker.Publish(*resp)
	}
}

// Mount registers the dispatcher and listener on the two bridge paths.
// Either may be nil to leave its path unhandled.
func Mount(mux *transport.Mux, d *Dispatcher, l *ResponseListener) {
	if d != nil {
		mux.Handle(types.PathRequest, d.HandleRequest)
	}
	if l != nil {
		mux.Handle(types.PathResponse, l.HandleResponse)
	}
}
