// Package metrics provides bridge counters for one node process.
//
// The Collector is a leaf package with no internal dependencies. Auto-sync
// statuses are plain strings so this package stays free of the types package.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Outbound requests
	RequestsSent int64 `json:"requests_sent"`
	SendFailures int64 `json:"send_failures"`

	// Dispatcher
	RequestsHandled int64 `json:"requests_handled"`
	DecodeDrops     int64 `json:"decode_drops"`
	HandlerFailures int64 `json:"handler_failures"`

	// Response listener
	ResponsesReceived int64 `json:"responses_received"`
	ResponsesOK       int64 `json:"responses_ok"`
	ResponsesFailed   int64 `json:"responses_failed"`

	// Tracked client actions
	ActionsOK     int64 `json:"actions_ok"`
	ActionsFailed int64 `json:"actions_failed"`

	// Auto-sync
	AutoSyncRuns     map[string]int64 `json:"auto_sync_runs"`
	ArchiveWriteOK   int64            `json:"archive_write_ok"`
	ArchiveWriteFail int64            `json:"archive_write_fail"`
	GateRefusals     map[string]int64 `json:"gate_refusals"`
	GateErrors       int64            `json:"gate_errors"`

	// Dimensions (informational, set at construction)
	Role      string `json:"role"`
	DeviceID  string `json:"device_id"`
	Transport string `json:"transport"`
}

// Collector accumulates counters.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	requestsSent int64
	sendFailures int64

	requestsHandled int64
	decodeDrops     int64
	handlerFailures int64

	responsesReceived int64
	responsesOK       int64
	responsesFailed   int64

	actionsOK     int64
	actionsFailed int64

	autoSyncRuns     map[string]int64
	archiveWriteOK   int64
	archiveWriteFail int64
	gateRefusals     map[string]int64
	gateErrors       int64

	role      string
	deviceID  string
	transport string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(role, deviceID, transport string) *Collector {
	return &Collector{
		autoSyncRuns: make(map[string]int64),
		gateRefusals: make(map[string]int64),
		role:         role,
		deviceID:     deviceID,
		transport:    transport,
	}
}

func (c *Collector) inc(counter *int64) {
	c.mu.Lock()
	*counter++
	c.mu.Unlock()
}

// --- Outbound ---

// IncRequestSent records a request accepted by the transport.
func (c *Collector) IncRequestSent() {
	if c == nil {
		return
	}
	c.inc(&c.requestsSent)
}

// IncSendFailure records a request the transport refused.
func (c *Collector) IncSendFailure() {
	if c == nil {
		return
	}
	c.inc(&c.sendFailures)
}

// --- Dispatcher ---

// IncRequestHandled records a decoded request that produced a response.
func (c *Collector) IncRequestHandled() {
	if c == nil {
		return
	}
	c.inc(&c.requestsHandled)
}

// IncDecodeDrop records a request dropped because it could not be decoded.
func (c *Collector) IncDecodeDrop() {
	if c == nil {
		return
	}
	c.inc(&c.decodeDrops)
}

// IncHandlerFailure records a handler that returned an error or panicked.
func (c *Collector) IncHandlerFailure() {
	if c == nil {
		return
	}
	c.inc(&c.handlerFailures)
}

// --- Responses ---

// ObserveResponse records a received response by outcome.
func (c *Collector) ObserveResponse(ok bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.responsesReceived++
	if ok {
		c.responsesOK++
	} else {
		c.responsesFailed++
	}
	c.mu.Unlock()
}

// --- Tracked actions ---

// ObserveAction records a tracked client action by outcome.
func (c *Collector) ObserveAction(ok bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if ok {
		c.actionsOK++
	} else {
		c.actionsFailed++
	}
	c.mu.Unlock()
}

// --- Auto-sync ---

// IncAutoSyncRun records an auto-sync run by status.
func (c *Collector) IncAutoSyncRun(status string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.autoSyncRuns[status]++
	c.mu.Unlock()
}

// IncArchiveWriteSuccess records a successful run-history write.
func (c *Collector) IncArchiveWriteSuccess() {
	if c == nil {
		return
	}
	c.inc(&c.archiveWriteOK)
}

// IncArchiveWriteFailure records a failed run-history write.
func (c *Collector) IncArchiveWriteFailure() {
	if c == nil {
		return
	}
	c.inc(&c.archiveWriteFail)
}

// IncGateRefusal records an auto-sync run refused by gate.
func (c *Collector) IncGateRefusal(gate string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.gateRefusals[gate]++
	c.mu.Unlock()
}

// IncGateError records a gate that could not decide.
func (c *Collector) IncGateError() {
	if c == nil {
		return
	}
	c.inc(&c.gateErrors)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{AutoSyncRuns: map[string]int64{}, GateRefusals: map[string]int64{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	runs := make(map[string]int64, len(c.autoSyncRuns))
	for k, v := range c.autoSyncRuns {
		runs[k] = v
	}
	refusals := make(map[string]int64, len(c.gateRefusals))
	for k, v := range c.gateRefusals {
		refusals[k] = v
	}

	return Snapshot{
		RequestsSent: c.requestsSent,
		SendFailures: c.sendFailures,

		RequestsHandled: c.requestsHandled,
		DecodeDrops:     c.decodeDrops,
		HandlerFailures: c.handlerFailures,

		ResponsesReceived: c.responsesReceived,
		ResponsesOK:       c.responsesOK,
		ResponsesFailed:   c.responsesFailed,

		ActionsOK:     c.actionsOK,
		ActionsFailed: c.actionsFailed,

		AutoSyncRuns:     runs,
		ArchiveWriteOK:   c.archiveWriteOK,
		ArchiveWriteFail: c.archiveWriteFail,
		GateRefusals:     refusals,
		GateErrors:       c.gateErrors,

		Role:      c.role,
		DeviceID:  c.deviceID,
		Transport: c.transport,
	}
}

// WriteSnapshot writes s as indented JSON to path, creating parent
// directories. The file is replaced atomically.
func WriteSnapshot(path string, s Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metrics snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read metrics snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode metrics snapshot: %w", err)
	}
	if s.AutoSyncRuns == nil {
		s.AutoSyncRuns = map[string]int64{}
	}
	if s.GateRefusals == nil {
		s.GateRefusals = map[string]int64{}
	}
	return s, nil
}
