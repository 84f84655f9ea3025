// Package policy defines the gates that decide whether an auto-sync run may
// proceed.
//
// Gates are evaluated in order and the first refusal wins:
//   - battery saver: refuses unless the device is charging
//   - unmetered only: refuses unless the active network is unmetered
//   - connected peer: refuses when no watch is reachable
//
// A refusal is not an error. Errors are reserved for gates that could not
// read their inputs.
package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/pithecene-io/wearlink/device"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/types"
)

// Refusal reasons. They are written verbatim to the bridge log and stats.
const (
	ReasonBatterySaver  = "Auto-sync skipped: battery-saver policy requires charging."
	ReasonUnmeteredOnly = "Auto-sync skipped: unmetered-only policy is active."
	ReasonNoPeer        = "Auto-sync skipped: no connected watch."
)

// Gate names.
const (
	GateBatterySaver  = "battery_saver"
	GateUnmeteredOnly = "unmetered_only"
	GateConnectedPeer = "connected_peer"
)

// Decision is the verdict of one gate or of a whole evaluation.
type Decision struct {
	Allow bool
	// Reason explains a refusal. Empty when allowed.
	Reason string
	// Gate names the refusing gate. Empty when allowed.
	Gate string
}

// Allowed is the passing decision.
func Allowed() Decision {
	return Decision{Allow: true}
}

// Refused builds a refusal from gate with reason.
func Refused(gate, reason string) Decision {
	return Decision{Reason: reason, Gate: gate}
}

// Gate is one admission check.
type Gate interface {
	// Name identifies the gate in stats and logs.
	Name() string
	// Check returns the gate's decision. An error means the gate could not
	// decide.
	Check(ctx context.Context) (Decision, error)
}

// Source reads the persisted gate flags.
type Source interface {
	Policy(ctx context.Context) (types.AutoSyncPolicy, error)
}

// Stats counts evaluations.
type Stats struct {
	// Evaluations is the number of Evaluate calls that reached a decision.
	Evaluations int64 `json:"evaluations" yaml:"evaluations"`
	// Allowed is the number of evaluations every gate passed.
	Allowed int64 `json:"allowed" yaml:"allowed"`
	// Refused is the number of evaluations some gate refused.
	Refused int64 `json:"refused" yaml:"refused"`
	// RefusedByGate maps gate names to refusal counts.
	RefusedByGate map[string]int64 `json:"refused_by_gate" yaml:"refused_by_gate"`
	// Errors is the number of evaluations aborted by a gate error.
	Errors int64 `json:"errors" yaml:"errors"`
}

// Evaluator runs a fixed gate sequence and keeps stats.
type Evaluator struct {
	gates []Gate

	mu    sync.Mutex
	stats Stats
}

// NewEvaluator creates an evaluator over gates in order.
func NewEvaluator(gates ...Gate) *Evaluator {
	return &Evaluator{
		gates: gates,
		stats: Stats{RefusedByGate: make(map[string]int64)},
	}
}

// Evaluate checks each gate in order. The first refusal is returned; later
// gates are not consulted.
func (e *Evaluator) Evaluate(ctx context.Context) (Decision, error) {
	d, err := Evaluate(ctx, e.gates...)

	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case err != nil:
		e.stats.Errors++
	case d.Allow:
		e.stats.Evaluations++
		e.stats.Allowed++
	default:
		e.stats.Evaluations++
		e.stats.Refused++
		e.stats.RefusedByGate[d.Gate]++
	}
	return d, err
}

// Stats returns a snapshot of the evaluation counters.
func (e *Evaluator) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.stats
	s.RefusedByGate = make(map[string]int64, len(e.stats.RefusedByGate))
	for k, v := range e.stats.RefusedByGate {
		s.RefusedByGate[k] = v
	}
	return s
}

// Evaluate checks gates in order and returns the first refusal, or an
// allowing decision when every gate passed.
func Evaluate(ctx context.Context, gates ...Gate) (Decision, error) {
	for _, g := range gates {
		d, err := g.Check(ctx)
		if err != nil {
			return Decision{}, fmt.Errorf("gate %s: %w", g.Name(), err)
		}
		if !d.Allow {
			if d.Gate == "" {
				d.Gate = g.Name()
			}
			return d, nil
		}
	}
	return Allowed(), nil
}

// Default returns the auto-sync gates in their fixed order.
func Default(src Source, power device.Power, network device.Network, sender transport.Sender) []Gate {
	return []Gate{
		BatterySaver(src, power),
		UnmeteredOnly(src, network),
		ConnectedPeer(sender),
	}
}

type batterySaver struct {
	src   Source
	power device.Power
}

// BatterySaver refuses while the battery-saver flag is set and the device is
// not charging.
func BatterySaver(src Source, power device.Power) Gate {
	return batterySaver{src: src, power: power}
}

func (g batterySaver) Name() string { return GateBatterySaver }

func (g batterySaver) Check(ctx context.Context) (Decision, error) {
	p, err := g.src.Policy(ctx)
	if err != nil {
		return Decision{}, err
	}
	if p.BatterySaver && (g.power == nil || !g.power.Charging()) {
		return Refused(GateBatterySaver, ReasonBatterySaver), nil
	}
	return Allowed(), nil
}

type unmeteredOnly struct {
	src     Source
	network device.Network
}

// UnmeteredOnly refuses while the unmetered-only flag is set and the active
// network is metered or unknown.
func UnmeteredOnly(src Source, network device.Network) Gate {
	return unmeteredOnly{src: src, network: network}
}

func (g unmeteredOnly) Name() string { return GateUnmeteredOnly }

func (g unmeteredOnly) Check(ctx context.Context) (Decision, error) {
	p, err := g.src.Policy(ctx)
	if err != nil {
		return Decision{}, err
	}
	if p.UnmeteredOnly && (g.network == nil || !g.network.Unmetered()) {
		return Refused(GateUnmeteredOnly, ReasonUnmeteredOnly), nil
	}
	return Allowed(), nil
}

type connectedPeer struct {
	sender transport.Sender
}

// ConnectedPeer refuses when no peer is connected. A failed peer lookup reads
// as no peer.
func ConnectedPeer(sender transport.Sender) Gate {
	return connectedPeer{sender: sender}
}

func (g connectedPeer) Name() string { return GateConnectedPeer }

func (g connectedPeer) Check(ctx context.Context) (Decision, error) {
	if _, ok := transport.FirstPeer(ctx, g.sender); !ok {
		return Refused(GateConnectedPeer, ReasonNoPeer), nil
	}
	return Allowed(), nil
}
