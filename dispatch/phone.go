package dispatch

import (
	"context"
	"fmt"

	"github.com/pithecene-io/wearlink/mapper"
	"github.com/pithecene-io/wearlink/types"
)

// handlePhoneRemote applies a command sent from the watch to phone playback.
// Every outcome is also written to the bridge log.
func (d *Dispatcher) handlePhoneRemote(ctx context.Context, req *types.Request) (result, error) {
	var p types.RemotePayload
	if err := decodePayload(req, &p); err != nil {
		return result{}, err
	}
	res := d.phoneRemote(p)
	d.appendLog(ctx, res.message)
	return res, nil
}

func (d *Dispatcher) phoneRemote(p types.RemotePayload) result {
	pl := d.deps.Player
	if pl == nil {
		return failure("Phone playback service unavailable.")
	}

	switch p.Command {
	case types.RemotePlayPause:
		pl.PlayPause()
		return success("Phone play/pause toggled from watch.")
	case types.RemoteNext:
		pl.Next()
		return success("Phone skipped to next from watch.")
	case types.RemotePrevious:
		pl.Previous()
		return success("Phone went to previous from watch.")
	case types.RemoteHandoffHome:
		tracks := mapper.ParseHandoffTracks(p.Tracks)
		if len(tracks) == 0 {
			return failure("Watch handoff ignored: queue is empty.")
		}
		applyQueue(pl, p, tracks)
		return success(fmt.Sprintf("Handoff applied: continuing on phone (%d tracks).", len(tracks)))
	default:
		return failure("Unsupported remote command: " + string(p.Command))
	}
}
