package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pithecene-io/wearlink/mapper"
	"github.com/pithecene-io/wearlink/player"
	"github.com/pithecene-io/wearlink/types"
)

var errNoWatchPlayer = errors.New("watch playback service unavailable")

func decodePayload(req *types.Request, v any) error {
	if err := json.Unmarshal(req.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", req.Action, err)
	}
	return nil
}

func (d *Dispatcher) handleStatus(ctx context.Context, _ *types.Request) (result, error) {
	diag := types.Diagnostics{
		Model:      d.deps.Device.Model,
		SDKInt:     d.deps.Device.SDKInt,
		AppVersion: d.deps.Device.AppVersion,
	}
	if accounts := d.deps.Library.Accounts; accounts != nil {
		session, err := accounts.Session(ctx)
		if err != nil {
			return result{}, err
		}
		count, err := accounts.AccountCount(ctx)
		if err != nil {
			return result{}, err
		}
		diag.LoggedIn = session.LoggedIn
		diag.HasCookie = !isBlank(session.Cookie)
		diag.HasSpotifySpdc = !isBlank(session.Spdc)
		diag.AccountCount = count
	}
	if p := d.deps.Player; p != nil {
		diag.QueueSize = len(p.Queue())
		if now, ok := p.NowPlaying(); ok {
			diag.NowPlayingVideoID = now.VideoID
		}
	}
	return result{ok: true, message: "Watch diagnostics ready.", data: diag}, nil
}

func (d *Dispatcher) handleSyncSession(ctx context.Context, req *types.Request) (result, error) {
	var p types.SessionPayload
	if err := decodePayload(req, &p); err != nil {
		return result{}, err
	}
	if isBlank(p.Cookie) {
		return failure("Missing cookie in session sync payload."), nil
	}

	accounts := d.deps.Library.Accounts
	if err := accounts.AddAccountFromCookie(ctx, p.Cookie); err != nil {
		d.deps.Logger.Warn("session apply failed", map[string]any{"error": err.Error()})
		return failure("Watch could not apply account session."), nil
	}
	if err := accounts.ApplySpotify(ctx, mapper.SpotifyUpdateFromPayload(p)); err != nil {
		return result{}, err
	}
	return success("Session and Spotify tokens synced to watch."), nil
}

func (d *Dispatcher) handleSyncSong(ctx context.Context, req *types.Request) (result, error) {
	p := types.SongPayload{IsAvailable: true}
	if err := decodePayload(req, &p); err != nil {
		return result{}, err
	}
	switch {
	case isBlank(p.VideoID):
		return missingField("videoId", req.Action), nil
	case isBlank(p.Title):
		return missingField("title", req.Action), nil
	}

	songs := d.deps.Library.Songs
	if err := songs.Upsert(ctx, mapper.SongFromPayload(p)); err != nil {
		return result{}, err
	}
	if err := songs.UpdateLiked(ctx, p.VideoID, p.Liked); err != nil {
		return result{}, err
	}
	if err := songs.UpdateDownloadState(ctx, p.VideoID, p.DownloadState); err != nil {
		return result{}, err
	}
	return success("Synced song " + p.Title + "."), nil
}

func (d *Dispatcher) handleSyncPlaylist(ctx context.Context, req *types.Request) (result, error) {
	var p types.PlaylistPayload
	if err := decodePayload(req, &p); err != nil {
		return result{}, err
	}
	switch {
	case isBlank(p.ID):
		return missingField("id", req.Action), nil
	case isBlank(p.Title):
		return missingField("title", req.Action), nil
	}

	playlists := d.deps.Library.Playlists
	if err := playlists.Upsert(ctx, mapper.PlaylistFromPayload(p)); err != nil {
		return result{}, err
	}
	if err := playlists.UpdateLiked(ctx, p.ID, p.Liked); err != nil {
		return result{}, err
	}
	if err := playlists.UpdateDownloadState(ctx, p.ID, p.DownloadState); err != nil {
		return result{}, err
	}
	return success("Synced playlist " + p.Title + "."), nil
}

func (d *Dispatcher) handleSyncAlbum(ctx context.Context, req *types.Request) (result, error) {
	var p types.AlbumPayload
	if err := decodePayload(req, &p); err != nil {
		return result{}, err
	}
	switch {
	case isBlank(p.BrowseID):
		return missingField("browseId", req.Action), nil
	case isBlank(p.Title):
		return missingField("title", req.Action), nil
	}

	albums := d.deps.Library.Albums
	if err := albums.Upsert(ctx, mapper.AlbumFromPayload(p)); err != nil {
		return result{}, err
	}
	if err := albums.UpdateLiked(ctx, p.BrowseID, p.Liked); err != nil {
		return result{}, err
	}
	if err := albums.UpdateDownloadState(ctx, p.BrowseID, p.DownloadState); err != nil {
		return result{}, err
	}
	return success("Synced album " + p.Title + "."), nil
}

func (d *Dispatcher) handleSyncArtist(ctx context.Context, req *types.Request) (result, error) {
	var p types.ArtistPayload
	if err := decodePayload(req, &p); err != nil {
		return result{}, err
	}
	switch {
	case isBlank(p.ChannelID):
		return missingField("channelId", req.Action), nil
	case isBlank(p.Name):
		return missingField("name", req.Action), nil
	}

	artists := d.deps.Library.Artists
	if err := artists.Upsert(ctx, mapper.ArtistFromPayload(p)); err != nil {
		return result{}, err
	}
	if err := artists.UpdateFollowed(ctx, p.ChannelID, p.Followed); err != nil {
		return result{}, err
	}
	return success("Synced artist " + p.Name + "."), nil
}

func (d *Dispatcher) handleSyncPodcast(ctx context.Context, req *types.Request) (result, error) {
	var p types.PodcastPayload
	if err := decodePayload(req, &p); err != nil {
		return result{}, err
	}
	switch {
	case isBlank(p.PodcastID):
		return missingField("podcastId", req.Action), nil
	case isBlank(p.Title):
		return missingField("title", req.Action), nil
	}

	if err := d.deps.Library.Podcasts.Upsert(ctx, mapper.PodcastFromPayload(p)); err != nil {
		return result{}, err
	}
	return success("Synced podcast " + p.Title + "."), nil
}

func (d *Dispatcher) handleSyncDownload(ctx context.Context, req *types.Request) (result, error) {
	var p types.DownloadSnapshot
	if err := decodePayload(req, &p); err != nil {
		return result{}, err
	}

	lib := d.deps.Library
	for _, s := range p.Songs {
		if isBlank(s.VideoID) {
			continue
		}
		d.downloadItemFailed("song", s.VideoID, lib.Songs.UpdateDownloadState(ctx, s.VideoID, s.DownloadState))
	}
	for _, pl := range p.Playlists {
		if isBlank(pl.ID) {
			continue
		}
		d.downloadItemFailed("playlist", pl.ID, lib.Playlists.UpdateDownloadState(ctx, pl.ID, pl.DownloadState))
	}
	for _, a := range p.Albums {
		if isBlank(a.BrowseID) {
			continue
		}
		d.downloadItemFailed("album", a.BrowseID, lib.Albums.UpdateDownloadState(ctx, a.BrowseID, a.DownloadState))
	}
	return success("Synced download metadata."), nil
}

// downloadItemFailed logs err for one sync_download entry. The rest of the
// snapshot is still applied.
func (d *Dispatcher) downloadItemFailed(kind, id string, err error) {
	if err == nil {
		return
	}
	d.deps.Logger.Warn("download state update failed", map[string]any{
		"kind":  kind,
		"id":    id,
		"error": err.Error(),
	})
}

func (d *Dispatcher) handleWatchRemote(_ context.Context, req *types.Request) (result, error) {
	var p types.RemotePayload
	if err := decodePayload(req, &p); err != nil {
		return result{}, err
	}

	if p.Command.IsHandoff() && !d.role.AcceptsHandoff(p.Command) {
		return failure("Unsupported remote command: " + string(p.Command)), nil
	}

	pl := d.deps.Player
	if pl == nil {
		return result{}, errNoWatchPlayer
	}

	switch p.Command {
	case types.RemotePlayPause:
		pl.PlayPause()
	case types.RemoteNext:
		pl.Next()
	case types.RemotePrevious:
		pl.Previous()
	case types.RemoteVolumeUp:
		pl.VolumeUp()
	case types.RemoteVolumeDown:
		pl.VolumeDown()
	case types.RemoteHandoff:
		tracks := mapper.ParseHandoffTracks(p.Tracks)
		if len(tracks) == 0 {
			return failure("Handoff ignored: queue is empty."), nil
		}
		applyQueue(pl, p, tracks)
		return success(fmt.Sprintf("Handoff applied: continuing on watch (%d tracks).", len(tracks))), nil
	default:
		return failure("Unsupported remote command: " + string(p.Command)), nil
	}
	return success("Executed remote command: " + string(p.Command)), nil
}

func applyQueue(pl player.Player, p types.RemotePayload, tracks []types.HandoffTrack) {
	pl.SetQueue(player.QueueData{
		Tracks:       tracks,
		PlaylistID:   p.PlaylistID,
		PlaylistName: p.PlaylistName,
		PlaylistType: p.PlaylistType,
	})
	pl.Load(mapper.ClampIndex(p.Index, len(tracks)))
}
