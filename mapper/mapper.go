// Package mapper converts library entities to companion wire payloads and
// back.
//
// Encoding writes unset optional strings as "" and nil lists as []. Decoding
// turns blank strings back into unset values and drops blank list entries,
// except album artist ids, which keep nulls.
package mapper

import (
	"strings"

	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/types"
)

// SongToPayload converts a song to its sync_song payload.
func SongToPayload(s library.Song) types.SongPayload {
	return types.SongPayload{
		VideoID:         s.VideoID,
		Title:           s.Title,
		AlbumID:         s.AlbumID,
		AlbumName:       s.AlbumName,
		ArtistID:        nonNil(s.ArtistID),
		ArtistName:      nonNil(s.ArtistName),
		Duration:        s.Duration,
		DurationSeconds: s.DurationSeconds,
		IsAvailable:     s.IsAvailable,
		IsExplicit:      s.IsExplicit,
		LikeStatus:      s.LikeStatus,
		Thumbnails:      s.Thumbnails,
		VideoType:       s.VideoType,
		Category:        s.Category,
		ResultType:      s.ResultType,
		Liked:           s.Liked,
		DownloadState:   s.DownloadState,
	}
}

// SongFromPayload converts a sync_song payload to a song.
func SongFromPayload(p types.SongPayload) library.Song {
	return library.Song{
		VideoID:         p.VideoID,
		Title:           p.Title,
		AlbumID:         optional(p.AlbumID),
		AlbumName:       optional(p.AlbumName),
		ArtistID:        compact(p.ArtistID),
		ArtistName:      compact(p.ArtistName),
		Duration:        p.Duration,
		DurationSeconds: p.DurationSeconds,
		IsAvailable:     p.IsAvailable,
		IsExplicit:      p.IsExplicit,
		LikeStatus:      p.LikeStatus,
		Thumbnails:      optional(p.Thumbnails),
		VideoType:       p.VideoType,
		Category:        optional(p.Category),
		ResultType:      optional(p.ResultType),
		Liked:           p.Liked,
		DownloadState:   p.DownloadState,
	}
}

// PlaylistToPayload converts a playlist to its sync_playlist payload.
func PlaylistToPayload(p library.Playlist) types.PlaylistPayload {
	return types.PlaylistPayload{
		ID:              p.ID,
		Author:          p.Author,
		Description:     p.Description,
		Duration:        p.Duration,
		DurationSeconds: p.DurationSeconds,
		Privacy:         p.Privacy,
		Thumbnails:      p.Thumbnails,
		Title:           p.Title,
		TrackCount:      p.TrackCount,
		Tracks:          nonNil(p.Tracks),
		Year:            p.Year,
		Liked:           p.Liked,
		DownloadState:   p.DownloadState,
	}
}

// PlaylistFromPayload converts a sync_playlist payload to a playlist.
func PlaylistFromPayload(p types.PlaylistPayload) library.Playlist {
	return library.Playlist{
		ID:              p.ID,
		Author:          optional(p.Author),
		Description:     p.Description,
		Duration:        p.Duration,
		DurationSeconds: p.DurationSeconds,
		Privacy:         p.Privacy,
		Thumbnails:      p.Thumbnails,
		Title:           p.Title,
		TrackCount:      p.TrackCount,
		Tracks:          compact(p.Tracks),
		Year:            optional(p.Year),
		Liked:           p.Liked,
		DownloadState:   p.DownloadState,
	}
}

// AlbumToPayload converts an album to its sync_album payload.
func AlbumToPayload(a library.Album) types.AlbumPayload {
	artistIDs := a.ArtistID
	if artistIDs == nil {
		artistIDs = []*string{}
	}
	return types.AlbumPayload{
		BrowseID:        a.BrowseID,
		ArtistID:        artistIDs,
		ArtistName:      nonNil(a.ArtistName),
		AudioPlaylistID: a.AudioPlaylistID,
		Description:     a.Description,
		Duration:        a.Duration,
		DurationSeconds: a.DurationSeconds,
		Thumbnails:      a.Thumbnails,
		Title:           a.Title,
		TrackCount:      a.TrackCount,
		Tracks:          nonNil(a.Tracks),
		Type:            a.Type,
		Year:            a.Year,
		Liked:           a.Liked,
		DownloadState:   a.DownloadState,
	}
}

// AlbumFromPayload converts a sync_album payload to an album.
func AlbumFromPayload(p types.AlbumPayload) library.Album {
	var artistIDs []*string
	if len(p.ArtistID) > 0 {
		artistIDs = p.ArtistID
	}
	return library.Album{
		BrowseID:        p.BrowseID,
		ArtistID:        artistIDs,
		ArtistName:      compact(p.ArtistName),
		AudioPlaylistID: p.AudioPlaylistID,
		Description:     p.Description,
		Duration:        optional(p.Duration),
		DurationSeconds: p.DurationSeconds,
		Thumbnails:      optional(p.Thumbnails),
		Title:           p.Title,
		TrackCount:      p.TrackCount,
		Tracks:          compact(p.Tracks),
		Type:            p.Type,
		Year:            optional(p.Year),
		Liked:           p.Liked,
		DownloadState:   p.DownloadState,
	}
}

// ArtistToPayload converts an artist to its sync_artist payload.
func ArtistToPayload(a library.Artist) types.ArtistPayload {
	return types.ArtistPayload{
		ChannelID:  a.ChannelID,
		Name:       a.Name,
		Thumbnails: a.Thumbnails,
		Followed:   a.Followed,
	}
}

// ArtistFromPayload converts a sync_artist payload to an artist.
func ArtistFromPayload(p types.ArtistPayload) library.Artist {
	return library.Artist{
		ChannelID:  p.ChannelID,
		Name:       p.Name,
		Thumbnails: optional(p.Thumbnails),
		Followed:   p.Followed,
	}
}

// PodcastToPayload converts a podcast to its sync_podcast payload.
func PodcastToPayload(p library.Podcast) types.PodcastPayload {
	return types.PodcastPayload{
		PodcastID:       p.PodcastID,
		Title:           p.Title,
		AuthorID:        p.AuthorID,
		AuthorName:      p.AuthorName,
		AuthorThumbnail: p.AuthorThumbnail,
		Description:     p.Description,
		Thumbnail:       p.Thumbnail,
		IsFavorite:      p.IsFavorite,
		ListEpisodes:    nonNil(p.ListEpisodes),
	}
}

// PodcastFromPayload converts a sync_podcast payload to a podcast.
// The episode list stays non-nil even when empty.
func PodcastFromPayload(p types.PodcastPayload) library.Podcast {
	episodes := compact(p.ListEpisodes)
	if episodes == nil {
		episodes = []string{}
	}
	return library.Podcast{
		PodcastID:       p.PodcastID,
		Title:           p.Title,
		AuthorID:        p.AuthorID,
		AuthorName:      p.AuthorName,
		AuthorThumbnail: optional(p.AuthorThumbnail),
		Description:     optional(p.Description),
		Thumbnail:       optional(p.Thumbnail),
		IsFavorite:      p.IsFavorite,
		ListEpisodes:    episodes,
	}
}

// SessionToPayload converts the local session to a sync_session payload.
func SessionToPayload(s library.Session) types.SessionPayload {
	return types.SessionPayload{
		Cookie:                      s.Cookie,
		Spdc:                        s.Spdc,
		SpotifyClientToken:          s.SpotifyClientToken,
		SpotifyClientTokenExpires:   s.SpotifyClientTokenExpires,
		SpotifyPersonalToken:        s.SpotifyPersonalToken,
		SpotifyPersonalTokenExpires: s.SpotifyPersonalTokenExpires,
		SpotifyLyrics:               s.SpotifyLyrics,
		SpotifyCanvas:               s.SpotifyCanvas,
	}
}

// SpotifyUpdateFromPayload selects the Spotify fields a session payload
// should apply: non-blank strings and positive expiries. The feature flags
// are always carried.
func SpotifyUpdateFromPayload(p types.SessionPayload) library.SpotifyUpdate {
	update := library.SpotifyUpdate{
		SpotifyLyrics: p.SpotifyLyrics,
		SpotifyCanvas: p.SpotifyCanvas,
	}
	if !isBlank(p.Spdc) {
		v := p.Spdc
		update.Spdc = &v
	}
	if !isBlank(p.SpotifyClientToken) {
		v := p.SpotifyClientToken
		update.SpotifyClientToken = &v
	}
	if p.SpotifyClientTokenExpires > 0 {
		v := p.SpotifyClientTokenExpires
		update.SpotifyClientTokenExpires = &v
	}
	if !isBlank(p.SpotifyPersonalToken) {
		v := p.SpotifyPersonalToken
		update.SpotifyPersonalToken = &v
	}
	if p.SpotifyPersonalTokenExpires > 0 {
		v := p.SpotifyPersonalTokenExpires
		update.SpotifyPersonalTokenExpires = &v
	}
	return update
}

// DownloadSnapshotFrom aggregates download states. Songs are de-duplicated
// by id; playlists and albums come from the downloaded collections. Local
// playlists and podcasts have no wire slot and are skipped.
func DownloadSnapshotFrom(songs []library.Song, collections []types.DownloadedCollection) types.DownloadSnapshot {
	snapshot := types.DownloadSnapshot{
		Songs:     []types.SongDownloadState{},
		Playlists: []types.PlaylistDownloadState{},
		Albums:    []types.AlbumDownloadState{},
	}

	seenSongs := make(map[string]bool, len(songs))
	for _, s := range songs {
		if seenSongs[s.VideoID] {
			continue
		}
		seenSongs[s.VideoID] = true
		snapshot.Songs = append(snapshot.Songs, types.SongDownloadState{
			VideoID:       s.VideoID,
			DownloadState: s.DownloadState,
		})
	}

	seenCollections := make(map[string]bool, len(collections))
	for _, c := range collections {
		key := c.Key()
		if seenCollections[key] {
			continue
		}
		seenCollections[key] = true
		switch c.Kind {
		case types.CollectionPlaylist:
			if c.Playlist != nil {
				snapshot.Playlists = append(snapshot.Playlists, types.PlaylistDownloadState{
					ID:            c.Playlist.ID,
					DownloadState: c.Playlist.DownloadState,
				})
			}
		case types.CollectionAlbum:
			if c.Album != nil {
				snapshot.Albums = append(snapshot.Albums, types.AlbumDownloadState{
					BrowseID:      c.Album.BrowseID,
					DownloadState: c.Album.DownloadState,
				})
			}
		}
	}
	return snapshot
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func optional(s string) string {
	if isBlank(s) {
		return ""
	}
	return s
}

// compact drops blank entries and returns nil for an empty result.
func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if !isBlank(s) {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
