// Package library defines the repository boundary the bridge uses to read
// and mutate local library data, plus an in-memory implementation.
//
// Upserts replace the whole entity. The narrower Update* calls change one
// field and are no-ops for unknown ids.
package library

import (
	"context"
	"errors"

	"github.com/pithecene-io/wearlink/types"
)

// ErrNotFound is returned by Get lookups for unknown ids.
var ErrNotFound = errors.New("library: not found")

// Songs is the song repository.
type Songs interface {
	// Liked lists liked songs.
	Liked(ctx context.Context) ([]Song, error)
	// Downloaded lists songs that are downloaded or downloading, distinct by id.
	Downloaded(ctx context.Context) ([]Song, error)
	Get(ctx context.Context, videoID string) (Song, error)
	Upsert(ctx context.Context, song Song) error
	UpdateLiked(ctx context.Context, videoID string, liked bool) error
	UpdateDownloadState(ctx context.Context, videoID string, state int) error
}

// Playlists is the playlist repository.
type Playlists interface {
	Liked(ctx context.Context) ([]Playlist, error)
	Downloaded(ctx context.Context) ([]Playlist, error)
	Get(ctx context.Context, id string) (Playlist, error)
	Upsert(ctx context.Context, playlist Playlist) error
	UpdateLiked(ctx context.Context, id string, liked bool) error
	UpdateDownloadState(ctx context.Context, id string, state int) error
}

// Albums is the album repository.
type Albums interface {
	Liked(ctx context.Context) ([]Album, error)
	Downloaded(ctx context.Context) ([]Album, error)
	Get(ctx context.Context, browseID string) (Album, error)
	Upsert(ctx context.Context, album Album) error
	UpdateLiked(ctx context.Context, browseID string, liked bool) error
	UpdateDownloadState(ctx context.Context, browseID string, state int) error
}

// Artists is the artist repository.
type Artists interface {
	Followed(ctx context.Context) ([]Artist, error)
	Get(ctx context.Context, channelID string) (Artist, error)
	Upsert(ctx context.Context, artist Artist) error
	UpdateFollowed(ctx context.Context, channelID string, followed bool) error
}

// Podcasts is the podcast repository.
type Podcasts interface {
	Favorites(ctx context.Context) ([]Podcast, error)
	Get(ctx context.Context, podcastID string) (Podcast, error)
	Upsert(ctx context.Context, podcast Podcast) error
}

// Collections lists downloaded and downloading collections.
type Collections interface {
	DownloadedCollections(ctx context.Context) ([]types.DownloadedCollection, error)
}

// Accounts is the account store.
type Accounts interface {
	// Session returns the current session state.
	Session(ctx context.Context) (Session, error)
	// AddAccountFromCookie signs in with a raw cookie.
	AddAccountFromCookie(ctx context.Context, cookie string) error
	// ApplySpotify applies Spotify token fields.
	ApplySpotify(ctx context.Context, update SpotifyUpdate) error
	// AccountCount returns how many accounts are stored.
	AccountCount(ctx context.Context) (int, error)
}

// Library bundles every repository.
type Library struct {
	Songs       Songs
	Playlists   Playlists
	Albums      Albums
	Artists     Artists
	Podcasts    Podcasts
	Collections Collections
	Accounts    Accounts
}

// FromMemory exposes a Memory through every repository slot.
func FromMemory(m *Memory) Library {
	return Library{
		Songs:       m.SongRepo(),
		Playlists:   m.PlaylistRepo(),
		Albums:      m.AlbumRepo(),
		Artists:     m.ArtistRepo(),
		Podcasts:    m.PodcastRepo(),
		Collections: m,
		Accounts:    m,
	}
}
