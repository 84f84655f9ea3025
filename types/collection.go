package types

import (
	"errors"
	"fmt"
)

// CollectionKind discriminates a DownloadedCollection.
type CollectionKind string

// Collection kinds.
const (
	CollectionPlaylist      CollectionKind = "playlist"
	CollectionAlbum         CollectionKind = "album"
	CollectionLocalPlaylist CollectionKind = "local_playlist"
	CollectionPodcast       CollectionKind = "podcast"
)

// PlaylistRef identifies a remote playlist and its download state.
type PlaylistRef struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	DownloadState int    `json:"downloadState" yaml:"download_state"`
}

// AlbumRef identifies an album and its download state.
type AlbumRef struct {
	BrowseID      string `json:"browseId" yaml:"browse_id"`
	Title         string `json:"title" yaml:"title"`
	DownloadState int    `json:"downloadState" yaml:"download_state"`
}

// LocalPlaylistRef identifies a device-local playlist.
type LocalPlaylistRef struct {
	ID            int64  `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	DownloadState int    `json:"downloadState" yaml:"download_state"`
}

// PodcastRef identifies a podcast.
type PodcastRef struct {
	PodcastID string `json:"podcastId" yaml:"podcast_id"`
	Title     string `json:"title" yaml:"title"`
}

// DownloadedCollection is one entry in the downloaded-collections list.
// Exactly one variant pointer is set, matching Kind.
type DownloadedCollection struct {
	Kind          CollectionKind    `json:"kind" yaml:"kind"`
	Playlist      *PlaylistRef      `json:"playlist,omitempty" yaml:"playlist,omitempty"`
	Album         *AlbumRef         `json:"album,omitempty" yaml:"album,omitempty"`
	LocalPlaylist *LocalPlaylistRef `json:"localPlaylist,omitempty" yaml:"local_playlist,omitempty"`
	Podcast       *PodcastRef       `json:"podcast,omitempty" yaml:"podcast,omitempty"`
}

// NewPlaylistCollection wraps a playlist.
func NewPlaylistCollection(p PlaylistRef) DownloadedCollection {
	return DownloadedCollection{Kind: CollectionPlaylist, Playlist: &p}
}

// NewAlbumCollection wraps an album.
func NewAlbumCollection(a AlbumRef) DownloadedCollection {
	return DownloadedCollection{Kind: CollectionAlbum, Album: &a}
}

// NewLocalPlaylistCollection wraps a local playlist.
func NewLocalPlaylistCollection(p LocalPlaylistRef) DownloadedCollection {
	return DownloadedCollection{Kind: CollectionLocalPlaylist, LocalPlaylist: &p}
}

// NewPodcastCollection wraps a podcast.
func NewPodcastCollection(p PodcastRef) DownloadedCollection {
	return DownloadedCollection{Kind: CollectionPodcast, Podcast: &p}
}

// ErrInvalidCollection is returned when the discriminant and payload disagree.
var ErrInvalidCollection = errors.New("invalid downloaded collection")

// Validate checks that exactly the variant named by Kind is set.
func (c DownloadedCollection) Validate() error {
	set := 0
	for _, present := range []bool{c.Playlist != nil, c.Album != nil, c.LocalPlaylist != nil, c.Podcast != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %d variants set", ErrInvalidCollection, set)
	}

	var ok bool
	switch c.Kind {
	case CollectionPlaylist:
		ok = c.Playlist != nil
	case CollectionAlbum:
		ok = c.Album != nil
	case CollectionLocalPlaylist:
		ok = c.LocalPlaylist != nil
	case CollectionPodcast:
		ok = c.Podcast != nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidCollection, c.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: kind %q has no payload", ErrInvalidCollection, c.Kind)
	}
	return nil
}

// Key returns a stable identity used to de-duplicate collections.
func (c DownloadedCollection) Key() string {
	switch c.Kind {
	case CollectionPlaylist:
		if c.Playlist != nil {
			return "playlist:" + c.Playlist.ID
		}
	case CollectionAlbum:
		if c.Album != nil {
			return "album:" + c.Album.BrowseID
		}
	case CollectionLocalPlaylist:
		if c.LocalPlaylist != nil {
			return fmt.Sprintf("local_playlist:%d", c.LocalPlaylist.ID)
		}
	case CollectionPodcast:
		if c.Podcast != nil {
			return "podcast:" + c.Podcast.PodcastID
		}
	}
	return string(c.Kind) + ":?"
}
