package types //nolint:revive // types is a valid package name

import (
	"errors"
	"testing"
)

func TestDownloadedCollection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       DownloadedCollection
		wantErr bool
	}{
		{"playlist", NewPlaylistCollection(PlaylistRef{ID: "PL1"}), false},
		{"album", NewAlbumCollection(AlbumRef{BrowseID: "MPRE1"}), false},
		{"local playlist", NewLocalPlaylistCollection(LocalPlaylistRef{ID: 7}), false},
		{"podcast", NewPodcastCollection(PodcastRef{PodcastID: "pod1"}), false},
		{"empty", DownloadedCollection{Kind: CollectionAlbum}, true},
		{"kind mismatch", DownloadedCollection{Kind: CollectionAlbum, Playlist: &PlaylistRef{ID: "x"}}, true},
		{"two variants", DownloadedCollection{
			Kind:     CollectionPlaylist,
			Playlist: &PlaylistRef{ID: "x"},
			Album:    &AlbumRef{BrowseID: "y"},
		}, true},
		{"unknown kind", DownloadedCollection{Kind: "mixtape", Playlist: &PlaylistRef{ID: "x"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCollection) {
				t.Errorf("expected ErrInvalidCollection, got %v", err)
			}
		})
	}
}

func TestDownloadedCollection_Key(t *testing.T) {
	tests := []struct {
		c    DownloadedCollection
		want string
	}{
		{NewPlaylistCollection(PlaylistRef{ID: "PL1"}), "playlist:PL1"},
		{NewAlbumCollection(AlbumRef{BrowseID: "MPRE1"}), "album:MPRE1"},
		{NewLocalPlaylistCollection(LocalPlaylistRef{ID: 42}), "local_playlist:42"},
		{NewPodcastCollection(PodcastRef{PodcastID: "pod1"}), "podcast:pod1"},
		{DownloadedCollection{Kind: CollectionAlbum}, "album:?"},
	}
	for _, tt := range tests {
		if got := tt.c.Key(); got != tt.want {
			t.Errorf("Key() = %q, want %q", got, tt.want)
		}
	}
}
