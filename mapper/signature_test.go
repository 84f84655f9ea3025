package mapper

import (
	"testing"

	"github.com/pithecene-io/wearlink/library"
)

func TestSignature(t *testing.T) {
	// sha256("")
	if got := Signature(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("Signature(\"\") = %s", got)
	}
	if Signature("a") == Signature("b") {
		t.Error("distinct inputs must hash differently")
	}
}

func TestSignatureTexts(t *testing.T) {
	songs := []library.Song{
		{VideoID: "v1", LikeStatus: "LIKE", DownloadState: 3},
		{VideoID: "v2", LikeStatus: "INDIFFERENT", DownloadState: 0},
	}
	if got := SongsSignatureText(songs); got != "v1:LIKE:3|v2:INDIFFERENT:0" {
		t.Errorf("songs = %q", got)
	}
	if got := PlaylistsSignatureText([]library.Playlist{{ID: "PL1", Liked: true, DownloadState: 2}}); got != "PL1:true:2" {
		t.Errorf("playlists = %q", got)
	}
	if got := AlbumsSignatureText([]library.Album{{BrowseID: "MP1", DownloadState: 1}}); got != "MP1:false:1" {
		t.Errorf("albums = %q", got)
	}
	if got := ArtistsSignatureText([]library.Artist{{ChannelID: "UC1", Followed: true}, {ChannelID: "UC2"}}); got != "UC1:true|UC2:false" {
		t.Errorf("artists = %q", got)
	}
	if got := PodcastsSignatureText([]library.Podcast{{PodcastID: "p", IsFavorite: true}}); got != "p:true" {
		t.Errorf("podcasts = %q", got)
	}
	if got := SongsSignatureText(nil); got != "" {
		t.Errorf("empty = %q", got)
	}
}

func TestPayloadSignatureText(t *testing.T) {
	got, err := PayloadSignatureText(struct {
		A int `json:"a"`
	}{A: 1})
	if err != nil || got != `{"a":1}` {
		t.Errorf("PayloadSignatureText = %q, %v", got, err)
	}
}

func TestSongsSignatureText_TracksOnlySyncedFields(t *testing.T) {
	base := library.Song{VideoID: "v1", Title: "Song One", LikeStatus: "LIKE", DownloadState: 3, DurationSeconds: 200}
	sig := Signature(SongsSignatureText([]library.Song{base}))

	tests := []struct {
		name    string
		mutate  func(*library.Song)
		changed bool
	}{
		{"title", func(s *library.Song) { s.Title = "Renamed" }, false},
		{"duration", func(s *library.Song) { s.DurationSeconds = 1 }, false},
		{"thumbnails", func(s *library.Song) { s.Thumbnails = "https://img/1" }, false},
		{"like status", func(s *library.Song) { s.LikeStatus = "INDIFFERENT" }, true},
		{"download state", func(s *library.Song) { s.DownloadState = 0 }, true},
		{"video id", func(s *library.Song) { s.VideoID = "v2" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song := base
			tt.mutate(&song)
			got := Signature(SongsSignatureText([]library.Song{song}))
			if (got != sig) != tt.changed {
				t.Errorf("signature changed = %v, want %v", got != sig, tt.changed)
			}
		})
	}
}
