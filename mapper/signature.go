package mapper

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pithecene-io/wearlink/library"
)

// Signature returns the lowercase hex SHA-256 of text.
func Signature(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SongsSignatureText joins videoId:likeStatus:downloadState per song.
func SongsSignatureText(songs []library.Song) string {
	parts := make([]string, len(songs))
	for i, s := range songs {
		parts[i] = s.VideoID + ":" + s.LikeStatus + ":" + strconv.Itoa(s.DownloadState)
	}
	return strings.Join(parts, "|")
}

// PlaylistsSignatureText joins id:liked:downloadState per playlist.
func PlaylistsSignatureText(playlists []library.Playlist) string {
	parts := make([]string, len(playlists))
	for i, p := range playlists {
		parts[i] = p.ID + ":" + strconv.FormatBool(p.Liked) + ":" + strconv.Itoa(p.DownloadState)
	}
	return strings.Join(parts, "|")
}

// AlbumsSignatureText joins browseId:liked:downloadState per album.
func AlbumsSignatureText(albums []library.Album) string {
	parts := make([]string, len(albums))
	for i, a := range albums {
		parts[i] = a.BrowseID + ":" + strconv.FormatBool(a.Liked) + ":" + strconv.Itoa(a.DownloadState)
	}
	return strings.Join(parts, "|")
}

// ArtistsSignatureText joins channelId:followed per artist.
func ArtistsSignatureText(artists []library.Artist) string {
	parts := make([]string, len(artists))
	for i, a := range artists {
		parts[i] = a.ChannelID + ":" + strconv.FormatBool(a.Followed)
	}
	return strings.Join(parts, "|")
}

// PodcastsSignatureText joins podcastId:isFavorite per podcast.
func PodcastsSignatureText(podcasts []library.Podcast) string {
	parts := make([]string, len(podcasts))
	for i, p := range podcasts {
		parts[i] = p.PodcastID + ":" + strconv.FormatBool(p.IsFavorite)
	}
	return strings.Join(parts, "|")
}

// PayloadSignatureText is the serialized JSON of a payload, used for the
// download snapshot and session categories.
func PayloadSignatureText(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
