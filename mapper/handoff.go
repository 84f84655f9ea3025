package mapper

import (
	"encoding/json"
	"strings"

	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/types"
)

// handoffTrackWire is the loose shape of one handoff track. Each nested
// element is decoded on its own so a bad entry drops alone.
type handoffTrackWire struct {
	Title           string            `json:"title"`
	VideoID         string            `json:"videoId"`
	Duration        *string           `json:"duration"`
	DurationSeconds *int              `json:"durationSeconds"`
	IsAvailable     *bool             `json:"isAvailable"`
	IsExplicit      bool              `json:"isExplicit"`
	LikeStatus      *string           `json:"likeStatus"`
	VideoType       *string           `json:"videoType"`
	Category        *string           `json:"category"`
	ResultType      *string           `json:"resultType"`
	Year            *string           `json:"year"`
	Artists         []json.RawMessage `json:"artists"`
	Thumbnails      []json.RawMessage `json:"thumbnails"`
	Album           json.RawMessage   `json:"album"`
}

// ParseHandoffTracks decodes the tracks string of a handoff payload.
//
// Malformed JSON yields an empty queue. Tracks without a title or video id
// are skipped, as are artists without a name and thumbnails without a url.
// An album without both id and name is dropped from its track.
func ParseHandoffTracks(tracksJSON string) []types.HandoffTrack {
	if isBlank(tracksJSON) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(tracksJSON), &items); err != nil {
		return nil
	}

	tracks := make([]types.HandoffTrack, 0, len(items))
	for _, item := range items {
		var w handoffTrackWire
		if err := json.Unmarshal(item, &w); err != nil {
			continue
		}
		if isBlank(w.Title) || isBlank(w.VideoID) {
			continue
		}

		track := types.HandoffTrack{
			Title:           w.Title,
			VideoID:         w.VideoID,
			Duration:        optionalPtr(w.Duration),
			DurationSeconds: w.DurationSeconds,
			IsAvailable:     w.IsAvailable == nil || *w.IsAvailable,
			IsExplicit:      w.IsExplicit,
			LikeStatus:      optionalPtr(w.LikeStatus),
			VideoType:       optionalPtr(w.VideoType),
			Category:        optionalPtr(w.Category),
			ResultType:      optionalPtr(w.ResultType),
			Year:            optionalPtr(w.Year),
		}

		for _, raw := range w.Artists {
			var a types.TrackArtist
			if err := json.Unmarshal(raw, &a); err != nil || isBlank(a.Name) {
				continue
			}
			a.ID = optionalPtr(a.ID)
			track.Artists = append(track.Artists, a)
		}
		for _, raw := range w.Thumbnails {
			var th types.TrackThumbnail
			if err := json.Unmarshal(raw, &th); err != nil || isBlank(th.URL) {
				continue
			}
			track.Thumbnails = append(track.Thumbnails, th)
		}
		if len(w.Album) > 0 {
			var album types.TrackAlbum
			if err := json.Unmarshal(w.Album, &album); err == nil &&
				!isBlank(album.ID) && !isBlank(album.Name) {
				track.Album = &album
			}
		}

		tracks = append(tracks, track)
	}
	return tracks
}

// EncodeHandoffTracks encodes tracks as the string carried in a handoff
// payload. An empty queue encodes as "[]".
func EncodeHandoffTracks(tracks []types.HandoffTrack) (string, error) {
	if tracks == nil {
		tracks = []types.HandoffTrack{}
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ClampIndex clamps index into [0, n-1]. Returns 0 when n is not positive.
func ClampIndex(index, n int) int {
	if n <= 0 || index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}

func optionalPtr(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// SongToHandoffTrack builds a queue track from a stored song.
func SongToHandoffTrack(s library.Song) types.HandoffTrack {
	t := types.HandoffTrack{
		Title:       s.Title,
		VideoID:     s.VideoID,
		IsAvailable: s.IsAvailable,
		IsExplicit:  s.IsExplicit,
		Duration:    stringPtr(s.Duration),
		LikeStatus:  stringPtr(s.LikeStatus),
		VideoType:   stringPtr(s.VideoType),
		Category:    stringPtr(s.Category),
		ResultType:  stringPtr(s.ResultType),
	}
	if s.DurationSeconds > 0 {
		d := s.DurationSeconds
		t.DurationSeconds = &d
	}
	for i, name := range s.ArtistName {
		if isBlank(name) {
			continue
		}
		artist := types.TrackArtist{Name: name}
		if i < len(s.ArtistID) {
			artist.ID = stringPtr(s.ArtistID[i])
		}
		t.Artists = append(t.Artists, artist)
	}
	if !isBlank(s.AlbumID) || !isBlank(s.AlbumName) {
		t.Album = &types.TrackAlbum{ID: s.AlbumID, Name: s.AlbumName}
	}
	return t
}

func stringPtr(s string) *string {
	if isBlank(s) {
		return nil
	}
	return &s
}
