package types

// Wire payload shapes. Field names match the JSON the phone and watch exchange.
// Optional string fields travel as "" when unset.

// SongPayload is the payload of a sync_song request.
type SongPayload struct {
	VideoID         string   `json:"videoId"`
	Title           string   `json:"title"`
	AlbumID         string   `json:"albumId"`
	AlbumName       string   `json:"albumName"`
	ArtistID        []string `json:"artistId"`
	ArtistName      []string `json:"artistName"`
	Duration        string   `json:"duration"`
	DurationSeconds int      `json:"durationSeconds"`
	IsAvailable     bool     `json:"isAvailable"`
	IsExplicit      bool     `json:"isExplicit"`
	LikeStatus      string   `json:"likeStatus"`
	Thumbnails      string   `json:"thumbnails"`
	VideoType       string   `json:"videoType"`
	Category        string   `json:"category"`
	ResultType      string   `json:"resultType"`
	Liked           bool     `json:"liked"`
	DownloadState   int      `json:"downloadState"`
}

// PlaylistPayload is the payload of a sync_playlist request.
type PlaylistPayload struct {
	ID              string   `json:"id"`
	Author          string   `json:"author"`
	Description     string   `json:"description"`
	Duration        string   `json:"duration"`
	DurationSeconds int      `json:"durationSeconds"`
	Privacy         string   `json:"privacy"`
	Thumbnails      string   `json:"thumbnails"`
	Title           string   `json:"title"`
	TrackCount      int      `json:"trackCount"`
	Tracks          []string `json:"tracks"`
	Year            string   `json:"year"`
	Liked           bool     `json:"liked"`
	DownloadState   int      `json:"downloadState"`
}

// AlbumPayload is the payload of a sync_album request.
// ArtistID entries may be null on the wire.
type AlbumPayload struct {
	BrowseID        string    `json:"browseId"`
	ArtistID        []*string `json:"artistId"`
	ArtistName      []string  `json:"artistName"`
	AudioPlaylistID string    `json:"audioPlaylistId"`
	Description     string    `json:"description"`
	Duration        string    `json:"duration"`
	DurationSeconds int       `json:"durationSeconds"`
	Thumbnails      string    `json:"thumbnails"`
	Title           string    `json:"title"`
	TrackCount      int       `json:"trackCount"`
	Tracks          []string  `json:"tracks"`
	Type            string    `json:"type"`
	Year            string    `json:"year"`
	Liked           bool      `json:"liked"`
	DownloadState   int       `json:"downloadState"`
}

// ArtistPayload is the payload of a sync_artist request.
type ArtistPayload struct {
	ChannelID  string `json:"channelId"`
	Name       string `json:"name"`
	Thumbnails string `json:"thumbnails"`
	Followed   bool   `json:"followed"`
}

// PodcastPayload is the payload of a sync_podcast request.
type PodcastPayload struct {
	PodcastID       string   `json:"podcastId"`
	Title           string   `json:"title"`
	AuthorID        string   `json:"authorId"`
	AuthorName      string   `json:"authorName"`
	AuthorThumbnail string   `json:"authorThumbnail"`
	Description     string   `json:"description"`
	Thumbnail       string   `json:"thumbnail"`
	IsFavorite      bool     `json:"isFavorite"`
	ListEpisodes    []string `json:"listEpisodes"`
}

// SongDownloadState is one song entry of a download snapshot.
type SongDownloadState struct {
	VideoID       string `json:"videoId"`
	DownloadState int    `json:"downloadState"`
}

// PlaylistDownloadState is one playlist entry of a download snapshot.
type PlaylistDownloadState struct {
	ID            string `json:"id"`
	DownloadState int    `json:"downloadState"`
}

// AlbumDownloadState is one album entry of a download snapshot.
type AlbumDownloadState struct {
	BrowseID      string `json:"browseId"`
	DownloadState int    `json:"downloadState"`
}

// DownloadSnapshot is the aggregated payload of a sync_download request.
type DownloadSnapshot struct {
	Songs     []SongDownloadState     `json:"songs"`
	Playlists []PlaylistDownloadState `json:"playlists"`
	Albums    []AlbumDownloadState    `json:"albums"`
}

// SessionPayload is the payload of a sync_session request.
type SessionPayload struct {
	Cookie                      string `json:"cookie"`
	Spdc                        string `json:"spdc"`
	SpotifyClientToken          string `json:"spotifyClientToken"`
	SpotifyClientTokenExpires   int64  `json:"spotifyClientTokenExpires"`
	SpotifyPersonalToken        string `json:"spotifyPersonalToken"`
	SpotifyPersonalTokenExpires int64  `json:"spotifyPersonalTokenExpires"`
	SpotifyLyrics               bool   `json:"spotifyLyrics"`
	SpotifyCanvas               bool   `json:"spotifyCanvas"`
}

// RemotePayload is the payload of a remote request.
// The handoff fields are only set for handoff commands.
type RemotePayload struct {
	Command RemoteCommand `json:"command"`
	// Tracks is a JSON array of HandoffTrack, encoded as a string.
	Tracks       string `json:"tracks,omitempty"`
	Index        int    `json:"index,omitempty"`
	PlaylistID   string `json:"playlistId,omitempty"`
	PlaylistName string `json:"playlistName,omitempty"`
	PlaylistType string `json:"playlistType,omitempty"`
}

// HandoffTrack is one track of a handed-off queue.
type HandoffTrack struct {
	Title           string           `json:"title"`
	VideoID         string           `json:"videoId"`
	Duration        *string          `json:"duration,omitempty"`
	DurationSeconds *int             `json:"durationSeconds,omitempty"`
	IsAvailable     bool             `json:"isAvailable"`
	IsExplicit      bool             `json:"isExplicit"`
	LikeStatus      *string          `json:"likeStatus,omitempty"`
	VideoType       *string          `json:"videoType,omitempty"`
	Category        *string          `json:"category,omitempty"`
	ResultType      *string          `json:"resultType,omitempty"`
	Year            *string          `json:"year,omitempty"`
	Artists         []TrackArtist    `json:"artists,omitempty"`
	Thumbnails      []TrackThumbnail `json:"thumbnails,omitempty"`
	Album           *TrackAlbum      `json:"album,omitempty"`
}

// TrackArtist is an artist credit on a handed-off track.
type TrackArtist struct {
	ID   *string `json:"id,omitempty"`
	Name string  `json:"name"`
}

// TrackThumbnail is a thumbnail of a handed-off track.
type TrackThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TrackAlbum is the album of a handed-off track.
type TrackAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
