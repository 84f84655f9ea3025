package library

// Download states shared by songs, playlists and albums.
const (
	StateNotDownloaded = 0
	StatePreparing     = 1
	StateDownloading   = 2
	StateDownloaded    = 3
)

// IsDownloadActive reports whether state counts as downloaded or in progress.
func IsDownloadActive(state int) bool {
	return state == StateDownloading || state == StateDownloaded || state == StatePreparing
}

// Song is a locally stored track. Empty optional strings mean unset.
type Song struct {
	VideoID         string   `json:"videoId" yaml:"video_id"`
	Title           string   `json:"title" yaml:"title"`
	AlbumID         string   `json:"albumId,omitempty" yaml:"album_id,omitempty"`
	AlbumName       string   `json:"albumName,omitempty" yaml:"album_name,omitempty"`
	ArtistID        []string `json:"artistId,omitempty" yaml:"artist_id,omitempty"`
	ArtistName      []string `json:"artistName,omitempty" yaml:"artist_name,omitempty"`
	Duration        string   `json:"duration" yaml:"duration"`
	DurationSeconds int      `json:"durationSeconds" yaml:"duration_seconds"`
	IsAvailable     bool     `json:"isAvailable" yaml:"is_available"`
	IsExplicit      bool     `json:"isExplicit" yaml:"is_explicit"`
	LikeStatus      string   `json:"likeStatus" yaml:"like_status"`
	Thumbnails      string   `json:"thumbnails,omitempty" yaml:"thumbnails,omitempty"`
	VideoType       string   `json:"videoType" yaml:"video_type"`
	Category        string   `json:"category,omitempty" yaml:"category,omitempty"`
	ResultType      string   `json:"resultType,omitempty" yaml:"result_type,omitempty"`
	Liked           bool     `json:"liked" yaml:"liked"`
	DownloadState   int      `json:"downloadState" yaml:"download_state"`
}

// Playlist is a locally stored remote playlist.
type Playlist struct {
	ID              string   `json:"id" yaml:"id"`
	Author          string   `json:"author,omitempty" yaml:"author,omitempty"`
	Description     string   `json:"description" yaml:"description"`
	Duration        string   `json:"duration" yaml:"duration"`
	DurationSeconds int      `json:"durationSeconds" yaml:"duration_seconds"`
	Privacy         string   `json:"privacy" yaml:"privacy"`
	Thumbnails      string   `json:"thumbnails" yaml:"thumbnails"`
	Title           string   `json:"title" yaml:"title"`
	TrackCount      int      `json:"trackCount" yaml:"track_count"`
	Tracks          []string `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Year            string   `json:"year,omitempty" yaml:"year,omitempty"`
	Liked           bool     `json:"liked" yaml:"liked"`
	DownloadState   int      `json:"downloadState" yaml:"download_state"`
}

// Album is a locally stored album. ArtistID entries may be nil.
type Album struct {
	BrowseID        string    `json:"browseId" yaml:"browse_id"`
	ArtistID        []*string `json:"artistId,omitempty" yaml:"artist_id,omitempty"`
	ArtistName      []string  `json:"artistName,omitempty" yaml:"artist_name,omitempty"`
	AudioPlaylistID string    `json:"audioPlaylistId" yaml:"audio_playlist_id"`
	Description     string    `json:"description" yaml:"description"`
	Duration        string    `json:"duration,omitempty" yaml:"duration,omitempty"`
	DurationSeconds int       `json:"durationSeconds" yaml:"duration_seconds"`
	Thumbnails      string    `json:"thumbnails,omitempty" yaml:"thumbnails,omitempty"`
	Title           string    `json:"title" yaml:"title"`
	TrackCount      int       `json:"trackCount" yaml:"track_count"`
	Tracks          []string  `json:"tracks,omitempty" yaml:"tracks,omitempty"`
	Type            string    `json:"type" yaml:"type"`
	Year            string    `json:"year,omitempty" yaml:"year,omitempty"`
	Liked           bool      `json:"liked" yaml:"liked"`
	DownloadState   int       `json:"downloadState" yaml:"download_state"`
}

// Artist is a locally stored artist.
type Artist struct {
	ChannelID  string `json:"channelId" yaml:"channel_id"`
	Name       string `json:"name" yaml:"name"`
	Thumbnails string `json:"thumbnails,omitempty" yaml:"thumbnails,omitempty"`
	Followed   bool   `json:"followed" yaml:"followed"`
}

// Podcast is a locally stored podcast.
type Podcast struct {
	PodcastID       string   `json:"podcastId" yaml:"podcast_id"`
	Title           string   `json:"title" yaml:"title"`
	AuthorID        string   `json:"authorId" yaml:"author_id"`
	AuthorName      string   `json:"authorName" yaml:"author_name"`
	AuthorThumbnail string   `json:"authorThumbnail,omitempty" yaml:"author_thumbnail,omitempty"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	Thumbnail       string   `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	IsFavorite      bool     `json:"isFavorite" yaml:"is_favorite"`
	ListEpisodes    []string `json:"listEpisodes" yaml:"list_episodes"`
}

// Session is the local account session and Spotify token state.
type Session struct {
	LoggedIn                    bool   `json:"loggedIn" yaml:"logged_in"`
	Cookie                      string `json:"cookie" yaml:"cookie"`
	Spdc                        string `json:"spdc" yaml:"spdc"`
	SpotifyClientToken          string `json:"spotifyClientToken" yaml:"spotify_client_token"`
	SpotifyClientTokenExpires   int64  `json:"spotifyClientTokenExpires" yaml:"spotify_client_token_expires"`
	SpotifyPersonalToken        string `json:"spotifyPersonalToken" yaml:"spotify_personal_token"`
	SpotifyPersonalTokenExpires int64  `json:"spotifyPersonalTokenExpires" yaml:"spotify_personal_token_expires"`
	SpotifyLyrics               bool   `json:"spotifyLyrics" yaml:"spotify_lyrics"`
	SpotifyCanvas               bool   `json:"spotifyCanvas" yaml:"spotify_canvas"`
}

// SpotifyUpdate carries the Spotify fields to apply after a session sync.
// Nil pointers are left untouched; the two feature flags are always applied.
type SpotifyUpdate struct {
	Spdc                        *string
	SpotifyClientToken          *string
	SpotifyClientTokenExpires   *int64
	SpotifyPersonalToken        *string
	SpotifyPersonalTokenExpires *int64
	SpotifyLyrics               bool
	SpotifyCanvas               bool
}
