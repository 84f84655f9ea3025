// Package types defines the companion bridge data model shared by the phone
// and watch sides.
//
//nolint:revive // types is a common Go package naming convention
package types

// Companion bridge wire paths.
const (
	// PathRequest carries request envelopes (client -> dispatcher).
	PathRequest = "/simpmusic/watch/companion/request"
	// PathResponse carries response envelopes (dispatcher -> response listener).
	PathResponse = "/simpmusic/watch/companion/response"
)

// Legacy login hand-off paths. These never reach the companion dispatcher.
const (
	// PathLoginOpen asks the phone to prompt for sign-in. No payload.
	PathLoginOpen = "/simpmusic/login/open"
	// PathLoginSync asks the phone to push its existing session. No payload.
	PathLoginSync = "/simpmusic/login/sync"
	// PathLoginCookie carries a raw UTF-8 cookie string.
	PathLoginCookie = "/simpmusic/login/cookie"
	// PathLoginStatus carries a "status|message" string.
	PathLoginStatus = "/simpmusic/login/status"
)

// IsBridgePath reports whether path is one of the two companion bridge paths.
func IsBridgePath(path string) bool {
	return path == PathRequest || path == PathResponse
}

// ActionKind is the envelope action discriminator.
type ActionKind string

// Action kinds. The set is closed; each kind maps to one handler and one
// payload shape.
const (
	ActionStatus       ActionKind = "status"
	ActionSyncSession  ActionKind = "sync_session"
	ActionSyncSong     ActionKind = "sync_song"
	ActionSyncPlaylist ActionKind = "sync_playlist"
	ActionSyncAlbum    ActionKind = "sync_album"
	ActionSyncArtist   ActionKind = "sync_artist"
	ActionSyncPodcast  ActionKind = "sync_podcast"
	ActionSyncDownload ActionKind = "sync_download"
	ActionRemote       ActionKind = "remote"
)

var knownActions = map[ActionKind]bool{
	ActionStatus:       true,
	ActionSyncSession:  true,
	ActionSyncSong:     true,
	ActionSyncPlaylist: true,
	ActionSyncAlbum:    true,
	ActionSyncArtist:   true,
	ActionSyncPodcast:  true,
	ActionSyncDownload: true,
	ActionRemote:       true,
}

// IsKnown returns true if the action is in the closed set.
func (a ActionKind) IsKnown() bool {
	return knownActions[a]
}

// RemoteCommand is the command field of a remote payload.
type RemoteCommand string

// Remote commands.
const (
	RemotePlayPause   RemoteCommand = "play_pause"
	RemoteNext        RemoteCommand = "next"
	RemotePrevious    RemoteCommand = "previous"
	RemoteVolumeUp    RemoteCommand = "volume_up"
	RemoteVolumeDown  RemoteCommand = "volume_down"
	RemoteHandoff     RemoteCommand = "handoff_queue"
	RemoteHandoffHome RemoteCommand = "handoff_queue_to_phone"
)

// IsHandoff returns true for either queue handoff direction.
func (c RemoteCommand) IsHandoff() bool {
	return c == RemoteHandoff || c == RemoteHandoffHome
}

// Role identifies which side of the bridge a process plays.
type Role string

// Roles.
const (
	RolePhone Role = "phone"
	RoleWatch Role = "watch"
)

// ParseRole parses a role string. Returns false for unknown roles.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RolePhone, RoleWatch:
		return Role(s), true
	default:
		return "", false
	}
}

// Peer returns the opposite role.
func (r Role) Peer() Role {
	if r == RolePhone {
		return RoleWatch
	}
	return RolePhone
}

// AcceptsHandoff reports whether a dispatcher in this role may apply the
// given handoff command. Each direction is legal on exactly one side.
func (r Role) AcceptsHandoff(c RemoteCommand) bool {
	switch c {
	case RemoteHandoff:
		return r == RoleWatch
	case RemoteHandoffHome:
		return r == RolePhone
	default:
		return false
	}
}

// Category names a synchronizable data kind.
type Category string

// Categories. Session is the quasi-category for account and token sync.
const (
	CategorySession   Category = "session"
	CategorySongs     Category = "songs"
	CategoryPlaylists Category = "playlists"
	CategoryAlbums    Category = "albums"
	CategoryArtists   Category = "artists"
	CategoryPodcasts  Category = "podcasts"
	CategoryDownloads Category = "downloads"
)

// AllCategories lists every category in auto-sync run order.
var AllCategories = []Category{
	CategorySession,
	CategorySongs,
	CategoryPlaylists,
	CategoryAlbums,
	CategoryArtists,
	CategoryPodcasts,
	CategoryDownloads,
}

// SyncCategories lists the user-selectable categories.
var SyncCategories = []Category{
	CategorySongs,
	CategoryPlaylists,
	CategoryAlbums,
	CategoryArtists,
	CategoryPodcasts,
	CategoryDownloads,
}

// ActionForCategory returns the sync action for a category.
func ActionForCategory(c Category) ActionKind {
	switch c {
	case CategorySession:
		return ActionSyncSession
	case CategorySongs:
		return ActionSyncSong
	case CategoryPlaylists:
		return ActionSyncPlaylist
	case CategoryAlbums:
		return ActionSyncAlbum
	case CategoryArtists:
		return ActionSyncArtist
	case CategoryPodcasts:
		return ActionSyncPodcast
	case CategoryDownloads:
		return ActionSyncDownload
	default:
		return ""
	}
}
