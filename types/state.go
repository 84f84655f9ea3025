package types

// CategorySyncResult summarizes one category in one auto-sync run.
// The zero value means the category was skipped because its signature was
// unchanged.
type CategorySyncResult struct {
	Attempted int  `json:"attempted" yaml:"attempted"`
	Sent      int  `json:"sent" yaml:"sent"`
	Changed   bool `json:"changed" yaml:"changed"`
}

// ActionState is the sender-side tracking model exposed to the UI.
type ActionState struct {
	InProgress     bool   `json:"inProgress" yaml:"in_progress"`
	ActiveAction   string `json:"activeAction" yaml:"active_action"`
	LastSuccess    string `json:"lastSuccess" yaml:"last_success"`
	LastFailure    string `json:"lastFailure" yaml:"last_failure"`
	RetryAvailable bool   `json:"retryAvailable" yaml:"retry_available"`
}

// AutoSyncPolicy holds the persisted auto-sync gate flags.
type AutoSyncPolicy struct {
	BatterySaver  bool `json:"batterySaver" yaml:"battery_saver"`
	UnmeteredOnly bool `json:"unmeteredOnly" yaml:"unmetered_only"`
}

// AutoSyncStatus is the status of an auto-sync run.
type AutoSyncStatus string

// Auto-sync statuses.
const (
	// AutoSyncSkipped means a policy gate refused the run.
	AutoSyncSkipped AutoSyncStatus = "skipped"
	// AutoSyncNoop means nothing changed, nothing was attempted.
	AutoSyncNoop AutoSyncStatus = "noop"
	// AutoSyncSuccess means every attempted payload was accepted.
	AutoSyncSuccess AutoSyncStatus = "success"
	// AutoSyncPartial means some but not all payloads were accepted.
	AutoSyncPartial AutoSyncStatus = "partial"
	// AutoSyncRetry means no payload was accepted.
	AutoSyncRetry AutoSyncStatus = "retry"
)

// AutoSyncStats is the persisted snapshot of the most recent auto-sync run.
type AutoSyncStats struct {
	// Timestamp is the run completion time in epoch milliseconds.
	Timestamp         int64                           `json:"timestamp" yaml:"timestamp"`
	Status            AutoSyncStatus                  `json:"status" yaml:"status"`
	Reason            string                          `json:"reason" yaml:"reason"`
	Attempted         int                             `json:"attempted" yaml:"attempted"`
	Sent              int                             `json:"sent" yaml:"sent"`
	ChangedCategories int                             `json:"changedCategories" yaml:"changed_categories"`
	Categories        map[Category]CategorySyncResult `json:"categories" yaml:"categories"`
}

// ConnectionState describes the sender's view of connected peers.
type ConnectionState struct {
	Connected bool     `json:"connected" yaml:"connected"`
	NodeNames []string `json:"nodeNames" yaml:"node_names"`
}

// SyncSelection toggles categories for a selective sync.
type SyncSelection struct {
	Songs     bool `json:"songs" yaml:"songs"`
	Playlists bool `json:"playlists" yaml:"playlists"`
	Albums    bool `json:"albums" yaml:"albums"`
	Artists   bool `json:"artists" yaml:"artists"`
	Podcasts  bool `json:"podcasts" yaml:"podcasts"`
	Downloads bool `json:"downloads" yaml:"downloads"`
}

// DefaultSyncSelection enables every category.
func DefaultSyncSelection() SyncSelection {
	return SyncSelection{
		Songs:     true,
		Playlists: true,
		Albums:    true,
		Artists:   true,
		Podcasts:  true,
		Downloads: true,
	}
}

// Enabled reports whether the category is selected.
func (s SyncSelection) Enabled(c Category) bool {
	switch c {
	case CategorySongs:
		return s.Songs
	case CategoryPlaylists:
		return s.Playlists
	case CategoryAlbums:
		return s.Albums
	case CategoryArtists:
		return s.Artists
	case CategoryPodcasts:
		return s.Podcasts
	case CategoryDownloads:
		return s.Downloads
	default:
		return false
	}
}

// With returns a copy with the category toggled to enabled.
func (s SyncSelection) With(c Category, enabled bool) SyncSelection {
	switch c {
	case CategorySongs:
		s.Songs = enabled
	case CategoryPlaylists:
		s.Playlists = enabled
	case CategoryAlbums:
		s.Albums = enabled
	case CategoryArtists:
		s.Artists = enabled
	case CategoryPodcasts:
		s.Podcasts = enabled
	case CategoryDownloads:
		s.Downloads = enabled
	}
	return s
}
