package library

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pithecene-io/wearlink/types"
)

// ErrCookieRejected is returned when a cookie cannot be turned into an account.
var ErrCookieRejected = errors.New("library: cookie rejected")

// table is an insertion-ordered map. Upserts keep an existing key's position.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) put(key string, row T) {
	if _, ok := t.rows[key]; !ok {
		t.order = append(t.order, key)
	}
	t.rows[key] = row
}

func (t *table[T]) get(key string) (T, bool) {
	row, ok := t.rows[key]
	return row, ok
}

func (t *table[T]) filter(keep func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, key := range t.order {
		row := t.rows[key]
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func (t *table[T]) update(key string, fn func(*T)) {
	row, ok := t.rows[key]
	if !ok {
		return
	}
	fn(&row)
	t.rows[key] = row
}

// Memory is an in-memory library. Safe for concurrent use.
type Memory struct {
	mu sync.RWMutex

	songs          *table[Song]
	playlists      *table[Playlist]
	albums         *table[Album]
	artists        *table[Artist]
	podcasts       *table[Podcast]
	localPlaylists *table[types.LocalPlaylistRef]
	extra          []types.DownloadedCollection

	session  Session
	accounts map[string]struct{}
	validate func(cookie string) error
}

// NewMemory creates an empty in-memory library.
func NewMemory() *Memory {
	return &Memory{
		songs:          newTable[Song](),
		playlists:      newTable[Playlist](),
		albums:         newTable[Album](),
		artists:        newTable[Artist](),
		podcasts:       newTable[Podcast](),
		localPlaylists: newTable[types.LocalPlaylistRef](),
		accounts:       make(map[string]struct{}),
	}
}

// SetCookieValidator installs a check run by AddAccountFromCookie.
func (m *Memory) SetCookieValidator(validate func(cookie string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validate = validate
}

// SetSession replaces the session state.
func (m *Memory) SetSession(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	if s.LoggedIn && s.Cookie != "" {
		m.accounts[s.Cookie] = struct{}{}
	}
}

// UpsertLocalPlaylist stores a device-local playlist.
func (m *Memory) UpsertLocalPlaylist(p types.LocalPlaylistRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.localPlaylists.put(localKey(p.ID), p)
}

// AddCollection appends a collection that has no backing table (podcasts).
func (m *Memory) AddCollection(c types.DownloadedCollection) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extra = append(m.extra, c)
	return nil
}

// Session returns the current session.
func (m *Memory) Session(_ context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

// AddAccountFromCookie signs in with cookie and records the account.
func (m *Memory) AddAccountFromCookie(_ context.Context, cookie string) error {
	if strings.TrimSpace(cookie) == "" {
		return ErrCookieRejected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validate != nil {
		if err := m.validate(cookie); err != nil {
			return err
		}
	}
	m.accounts[cookie] = struct{}{}
	m.session.Cookie = cookie
	m.session.LoggedIn = true
	return nil
}

// ApplySpotify applies the set fields of update.
func (m *Memory) ApplySpotify(_ context.Context, update SpotifyUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if update.Spdc != nil {
		m.session.Spdc = *update.Spdc
	}
	if update.SpotifyClientToken != nil {
		m.session.SpotifyClientToken = *update.SpotifyClientToken
	}
	if update.SpotifyClientTokenExpires != nil {
		m.session.SpotifyClientTokenExpires = *update.SpotifyClientTokenExpires
	}
	if update.SpotifyPersonalToken != nil {
		m.session.SpotifyPersonalToken = *update.SpotifyPersonalToken
	}
	if update.SpotifyPersonalTokenExpires != nil {
		m.session.SpotifyPersonalTokenExpires = *update.SpotifyPersonalTokenExpires
	}
	m.session.SpotifyLyrics = update.SpotifyLyrics
	m.session.SpotifyCanvas = update.SpotifyCanvas
	return nil
}

// AccountCount returns the number of distinct accounts.
func (m *Memory) AccountCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts), nil
}

// DownloadedCollections lists playlists, albums and local playlists whose
// download is active, followed by explicitly added collections.
func (m *Memory) DownloadedCollections(_ context.Context) ([]types.DownloadedCollection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.DownloadedCollection
	seen := make(map[string]bool)
	add := func(c types.DownloadedCollection) {
		if key := c.Key(); !seen[key] {
			seen[key] = true
			out = append(out, c)
		}
	}
	for _, p := range m.playlists.filter(func(p Playlist) bool { return IsDownloadActive(p.DownloadState) }) {
		add(types.NewPlaylistCollection(types.PlaylistRef{ID: p.ID, Title: p.Title, DownloadState: p.DownloadState}))
	}
	for _, a := range m.albums.filter(func(a Album) bool { return IsDownloadActive(a.DownloadState) }) {
		add(types.NewAlbumCollection(types.AlbumRef{BrowseID: a.BrowseID, Title: a.Title, DownloadState: a.DownloadState}))
	}
	for _, lp := range m.localPlaylists.filter(func(lp types.LocalPlaylistRef) bool { return IsDownloadActive(lp.DownloadState) }) {
		add(types.NewLocalPlaylistCollection(lp))
	}
	for _, c := range m.extra {
		add(c)
	}
	return out, nil
}

// SongRepo returns the song repository view.
func (m *Memory) SongRepo() Songs { return songRepo{m} }

// PlaylistRepo returns the playlist repository view.
func (m *Memory) PlaylistRepo() Playlists { return playlistRepo{m} }

// AlbumRepo returns the album repository view.
func (m *Memory) AlbumRepo() Albums { return albumRepo{m} }

// ArtistRepo returns the artist repository view.
func (m *Memory) ArtistRepo() Artists { return artistRepo{m} }

// PodcastRepo returns the podcast repository view.
func (m *Memory) PodcastRepo() Podcasts { return podcastRepo{m} }

type songRepo struct{ m *Memory }

func (r songRepo) Liked(_ context.Context) ([]Song, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.songs.filter(func(s Song) bool { return s.Liked }), nil
}

func (r songRepo) Downloaded(_ context.Context) ([]Song, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.songs.filter(func(s Song) bool { return IsDownloadActive(s.DownloadState) }), nil
}

func (r songRepo) Get(_ context.Context, videoID string) (Song, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	s, ok := r.m.songs.get(videoID)
	if !ok {
		return Song{}, ErrNotFound
	}
	return s, nil
}

func (r songRepo) Upsert(_ context.Context, song Song) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.songs.put(song.VideoID, song)
	return nil
}

func (r songRepo) UpdateLiked(_ context.Context, videoID string, liked bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.songs.update(videoID, func(s *Song) { s.Liked = liked })
	return nil
}

func (r songRepo) UpdateDownloadState(_ context.Context, videoID string, state int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.songs.update(videoID, func(s *Song) { s.DownloadState = state })
	return nil
}

type playlistRepo struct{ m *Memory }

func (r playlistRepo) Liked(_ context.Context) ([]Playlist, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.playlists.filter(func(p Playlist) bool { return p.Liked }), nil
}

func (r playlistRepo) Downloaded(_ context.Context) ([]Playlist, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.playlists.filter(func(p Playlist) bool { return IsDownloadActive(p.DownloadState) }), nil
}

func (r playlistRepo) Get(_ context.Context, id string) (Playlist, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.playlists.get(id)
	if !ok {
		return Playlist{}, ErrNotFound
	}
	return p, nil
}

func (r playlistRepo) Upsert(_ context.Context, playlist Playlist) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.playlists.put(playlist.ID, playlist)
	return nil
}

func (r playlistRepo) UpdateLiked(_ context.Context, id string, liked bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.playlists.update(id, func(p *Playlist) { p.Liked = liked })
	return nil
}

func (r playlistRepo) UpdateDownloadState(_ context.Context, id string, state int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.playlists.update(id, func(p *Playlist) { p.DownloadState = state })
	return nil
}

type albumRepo struct{ m *Memory }

func (r albumRepo) Liked(_ context.Context) ([]Album, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.albums.filter(func(a Album) bool { return a.Liked }), nil
}

func (r albumRepo) Downloaded(_ context.Context) ([]Album, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.albums.filter(func(a Album) bool { return IsDownloadActive(a.DownloadState) }), nil
}

func (r albumRepo) Get(_ context.Context, browseID string) (Album, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	a, ok := r.m.albums.get(browseID)
	if !ok {
		return Album{}, ErrNotFound
	}
	return a, nil
}

func (r albumRepo) Upsert(_ context.Context, album Album) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.albums.put(album.BrowseID, album)
	return nil
}

func (r albumRepo) UpdateLiked(_ context.Context, browseID string, liked bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.albums.update(browseID, func(a *Album) { a.Liked = liked })
	return nil
}

func (r albumRepo) UpdateDownloadState(_ context.Context, browseID string, state int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.albums.update(browseID, func(a *Album) { a.DownloadState = state })
	return nil
}

type artistRepo struct{ m *Memory }

func (r artistRepo) Followed(_ context.Context) ([]Artist, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.artists.filter(func(a Artist) bool { return a.Followed }), nil
}

func (r artistRepo) Get(_ context.Context, channelID string) (Artist, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	a, ok := r.m.artists.get(channelID)
	if !ok {
		return Artist{}, ErrNotFound
	}
	return a, nil
}

func (r artistRepo) Upsert(_ context.Context, artist Artist) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.artists.put(artist.ChannelID, artist)
	return nil
}

func (r artistRepo) UpdateFollowed(_ context.Context, channelID string, followed bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.artists.update(channelID, func(a *Artist) { a.Followed = followed })
	return nil
}

type podcastRepo struct{ m *Memory }

func (r podcastRepo) Favorites(_ context.Context) ([]Podcast, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.podcasts.filter(func(p Podcast) bool { return p.IsFavorite }), nil
}

func (r podcastRepo) Get(_ context.Context, podcastID string) (Podcast, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.podcasts.get(podcastID)
	if !ok {
		return Podcast{}, ErrNotFound
	}
	return p, nil
}

func (r podcastRepo) Upsert(_ context.Context, podcast Podcast) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.podcasts.put(podcast.PodcastID, podcast)
	return nil
}

func localKey(id int64) string {
	return types.NewLocalPlaylistCollection(types.LocalPlaylistRef{ID: id}).Key()
}

var (
	_ Accounts    = (*Memory)(nil)
	_ Collections = (*Memory)(nil)
)
