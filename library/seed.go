package library

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/wearlink/types"
)

// Seed is the YAML shape of a library fixture.
type Seed struct {
	Session        Session                  `yaml:"session"`
	Songs          []Song                   `yaml:"songs"`
	Playlists      []Playlist               `yaml:"playlists"`
	Albums         []Album                  `yaml:"albums"`
	Artists        []Artist                 `yaml:"artists"`
	Podcasts       []Podcast                `yaml:"podcasts"`
	LocalPlaylists []types.LocalPlaylistRef `yaml:"local_playlists"`
}

// LoadSeed reads a YAML seed file into a new Memory library.
func LoadSeed(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read library seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed bytes into a new Memory library.
func ParseSeed(data []byte) (*Memory, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse library seed: %w", err)
	}
	m := NewMemory()
	if err := seed.Apply(context.Background(), m); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply writes the seed into m.
func (s Seed) Apply(ctx context.Context, m *Memory) error {
	m.SetSession(s.Session)
	for i, song := range s.Songs {
		if song.VideoID == "" {
			return fmt.Errorf("seed song %d: video_id is required", i)
		}
		_ = m.SongRepo().Upsert(ctx, song)
	}
	for i, p := range s.Playlists {
		if p.ID == "" {
			return fmt.Errorf("seed playlist %d: id is required", i)
		}
		_ = m.PlaylistRepo().Upsert(ctx, p)
	}
	for i, a := range s.Albums {
		if a.BrowseID == "" {
			return fmt.Errorf("seed album %d: browse_id is required", i)
		}
		_ = m.AlbumRepo().Upsert(ctx, a)
	}
	for i, a := range s.Artists {
		if a.ChannelID == "" {
			return fmt.Errorf("seed artist %d: channel_id is required", i)
		}
		_ = m.ArtistRepo().Upsert(ctx, a)
	}
	for i, p := range s.Podcasts {
		if p.PodcastID == "" {
			return fmt.Errorf("seed podcast %d: podcast_id is required", i)
		}
		_ = m.PodcastRepo().Upsert(ctx, p)
	}
	for _, lp := range s.LocalPlaylists {
		m.UpsertLocalPlaylist(lp)
	}
	return nil
}
