// Package catalog turns the local library into per-category request batches.
//
// Selective sync and auto-sync read the same categories with the same item
// cap and send the same payloads; they differ only in request id policy and
// in whether the category signature gates the send.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/pithecene-io/wearlink/ipc"
	"github.com/pithecene-io/wearlink/library"
	"github.com/pithecene-io/wearlink/mapper"
	"github.com/pithecene-io/wearlink/metrics"
	"github.com/pithecene-io/wearlink/transport"
	"github.com/pithecene-io/wearlink/types"
)

// DefaultMaxItems caps the items read per per-item category.
const DefaultMaxItems = 120

// Batch is one category ready to send.
type Batch struct {
	Category types.Category
	Action   types.ActionKind
	// Payloads holds one request payload per item. Session and downloads
	// carry exactly one.
	Payloads []any
	// SignatureText is the canonical text hashed into the category signature.
	SignatureText string
}

// Signature returns the category signature.
func (b Batch) Signature() string {
	return mapper.Signature(b.SignatureText)
}

// Len returns the number of payloads.
func (b Batch) Len() int {
	return len(b.Payloads)
}

// Load reads category c from lib, keeping at most maxItems items for the
// per-item categories. maxItems <= 0 uses DefaultMaxItems.
//
// The session category yields no payload when the cookie is blank.
func Load(ctx context.Context, lib library.Library, c types.Category, maxItems int) (Batch, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	switch c {
	case types.CategorySession:
		sess, err := lib.Accounts.Session(ctx)
		if err != nil {
			return Batch{}, fmt.Errorf("read session: %w", err)
		}
		return ForSession(sess)
	case types.CategorySongs:
		songs, err := lib.Songs.Liked(ctx)
		if err != nil {
			return Batch{}, fmt.Errorf("read liked songs: %w", err)
		}
		songs = take(songs, maxItems)
		return Batch{
			Category:      c,
			Action:        types.ActionSyncSong,
			Payloads:      payloads(songs, mapper.SongToPayload),
			SignatureText: mapper.SongsSignatureText(songs),
		}, nil
	case types.CategoryPlaylists:
		playlists, err := lib.Playlists.Liked(ctx)
		if err != nil {
			return Batch{}, fmt.Errorf("read liked playlists: %w", err)
		}
		playlists = take(playlists, maxItems)
		return Batch{
			Category:      c,
			Action:        types.ActionSyncPlaylist,
			Payloads:      payloads(playlists, mapper.PlaylistToPayload),
			SignatureText: mapper.PlaylistsSignatureText(playlists),
		}, nil
	case types.CategoryAlbums:
		albums, err := lib.Albums.Liked(ctx)
		if err != nil {
			return Batch{}, fmt.Errorf("read liked albums: %w", err)
		}
		albums = take(albums, maxItems)
		return Batch{
			Category:      c,
			Action:        types.ActionSyncAlbum,
			Payloads:      payloads(albums, mapper.AlbumToPayload),
			SignatureText: mapper.AlbumsSignatureText(albums),
		}, nil
	case types.CategoryArtists:
		artists, err := lib.Artists.Followed(ctx)
		if err != nil {
			return Batch{}, fmt.Errorf("read followed artists: %w", err)
		}
		artists = take(artists, maxItems)
		return Batch{
			Category:      c,
			Action:        types.ActionSyncArtist,
			Payloads:      payloads(artists, mapper.ArtistToPayload),
			SignatureText: mapper.ArtistsSignatureText(artists),
		}, nil
	case types.CategoryPodcasts:
		podcasts, err := lib.Podcasts.Favorites(ctx)
		if err != nil {
			return Batch{}, fmt.Errorf("read favorite podcasts: %w", err)
		}
		podcasts = take(podcasts, maxItems)
		return Batch{
			Category:      c,
			Action:        types.ActionSyncPodcast,
			Payloads:      payloads(podcasts, mapper.PodcastToPayload),
			SignatureText: mapper.PodcastsSignatureText(podcasts),
		}, nil
	case types.CategoryDownloads:
		return loadDownloads(ctx, lib)
	default:
		return Batch{}, fmt.Errorf("unknown category %q", c)
	}
}

// ForSession builds the session batch. A blank cookie yields an empty batch.
func ForSession(sess library.Session) (Batch, error) {
	b := Batch{Category: types.CategorySession, Action: types.ActionSyncSession}
	if strings.TrimSpace(sess.Cookie) == "" {
		return b, nil
	}
	payload := mapper.SessionToPayload(sess)
	text, err := mapper.PayloadSignatureText(payload)
	if err != nil {
		return Batch{}, fmt.Errorf("encode session payload: %w", err)
	}
	b.Payloads = []any{payload}
	b.SignatureText = text
	return b, nil
}

func loadDownloads(ctx context.Context, lib library.Library) (Batch, error) {
	songs, err := lib.Songs.Downloaded(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("read downloaded songs: %w", err)
	}
	collections, err := lib.Collections.DownloadedCollections(ctx)
	if err != nil {
		return Batch{}, fmt.Errorf("read downloaded collections: %w", err)
	}
	snapshot := mapper.DownloadSnapshotFrom(songs, collections)
	text, err := mapper.PayloadSignatureText(snapshot)
	if err != nil {
		return Batch{}, fmt.Errorf("encode download snapshot: %w", err)
	}
	return Batch{
		Category:      types.CategoryDownloads,
		Action:        types.ActionSyncDownload,
		Payloads:      []any{snapshot},
		SignatureText: text,
	}, nil
}

// Deliver sends every payload of b to peerID and counts the attempts and the
// accepted sends. nextID returns the request id for each payload. A payload
// that fails to encode counts as attempted and not sent.
func Deliver(ctx context.Context, s transport.Sender, peerID string, b Batch, nextID func() string, m *metrics.Collector) (attempted, sent int) {
	for _, payload := range b.Payloads {
		attempted++
		body, err := ipc.EncodeRequest(nextID(), b.Action, payload)
		if err != nil {
			m.IncSendFailure()
			continue
		}
		if s.Send(ctx, peerID, types.PathRequest, body) {
			m.IncRequestSent()
			sent++
		} else {
			m.IncSendFailure()
		}
	}
	return attempted, sent
}

func take[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func payloads[T, P any](items []T, convert func(T) P) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = convert(item)
	}
	return out
}
