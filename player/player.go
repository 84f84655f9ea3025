// Package player defines the playback boundary the bridge drives from remote
// commands and queue handoffs.
package player

import (
	"sync"

	"github.com/pithecene-io/wearlink/types"
)

// QueueData describes a queue to install on a player.
type QueueData struct {
	Tracks       []types.HandoffTrack
	PlaylistID   string
	PlaylistName string
	PlaylistType string
}

// Player is the playback surface.
type Player interface {
	PlayPause()
	Next()
	Previous()
	VolumeUp()
	VolumeDown()
	// SetQueue replaces the whole queue.
	SetQueue(q QueueData)
	// Load starts playback of the queue entry at index.
	Load(index int)
	// Queue returns the current queue tracks.
	Queue() []types.HandoffTrack
	// NowPlaying returns the current track, if any.
	NowPlaying() (types.HandoffTrack, bool)
	// CurrentIndex returns the index of the current track, or -1.
	CurrentIndex() int
	// QueueInfo returns the playlist metadata of the current queue.
	QueueInfo() QueueData
}

// Event names recorded by Memory.
const (
	EventPlayPause  = "play_pause"
	EventNext       = "next"
	EventPrevious   = "previous"
	EventVolumeUp   = "volume_up"
	EventVolumeDown = "volume_down"
	EventSetQueue   = "set_queue"
	EventLoad       = "load"
)

// Memory is an in-process player that keeps queue state and records every
// call it receives.
type Memory struct {
	mu      sync.Mutex
	queue   QueueData
	index   int
	playing bool
	volume  int
	events  []string
}

// NewMemory creates an empty player at volume 50.
func NewMemory() *Memory {
	return &Memory{index: -1, volume: 50}
}

// PlayPause toggles playback.
func (m *Memory) PlayPause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = !m.playing
	m.record(EventPlayPause)
}

// Next advances to the next track when there is one.
func (m *Memory) Next() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index+1 < len(m.queue.Tracks) {
		m.index++
	}
	m.record(EventNext)
}

// Previous steps back to the previous track when there is one.
func (m *Memory) Previous() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index > 0 {
		m.index--
	}
	m.record(EventPrevious)
}

// VolumeUp raises the volume by 10, capped at 100.
func (m *Memory) VolumeUp() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = min(m.volume+10, 100)
	m.record(EventVolumeUp)
}

// VolumeDown lowers the volume by 10, floored at 0.
func (m *Memory) VolumeDown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = max(m.volume-10, 0)
	m.record(EventVolumeDown)
}

// SetQueue replaces the queue and resets the position.
func (m *Memory) SetQueue(q QueueData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.Tracks = append([]types.HandoffTrack(nil), q.Tracks...)
	m.queue = q
	m.index = -1
	m.playing = false
	m.record(EventSetQueue)
}

// Load starts playback at index. Out-of-range indexes are ignored.
func (m *Memory) Load(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index >= 0 && index < len(m.queue.Tracks) {
		m.index = index
		m.playing = true
	}
	m.record(EventLoad)
}

// Queue returns a copy of the queue tracks.
func (m *Memory) Queue() []types.HandoffTrack {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.HandoffTrack(nil), m.queue.Tracks...)
}

// QueueInfo returns the queue metadata and a copy of its tracks.
func (m *Memory) QueueInfo() QueueData {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queue
	q.Tracks = append([]types.HandoffTrack(nil), q.Tracks...)
	return q
}

// NowPlaying returns the current track.
func (m *Memory) NowPlaying() (types.HandoffTrack, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index < 0 || m.index >= len(m.queue.Tracks) {
		return types.HandoffTrack{}, false
	}
	return m.queue.Tracks[m.index], true
}

// CurrentIndex returns the current position, or -1.
func (m *Memory) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// Playing reports whether playback is running.
func (m *Memory) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Volume returns the current volume in [0, 100].
func (m *Memory) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Events returns the recorded call history.
func (m *Memory) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func (m *Memory) record(event string) {
	m.events = append(m.events, event)
}
