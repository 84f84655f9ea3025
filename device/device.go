// Package device exposes the host facts the bridge reports and gates on.
package device

import "sync"

// Info identifies the device and app build.
type Info struct {
	Model      string `yaml:"model"`
	SDKInt     int    `yaml:"sdk_int"`
	AppVersion string `yaml:"app_version"`
}

// Power reports charging state.
type Power interface {
	Charging() bool
}

// Network reports whether the active connection is unmetered.
type Network interface {
	Unmetered() bool
}

// Static holds fixed device facts. The power and network flags may be
// changed at runtime.
type Static struct {
	info Info

	mu        sync.RWMutex
	charging  bool
	unmetered bool
}

// NewStatic creates a Static device.
func NewStatic(info Info, charging, unmetered bool) *Static {
	return &Static{info: info, charging: charging, unmetered: unmetered}
}

// Info returns the device identity.
func (s *Static) Info() Info {
	return s.info
}

// Charging implements Power.
func (s *Static) Charging() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.charging
}

// Unmetered implements Network.
func (s *Static) Unmetered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unmetered
}

// SetCharging updates the charging flag.
func (s *Static) SetCharging(charging bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charging = charging
}

// SetUnmetered updates the unmetered flag.
func (s *Static) SetUnmetered(unmetered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unmetered = unmetered
}
