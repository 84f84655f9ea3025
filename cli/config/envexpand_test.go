package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("WEARLINK_REDIS", "redis://cache:6379/2")
	t.Setenv("WEARLINK_EMPTY", "")
	t.Setenv("WEARLINK_A", "phone")
	t.Setenv("WEARLINK_B", "watch")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set", "url: ${WEARLINK_REDIS}", "url: redis://cache:6379/2"},
		{"unset", "url: ${WEARLINK_UNSET_12345}", "url: "},
		{"default when unset", "url: ${WEARLINK_UNSET_12345:-redis://localhost:6379}", "url: redis://localhost:6379"},
		{"default ignored when set", "url: ${WEARLINK_REDIS:-other}", "url: redis://cache:6379/2"},
		{"default when empty", "role: ${WEARLINK_EMPTY:-watch}", "role: watch"},
		{"multiple", "${WEARLINK_A}:${WEARLINK_B}", "phone:watch"},
		{"no vars", "no variables here", "no variables here"},
		{"bare dollar untouched", "cost: $5 and $HOME", "cost: $5 and $HOME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
