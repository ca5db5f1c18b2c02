package version

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionFromLdflags(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", GetVersion())
	assert.True(t, IsRelease())
}

func TestGetShortVersion(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "v1.0.0"
	GitCommit = "abcdef1234567"
	assert.Equal(t, "v1.0.0 (abcdef1)", GetShortVersion())
}

func TestGetDetailedVersion(t *testing.T) {
	origVersion, origTime := Version, BuildTime
	defer func() { Version, BuildTime = origVersion, origTime }()

	Version = "v0.1.0"
	BuildTime = "2024-05-01T10:00:00Z"

	out := GetDetailedVersion()
	assert.True(t, strings.HasPrefix(out, "Version: v0.1.0"))
	assert.Contains(t, out, "Built: 2024-05-01T10:00:00Z")
	assert.Contains(t, out, "Go: ")
}

func TestParseISOTime(t *testing.T) {
	tests := []struct {
		in   string
		zero bool
	}{
		{"2024-05-01T10:00:00Z", false},
		{"2024-05-01T10:00:00", false},
		{"2024-05-01 10:00:00", false},
		{"unknown", true},
		{"", true},
		{"yesterday", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.zero, parseISOTime(tt.in).IsZero())
		})
	}
	assert.Equal(t, 2024, parseISOTime("2024-05-01T10:00:00Z").Year())
	assert.Equal(t, time.May, parseISOTime("2024-05-01T10:00:00Z").Month())
}

func TestToolchainKnownNames(t *testing.T) {
	for name := range Toolchain() {
		assert.Contains(t, []string{"esbuild", "goja", "bluemonday"}, name)
	}
}
