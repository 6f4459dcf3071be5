package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo, ok bool) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, ok }
	t.Cleanup(func() { readBuildInfo = orig })
}

func setInjected(t *testing.T, version, commit, date string) {
	t.Helper()
	v, c, d := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = version, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = v, c, d })
}

func TestGetBuildInfo_Defaults(t *testing.T) {
	stubBuildInfo(t, nil, false)
	setInjected(t, "dev", unknown, unknown)

	info := GetBuildInfo()
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, unknown, info.GitCommit)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Platform)
	assert.Nil(t, info.BuildTime)
}

func TestGetBuildInfo_Injected(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "fromvcs"}}}, true)
	setInjected(t, "v1.2.3", "abc123", "2026-01-13T20:00:00Z")

	info := GetBuildInfo()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "abc123", info.GitCommit)
	require.NotNil(t, info.BuildTime)
	want, _ := time.Parse(time.RFC3339, "2026-01-13T20:00:00Z")
	assert.True(t, info.BuildTime.Equal(want))
}

func TestGetBuildInfo_VCSFallback(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}, true)
	setInjected(t, "dev", unknown, unknown)

	info := GetBuildInfo()
	assert.Equal(t, "v0.4.0", info.Version)
	assert.Equal(t, "deadbeef", info.GitCommit)
	assert.Equal(t, "2026-03-01T10:00:00Z", info.BuildDate)
	assert.True(t, info.Modified)
	assert.NotNil(t, info.BuildTime)
}

func TestGetBuildInfo_DevelMainVersionIgnored(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)
	setInjected(t, "dev", unknown, unknown)

	assert.Equal(t, "dev", GetBuildInfo().Version)
}
