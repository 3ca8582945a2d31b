package version

import (
	"runtime/debug"
	"testing"
)

func TestFromSettings(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "", ""
	fromSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2026-03-01T10:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})

	if Commit != "0123456-dirty" {
		t.Errorf("Commit = %q, want 0123456-dirty", Commit)
	}
	if Version != "dev-20260301" {
		t.Errorf("Version = %q, want dev-20260301", Version)
	}
}

func TestFromSettings_KeepsLdflags(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version, Commit = "v1.0.0", "abc1234"
	fromSettings([]debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}})

	if Version != "v1.0.0" || Commit != "abc1234" {
		t.Errorf("got %s, want ldflags values kept", Full())
	}
}
