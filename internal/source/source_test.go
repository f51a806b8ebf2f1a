package source

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groups.txt")

	content := "applyupdates\n" +
		"https://t.me/gradjobs2025\n" +
		"\n" +
		"t.me/campushiring\n" +
		"@offcampusalerts\n"

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	sources, err := LoadList(path, testLogger())
	require.NoError(t, err)

	expected := []Descriptor{
		{Handle: "applyupdates"},
		{Handle: "gradjobs2025"},
		{Handle: "campushiring"},
		{Handle: "offcampusalerts"},
	}
	assert.Equal(t, expected, sources)
}

func TestLoadList_MissingFile(t *testing.T) {
	sources, err := LoadList(filepath.Join(t.TempDir(), "nope.txt"), testLogger())
	assert.NoError(t, err)
	assert.Empty(t, sources)
}

func TestNormalizeHandle(t *testing.T) {
	testCases := []struct {
		entry    string
		expected string
	}{
		{entry: "applyupdates", expected: "applyupdates"},
		{entry: "https://t.me/applyupdates", expected: "applyupdates"},
		{entry: "t.me/applyupdates", expected: "applyupdates"},
		{entry: "@applyupdates", expected: "applyupdates"},
		{entry: "https://t.me/", expected: ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, normalizeHandle(tc.entry), "entry %q", tc.entry)
	}
}
