package tomlfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-wa-fleet/internal/tomlfile"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string            `toml:"name"`
	Items map[string]string `toml:"items"`
}

func TestReadMissingFile(t *testing.T) {
	var d doc
	found, err := tomlfile.Read(filepath.Join(t.TempDir(), "missing.toml"), &d)
	require.NoError(t, err)
	require.False(t, found)
}

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.toml")
	require.NoError(t, tomlfile.Write(path, doc{Name: "fleet", Items: map[string]string{"A": "b"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(tomlfile.FileMode), info.Mode().Perm())

	var d doc
	found, err := tomlfile.Read(path, &d)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "fleet", d.Name)
	require.Equal(t, "b", d.Items["A"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = ["), 0o600))

	var d doc
	_, err := tomlfile.Read(path, &d)
	require.Error(t, err)
}
