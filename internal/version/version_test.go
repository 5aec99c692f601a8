package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir stands in for t.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadReadsVersionFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "version.json"), []byte(`{"version":"2.3.4"}`), 0o644))
	chdir(t, dir)

	assert.Equal(t, "2.3.4", Load().Version)
}

func TestLoadFallsBackWhenMissing(t *testing.T) {
	chdir(t, t.TempDir())

	assert.Equal(t, fallback, Load().Version)
}

func TestLoadFallsBackOnBadJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "version.json"), []byte("{not json"), 0o644))
	chdir(t, dir)

	assert.Equal(t, fallback, Load().Version)
}
