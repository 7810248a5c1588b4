package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileDiscovery:
// - Finds .py files recursively, in lexical order
// - Skips directories matching exclude patterns (test dirs, __pycache__)
// - Ignores non-Python files
// - Rejects invalid glob patterns
// - RelPath is slash-separated relative to the root
// - SkipTree keeps a nested directory out of discovery

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

var defaultExclude = []string{"**/python/test*/**", "**/__pycache__/**"}

func TestFileDiscovery_DiscoverFiles(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	root := filepath.Join(tmp, "oneflow", "python")
	writeTree(t, root, map[string]string{
		"b.py":                     "",
		"a.py":                     "",
		"nn/module.py":             "",
		"nn/README.md":             "",
		"test/modules/test_x.py":   "",
		"nn/__pycache__/module.py": "",
		"ops/kernels.pyc":          "",
	})

	fd, err := NewFileDiscovery(root, defaultExclude)
	require.NoError(t, err)

	files, skipped, err := fd.DiscoverFiles()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.py"),
		filepath.Join(root, "b.py"),
		filepath.Join(root, "nn", "module.py"),
	}, files)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "nn", "__pycache__"),
		filepath.Join(root, "test"),
	}, skipped)
}

func TestFileDiscovery_RelativeRoot(t *testing.T) {
	t.Parallel()

	fd, err := NewFileDiscovery("python", defaultExclude)
	require.NoError(t, err)

	// Test: Leading components match without a parent directory
	assert.True(t, fd.ShouldExclude("python/test/"))
	assert.True(t, fd.ShouldExclude("python/test/x.py"))
	assert.True(t, fd.ShouldExclude("python/tests/"))
	assert.True(t, fd.ShouldExclude("python/test_utils/x.py"))
	assert.False(t, fd.ShouldExclude("python/nn/test/x.py"))
	assert.False(t, fd.ShouldExclude("python/nn/x.py"))
}

func TestFileDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery(".", []string{"[unclosed"})
	assert.Error(t, err)
}

func TestFileDiscovery_RelPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fd, err := NewFileDiscovery(root, nil)
	require.NoError(t, err)

	rel, err := fd.RelPath(filepath.Join(root, "nn", "module.py"))
	require.NoError(t, err)
	assert.Equal(t, "nn/module.py", rel)
}

func TestFileDiscovery_SkipTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"mod.py":                    "",
		"build/oneflow/a.py":        "",
		"build/oneflow/nested/b.py": "",
		"buildtools/helper.py":      "",
	})

	fd, err := NewFileDiscovery(root, nil)
	require.NoError(t, err)
	require.NoError(t, fd.SkipTree(filepath.Join(root, "build")))

	files, skipped, err := fd.DiscoverFiles()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "buildtools", "helper.py"),
		filepath.Join(root, "mod.py"),
	}, files)
	assert.Equal(t, []string{filepath.Join(root, "build")}, skipped)
}
