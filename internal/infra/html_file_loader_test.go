package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLFileLoader_Snapshots(t *testing.T) {
	dir := t.TempDir()
	loader := NewHTMLFileLoader(dir)

	require.NoError(t, loader.SaveSnapshot("4435", "<html>쏘나타</html>", "<ul>색상</ul>"))
	require.NoError(t, loader.SaveSnapshot("1002", "<html>K5</html>", ""))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memo.txt"), []byte("x"), 0o644))

	paths, err := loader.ListHTMLFilePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "1002.html"), filepath.Join(dir, "4435.html")}, paths)

	snap, err := loader.LoadSnapshot(paths[1])
	require.NoError(t, err)
	assert.Equal(t, PageSnapshot{CarID: "4435", Path: paths[1], HTML: "<html>쏘나타</html>", ColorHTML: "<ul>색상</ul>"}, snap)

	snap, err = loader.LoadSnapshot(paths[0])
	require.NoError(t, err)
	assert.Empty(t, snap.ColorHTML)

	// 外装色が取れなかった再取得では古い外装色HTMLを残さない
	require.NoError(t, loader.SaveSnapshot("4435", "<html>쏘나타</html>", ""))
	assert.NoFileExists(t, filepath.Join(dir, "4435.color.html"))
}

func TestHTMLFileLoader_MissingDir(t *testing.T) {
	loader := NewHTMLFileLoader(filepath.Join(t.TempDir(), "none"))
	_, err := loader.ListHTMLFilePaths()
	assert.Error(t, err)
}
