package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "base", "nested"), 0o755))
	for _, name := range []string{"background1.png", "b.JPG", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, "base", name), []byte(name), 0o644))
	}
	return NewStore(root)
}

func TestStore_Load(t *testing.T) {
	t.Parallel()

	s := newStore(t)

	got, err := s.Load("base", "background1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("background1.png"), got)

	// 默认值
	got, err = s.Load("", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("background1.png"), got)
}

func TestStore_LoadNotFound(t *testing.T) {
	t.Parallel()

	_, err := newStore(t).Load("premium", "background9.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssetNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Path, filepath.Join("premium", "background9.png"))
}

func TestStore_RejectsTraversal(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	tests := []struct{ projectType, name string }{
		{"..", "secret.png"},
		{"base", "../../etc/passwd"},
		{"base", `..\win.ini`},
		{"base/nested", "x.png"},
	}
	for _, tt := range tests {
		_, err := s.Load(tt.projectType, tt.name)
		assert.ErrorIs(t, err, ErrInvalidName, "%s/%s", tt.projectType, tt.name)
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	names, err := s.List("base")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.JPG", "background1.png"}, names)

	_, err = s.List("missing")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}
