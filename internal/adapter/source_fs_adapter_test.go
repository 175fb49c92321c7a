package adapter

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "afluent.dev/pkg/afluent/internal/model"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLocalSourceFSAdapter_Walk(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "main.go"), "package main\n")
	nested := filepath.Join(root, "nested", "child.go")
	writeTestFile(t, nested, "package nested\n")

	tests := []struct {
		name      string
		recursive bool
		wantChild bool
	}{
		{"non recursive skips nested files", false, false},
		{"recursive visits nested files", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited []string

			err := NewLocalSourceFSAdapter().Walk(m.Path(root), tt.recursive, func(path string, _ os.FileInfo, err error) error {
				if err != nil {
					return err
				}

				visited = append(visited, path)

				return nil
			})
			require.NoError(t, err)

			assert.Contains(t, visited, filepath.Join(root, "main.go"))

			if tt.wantChild {
				assert.Contains(t, visited, nested)
			} else {
				assert.NotContains(t, visited, nested)
			}
		})
	}
}

func TestLocalSourceFSAdapter_ReadAndHash(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()
	path := filepath.Join(t.TempDir(), "main.go")
	content := "package main\n"
	writeTestFile(t, path, content)

	data, err := adapter.ReadFile(m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	hash, err := adapter.HashFile(m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(content))), hash)

	_, err = adapter.HashFile(m.Path(filepath.Join(t.TempDir(), "missing.go")))
	require.Error(t, err)
}

func TestLocalSourceFSAdapter_WriteFile(t *testing.T) {
	adapter := NewLocalSourceFSAdapter()
	path := filepath.Join(t.TempDir(), "deep", "dir", "out.json")

	require.NoError(t, adapter.WriteFile(m.Path(path), []byte("{}"), 0o600))

	info, err := adapter.FileInfo(m.Path(path))
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size())
}
