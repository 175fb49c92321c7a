package adapter

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGoFileAdapter_Parse(t *testing.T) {
	adapter := NewLocalGoFileAdapter()
	fset := token.NewFileSet()

	file, err := adapter.Parse(fset, "main.go", []byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "main", file.Name.Name)
	assert.Len(t, file.Decls, 1)

	_, err = adapter.Parse(fset, "broken.go", []byte("package main\nfunc {"))
	require.Error(t, err)
}

func TestLocalGoFileAdapter_IsGoSource(t *testing.T) {
	adapter := NewLocalGoFileAdapter()

	assert.True(t, adapter.IsGoSource("pkg/a.go"))
	assert.True(t, adapter.IsGoSource("pkg/a_test.go"))
	assert.False(t, adapter.IsGoSource("pkg/a.py"))
	assert.False(t, adapter.IsGoSource("go.mod"))
}
