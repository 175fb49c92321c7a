package adapter

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	m "afluent.dev/pkg/afluent/internal/model"
)

// GoFileAdapter encapsulates Go parsing so the tie-break analysis can work
// on ASTs without knowing about the parser configuration.
type GoFileAdapter interface {
	// Parse builds an AST using the provided file set and source bytes.
	Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error)

	// IsGoSource reports whether path names a Go file the analyzers accept.
	IsGoSource(path m.Path) bool
}

// LocalGoFileAdapter provides a concrete GoFileAdapter backed by go/parser.
type LocalGoFileAdapter struct{}

// NewLocalGoFileAdapter constructs a LocalGoFileAdapter.
func NewLocalGoFileAdapter() *LocalGoFileAdapter {
	return &LocalGoFileAdapter{}
}

// Parse builds an AST for the provided filename/source pair.
func (a *LocalGoFileAdapter) Parse(fileSet *token.FileSet, filename string, src []byte) (*ast.File, error) {
	return parser.ParseFile(fileSet, filename, src, parser.SkipObjectResolution)
}

// IsGoSource accepts .go files, test files included.
func (a *LocalGoFileAdapter) IsGoSource(path m.Path) bool {
	return strings.EqualFold(filepath.Ext(string(path)), ".go")
}
