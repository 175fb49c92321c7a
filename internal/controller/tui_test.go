package controller

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUI_ShortOutputPrintsDirectly(t *testing.T) {
	cmd, buf := newTestCmd()
	ui := NewTUI(cmd)

	require.NoError(t, ui.DisplayRanking(context.Background(), sampleRanking(), 0))
	assert.Contains(t, buf.String(), "calc.go")
	assert.Contains(t, buf.String(), "util.go")
}

func TestPagerModel_NeedsPagination(t *testing.T) {
	content := strings.Repeat("line\n", 30)

	assert.False(t, newPagerModel("t", content, 80, 0).needsPagination())
	assert.False(t, newPagerModel("t", content, 80, 100).needsPagination())
	assert.True(t, newPagerModel("t", content, 80, 10).needsPagination())
}

func TestPagerModel_Update(t *testing.T) {
	content := strings.Repeat("line\n", 30)
	model := newPagerModel("title", content, 80, 10)

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	pager := updated.(pagerModel)
	assert.Equal(t, 100, pager.viewport.Width)
	assert.Equal(t, 17, pager.viewport.Height)

	updated, _ = pager.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	pager = updated.(pagerModel)
	assert.True(t, pager.viewport.AtBottom())

	updated, _ = pager.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	pager = updated.(pagerModel)
	assert.True(t, pager.viewport.AtTop())

	updated, cmd := pager.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	pager = updated.(pagerModel)
	assert.True(t, pager.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, pager.View())
}

func TestPagerModel_View(t *testing.T) {
	model := newPagerModel("afluent: ranking", "row one\nrow two\n", 80, 10)

	view := model.View()
	assert.Contains(t, view, "afluent: ranking")
	assert.Contains(t, view, "row one")
	assert.Contains(t, view, "quit")
}
