package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/linsim/internal/experiment"
	"github.com/san-kum/linsim/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPanel(t *testing.T, name string) *Panel {
	t.Helper()
	s, err := experiment.NewRegistry().Get(name)
	require.NoError(t, err)
	p := NewPanel(s, Options{TFinal: 2, Seed: 1})
	t.Cleanup(p.Close)
	return p
}

// drain runs cmd and feeds its message back until no command is left.
func drain(t *testing.T, p *Panel, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		require.Less(t, i, 10, "panel kept re-simulating")
		_, cmd = p.Update(cmd())
	}
}

func key(p *Panel, k tea.KeyType) tea.Cmd {
	_, cmd := p.Update(tea.KeyMsg{Type: k})
	return cmd
}

func TestInitSimulatesDefaults(t *testing.T) {
	p := newPanel(t, "ice_block")
	drain(t, p, p.Init())

	require.NoError(t, p.err)
	require.NotNil(t, p.result)
	assert.Equal(t, 1, p.runs)
	assert.Contains(t, p.View(), "Ice block wheeeee")
}

func TestPreviewDoesNotResimulate(t *testing.T) {
	p := newPanel(t, "friction")
	drain(t, p, p.Init())

	var changes []params.Change
	p.Bus().Subscribe("beta", func(c params.Change) { changes = append(changes, c) }, true)

	cmd := key(p, tea.KeyRight)
	assert.Nil(t, cmd, "a preview must not start a run")
	assert.Equal(t, 1, p.runs)

	v, _ := p.Bus().Get("beta")
	assert.InDelta(t, 0.6, v, 1e-9)
	assert.InDelta(t, 0.5, p.committedSnapshot()["beta"], 1e-9)
	assert.Contains(t, p.View(), "(enter)")

	require.Len(t, changes, 1)
	assert.True(t, changes[0].Previewing)
	assert.Equal(t, "tui", changes[0].Source)
}

func TestCommitResimulates(t *testing.T) {
	p := newPanel(t, "friction")
	drain(t, p, p.Init())
	before := p.result.Final.Vel()

	key(p, tea.KeyRight)
	key(p, tea.KeyRight)
	cmd := key(p, tea.KeyEnter)
	require.NotNil(t, cmd)
	drain(t, p, cmd)

	assert.Equal(t, 2, p.runs)
	assert.InDelta(t, 0.7, p.committed["beta"], 1e-9)
	assert.Less(t, p.result.Final.Vel(), before, "more damping slows the block sooner")
	assert.True(t, p.result.Force.Hidden)
	assert.NotContains(t, p.View(), "(enter)")
}

func TestSliderClamps(t *testing.T) {
	p := newPanel(t, "friction")
	for i := 0; i < 20; i++ {
		key(p, tea.KeyLeft)
	}
	v, _ := p.Bus().Get("beta")
	assert.Equal(t, 0.0, v)
}

func TestCursorAndStaleResults(t *testing.T) {
	p := newPanel(t, "all_things")
	init := p.Init()

	key(p, tea.KeyDown)
	key(p, tea.KeyDown)
	assert.Equal(t, 2, p.cursor)
	for i := 0; i < 5; i++ {
		key(p, tea.KeyDown)
	}
	assert.Equal(t, 3, p.cursor)

	p.runs++
	_, cmd := p.Update(init())
	assert.Nil(t, cmd)
	assert.Nil(t, p.result, "results of superseded runs are dropped")
}

func TestThemeAndQuit(t *testing.T) {
	p := newPanel(t, "springy")
	first := p.styles.Theme.Name

	_, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	assert.NotEqual(t, first, p.styles.Theme.Name)

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.True(t, strings.Contains(p.View(), "q quit"))
}
