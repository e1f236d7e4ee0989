package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Matches(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		msg     tea.KeyMsg
		binding key.Binding
	}{
		{"space grabs", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, km.Grab},
		{"enter drops", tea.KeyMsg{Type: tea.KeyEnter}, km.Drop},
		{"esc cancels", tea.KeyMsg{Type: tea.KeyEsc}, km.Cancel},
		{"arrow left", tea.KeyMsg{Type: tea.KeyLeft}, km.Left},
		{"vim right", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}}, km.Right},
		{"plus", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}}, km.CapacityUp},
		{"equals", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'='}}, km.CapacityUp},
		{"ctrl+s", tea.KeyMsg{Type: tea.KeyCtrlS}, km.Save},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, key.Matches(tt.msg, tt.binding), "key %q", tt.msg.String())
		})
	}
}

func TestDefaultKeyMap_NoOverlaps(t *testing.T) {
	km := DefaultKeyMap()
	all := map[string]key.Binding{
		"up": km.Up, "down": km.Down, "left": km.Left, "right": km.Right,
		"grab": km.Grab, "drop": km.Drop, "cancel": km.Cancel,
		"toggle": km.ToggleDisabled, "cap+": km.CapacityUp, "cap-": km.CapacityDown, "save": km.Save,
		"refresh": km.Refresh, "help": km.Help, "quit": km.Quit,
	}

	owner := map[string]string{}
	for name, b := range all {
		for _, k := range b.Keys() {
			prev, dup := owner[k]
			require.False(t, dup, "key %q bound to both %s and %s", k, prev, name)
			owner[k] = name
		}
	}
}

func TestHelp_EveryBindingDocumented(t *testing.T) {
	km := DefaultKeyMap()
	for _, group := range km.FullHelp() {
		for _, b := range group {
			require.NotEmpty(t, b.Help().Key)
			require.NotEmpty(t, b.Help().Desc)
		}
	}
	require.Len(t, km.ShortHelp(), 5)
}
