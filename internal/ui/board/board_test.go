package board

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dropzone/internal/config"
	"github.com/zjrosen/dropzone/internal/dnd"
	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/measure"
	"github.com/zjrosen/dropzone/internal/pubsub"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

func testBoard() config.BoardConfig {
	return config.BoardConfig{
		Columns: []config.ColumnConfig{
			{ID: "todo", Title: "Todo", Capacity: 2},
			{ID: "done", Title: "Done", Capacity: 1},
		},
		Cards: []config.CardConfig{
			{ID: "a", Title: "Alpha", Column: "todo"},
			{ID: "b", Title: "Beta"},
			{ID: "c", Title: "Gamma"},
		},
	}
}

// newTestModel lays the two columns side by side at 20x10 each.
func newTestModel(t *testing.T, opts Options) (Model, *measure.Table) {
	t.Helper()
	tbl := measure.NewTable()
	tbl.Set("todo", geometry.NewRect(0, 0, 20, 10))
	tbl.Set("done", geometry.NewRect(20, 0, 20, 10))
	opts.Measurer = tbl
	if opts.Board.Columns == nil {
		opts.Board = testBoard()
	}
	m := New(opts)
	t.Cleanup(m.Close)
	return m, tbl
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func titles(cards []Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Title)
	}
	return out
}

// focusTray moves focus past the last column onto the unplaced cards.
func focusTray(t *testing.T, m Model) Model {
	return send(t, m, keyMsg("right"), keyMsg("right"))
}

func TestNew_PlacesConfiguredCards(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	require.Equal(t, []string{"Alpha"}, titles(m.CardsIn("todo")))
	require.Empty(t, m.CardsIn("done"))
	require.Equal(t, []string{"Beta", "Gamma"}, titles(m.CardsIn("")))
}

func TestNew_PlacementWaitsForLayout(t *testing.T) {
	tbl := measure.NewTable()
	tbl.Set("todo", geometry.NewRect(0, 0, 20, 10))
	b := testBoard()
	b.Cards[1].Column = "done"

	m := New(Options{Board: b, Measurer: tbl})
	t.Cleanup(m.Close)
	require.Empty(t, m.CardsIn("done"))

	tbl.Set("done", geometry.NewRect(20, 0, 20, 10))
	m = send(t, m, remeasureMsg{})
	require.Equal(t, []string{"Beta"}, titles(m.CardsIn("done")))
}

func TestKeyboardDrag_Commit(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = focusTray(t, m)

	m = send(t, m, keyMsg("space"))
	require.NotNil(t, m.drag)
	key, ok := m.Engine().HoverZone()
	require.True(t, ok)
	require.Equal(t, "done", m.Engine().Slots()[key].ID)

	m = send(t, m, keyMsg("enter"))
	require.Nil(t, m.drag)
	require.Equal(t, []string{"Beta"}, titles(m.CardsIn("done")))
	require.Equal(t, "moved Beta to Done", m.Status())
	require.Equal(t, 1, m.focused, "focus follows the dropped card")
}

func TestKeyboardDrag_Retarget(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = focusTray(t, m)

	m = send(t, m, keyMsg("space"), keyMsg("left"), keyMsg("enter"))
	require.Equal(t, []string{"Alpha", "Beta"}, titles(m.CardsIn("todo")))
}

func TestKeyboardDrag_FullColumnRejects(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = focusTray(t, m)

	m = send(t, m, keyMsg("space"), keyMsg("enter"))
	require.Equal(t, []string{"Beta"}, titles(m.CardsIn("done")))

	m = focusTray(t, m)
	m = send(t, m, keyMsg("space"), keyMsg("enter"))
	require.Equal(t, []string{"Beta"}, titles(m.CardsIn("done")))
	require.Equal(t, []string{"Gamma"}, titles(m.CardsIn("")))
	require.Equal(t, "Done is full, Gamma is unplaced", m.Status())
	require.Equal(t, statusError, m.statusKind)
}

func TestKeyboardDrag_Cancel(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	// Alpha starts in todo; cancelling clears its assignment.
	m = send(t, m, keyMsg("space"), keyMsg("esc"))
	require.Nil(t, m.drag)
	require.Empty(t, m.CardsIn("todo"))
	require.Equal(t, "drag cancelled, Alpha is unplaced", m.Status())
	require.EqualValues(t, 1, m.Engine().Stats().Cancelled)
}

func TestKeyboardDrag_ColumnNotLaidOut(t *testing.T) {
	m, tbl := newTestModel(t, Options{})
	tbl.Delete("done")
	m = focusTray(t, m)

	m = send(t, m, keyMsg("space"))
	require.Contains(t, m.Status(), "Done")
	require.Contains(t, m.Status(), "not laid out")
}

func TestMouseDrag_Commit(t *testing.T) {
	m, tbl := newTestModel(t, Options{})
	tbl.Set(cardZoneID("b"), geometry.NewRect(2, 12, 6, 1))

	m = send(t, m,
		tea.MouseMsg{X: 3, Y: 12, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress},
	)
	require.NotNil(t, m.drag)
	require.True(t, m.drag.mouse)

	// Pointer moves by (22, -9): the card's box lands at (24, 3) inside done.
	m = send(t, m,
		tea.MouseMsg{X: 25, Y: 3, Action: tea.MouseActionMotion},
		tea.MouseMsg{X: 25, Y: 3, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease},
	)
	require.Nil(t, m.drag)
	require.Equal(t, []string{"Beta"}, titles(m.CardsIn("done")))
}

func TestMouseDrag_ReleaseOutside(t *testing.T) {
	m, tbl := newTestModel(t, Options{})
	tbl.Set(cardZoneID("a"), geometry.NewRect(2, 1, 6, 1))

	m = send(t, m,
		tea.MouseMsg{X: 2, Y: 1, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress},
		tea.MouseMsg{X: 2, Y: 40, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease},
	)
	require.Empty(t, m.CardsIn("todo"))
	require.Equal(t, "dropped Alpha outside any column", m.Status())
	require.EqualValues(t, 1, m.Engine().Stats().NoTarget)
}

func TestMouse_PressOnEmptyCellIgnored(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = send(t, m, tea.MouseMsg{X: 5, Y: 5, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	require.Nil(t, m.drag)
	_, dragging := m.Engine().ActiveDrag()
	require.False(t, dragging)
}

func TestToggleDisabled_RejectsDrops(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	m = send(t, m, keyMsg("d"))
	require.True(t, m.columns[0].cfg.Disabled)
	require.Equal(t, "drops disabled on Todo", m.Status())

	m = focusTray(t, m)
	m = send(t, m, keyMsg("space"), keyMsg("left"), keyMsg("enter"))
	require.Equal(t, "Todo is not accepting drops, Beta is unplaced", m.Status())
	require.Equal(t, []string{"Alpha"}, titles(m.CardsIn("todo")))
}

func TestAdjustCapacity(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	m = send(t, m, keyMsg("+"))
	require.Equal(t, 3, m.columns[0].cfg.Capacity)

	m = send(t, m, keyMsg("-"), keyMsg("-"), keyMsg("-"), keyMsg("-"))
	require.Equal(t, 1, m.columns[0].cfg.Capacity, "capacity never drops below one")
	require.False(t, m.Engine().HasAvailableCapacity("todo"))
}

func TestHoverEvent_Status(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = focusTray(t, m)
	m = send(t, m, keyMsg("space"))

	hover := pubsub.Event[dnd.Notice[Card]]{
		Type:    dnd.EventHoverChanged,
		Payload: dnd.Notice[Card]{ItemID: "b", ZoneID: "done", Active: true},
	}
	m = send(t, m, hover)
	require.Equal(t, "over Done", m.Status())

	require.NoError(t, m.Engine().RegisterDroppedItem("c", "done", Card{ID: "c", Title: "Gamma"}))
	m = send(t, m, hover)
	require.Equal(t, "over Done (full)", m.Status())

	// Stale events for other items are ignored.
	stale := hover
	stale.Payload.ItemID = "a"
	stale.Payload.ZoneID = "todo"
	m = send(t, m, stale)
	require.Equal(t, "over Done (full)", m.Status())
}

func TestSave_WritesColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m, _ := newTestModel(t, Options{ConfigPath: path})

	m = send(t, m, keyMsg("+"), keyMsg("ctrl+s"))
	require.Equal(t, "saved 2 columns", m.Status())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "capacity: 3")
	require.Contains(t, string(data), "id: done")
}

func TestSave_NoConfigPath(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = send(t, m, keyMsg("ctrl+s"))
	require.Equal(t, "no config file to save to", m.Status())
}

func TestLayoutReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	m, _ := newTestModel(t, Options{LayoutPath: path})

	require.NoError(t, os.WriteFile(path, []byte(`columns:
  - id: todo
    title: Todo
    capacity: 2
  - id: done
    title: Finished
    capacity: 2
cards:
  - id: a
    title: Alpha
    column: done
  - id: b
    title: Beta
  - id: d
    title: Delta
    column: done
`), 0o644))

	m = send(t, m, LayoutChangedMsg{})
	require.Equal(t, "layout reloaded", m.Status())

	// Alpha keeps its current placement; Gamma is gone; Delta is new.
	require.Equal(t, []string{"Alpha"}, titles(m.CardsIn("todo")))
	require.Equal(t, []string{"Delta"}, titles(m.CardsIn("done")))
	require.Equal(t, []string{"Beta"}, titles(m.CardsIn("")))
	require.Equal(t, "Finished", m.columns[1].cfg.DisplayTitle())
	require.True(t, m.Engine().HasAvailableCapacity("done"))
}

func TestLayoutReload_InvalidKeepsBoard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns: [\n"), 0o644))
	m, _ := newTestModel(t, Options{LayoutPath: path})

	m = send(t, m, LayoutChangedMsg{})
	require.Contains(t, m.Status(), "layout reload failed")
	require.Len(t, m.columns, 2)
}

func TestWatchLayoutCmd(t *testing.T) {
	require.Nil(t, WatchLayoutCmd(nil))

	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	require.Equal(t, LayoutChangedMsg{}, WatchLayoutCmd(ch)())

	close(ch)
	require.Nil(t, WatchLayoutCmd(ch)())
}

func TestQuit_CancelsActiveDrag(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = send(t, m, keyMsg("space"))
	require.NotNil(t, m.drag)

	next, cmd := m.Update(keyMsg("q"))
	m = next.(Model)
	require.Nil(t, m.drag)
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
	_, dragging := m.Engine().ActiveDrag()
	require.False(t, dragging)
}

func TestRefresh_ReportsMeasureCache(t *testing.T) {
	m := New(Options{Board: testBoard()})
	t.Cleanup(m.Close)

	// Nothing has been rendered, so bubblezone knows no column yet.
	st, ok := m.MeasureStats()
	require.True(t, ok)
	require.Zero(t, st.Fresh)
	require.NotZero(t, st.Miss)

	m = send(t, m, keyMsg("r"))
	require.Contains(t, m.Status(), "re-measured 0 zones (fresh 0, cached 0, missed")

	injected, _ := newTestModel(t, Options{})
	_, ok = injected.MeasureStats()
	require.False(t, ok)
	injected = send(t, injected, keyMsg("r"))
	require.Equal(t, "re-measured 2 zones", injected.Status())
}

func TestView_RendersColumnsAndTray(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	out := ansi.Strip(m.View())
	require.Contains(t, out, "Todo 1/2")
	require.Contains(t, out, "Done 0/1")
	require.Contains(t, out, "Alpha")
	require.Contains(t, out, "unplaced:")
	require.Contains(t, out, "[Beta]")
	require.Contains(t, out, "committed 0")
}

func TestView_DisabledColumn(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 24}, keyMsg("right"), keyMsg("d"))

	out := ansi.Strip(m.View())
	require.Contains(t, out, "Done 0/1 ⊘")
	require.Contains(t, out, "drops disabled")
}

func TestProgram_KeyboardDrop(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("unplaced:"))
	}, teatest.WithDuration(3*time.Second))

	for _, k := range []string{"right", "right", "space", "enter", "q"} {
		tm.Send(keyMsg(k))
	}

	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)
	require.True(t, ok)
	require.Equal(t, []string{"Beta"}, titles(final.CardsIn("done")))
	require.Equal(t, "moved Beta to Done", final.Status())
}
