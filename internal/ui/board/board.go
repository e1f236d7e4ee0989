// Package board contains the interactive drag-and-drop demo board.
package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/wordwrap"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/dropzone/internal/config"
	"github.com/zjrosen/dropzone/internal/dnd"
	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/keys"
	"github.com/zjrosen/dropzone/internal/log"
	"github.com/zjrosen/dropzone/internal/measure"
	"github.com/zjrosen/dropzone/internal/pubsub"
	"github.com/zjrosen/dropzone/internal/ui/styles"
)

// remeasureDelay gives the terminal one frame to paint before zones are read
// back from bubblezone.
const remeasureDelay = 50 * time.Millisecond

// Card is the payload carried by a drag.
type Card struct {
	ID    string
	Title string
}

func cardZoneID(id string) string {
	return "card:" + id
}

// Options configures a board Model.
type Options struct {
	Board           config.BoardConfig
	DefaultCapacity int
	MeasureTTL      time.Duration

	// ConfigPath is where ctrl+s writes the columns. Empty disables saving.
	ConfigPath string
	// LayoutPath is re-read on every LayoutChangedMsg.
	LayoutPath string
	// LayoutChanges delivers a tick whenever LayoutPath changes on disk.
	LayoutChanges <-chan struct{}

	// Measurer overrides the bubblezone-backed measurer.
	Measurer measure.Measurer
	Tracer   trace.Tracer
}

// LayoutChangedMsg reports that the layout file changed on disk.
type LayoutChangedMsg struct{}

// WatchLayoutCmd waits for the next change on ch.
func WatchLayoutCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return LayoutChangedMsg{}
	}
}

type remeasureMsg struct{}

func remeasureCmd() tea.Cmd {
	return tea.Tick(remeasureDelay, func(time.Time) tea.Msg { return remeasureMsg{} })
}

type cardState struct {
	card Card
	drag *dnd.Draggable[Card]
}

type dragState struct {
	id    string
	mouse bool
	// origin is the card's resting top-left, grab the pointer cell that
	// started a mouse drag.
	origin geometry.Point
	grab   geometry.Point
	// target is the column a keyboard drag hovers.
	target int
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

// Model is the board's Bubble Tea model.
type Model struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	engine   *dnd.Engine[Card]
	measurer measure.Measurer
	prefix   string
	listener *pubsub.ContinuousListener[dnd.Notice[Card]]

	columns []*Column
	cards   map[string]*cardState
	order   []string
	// pending cards wait for their column to be laid out before placement.
	pending []config.CardConfig

	keys keys.KeyMap
	help help.Model

	focused  int
	selected int
	drag     *dragState

	width  int
	height int

	status     string
	statusKind statusKind
}

// New builds a board from opts.Board.
func New(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		prefix: zone.NewPrefix(),
		cards:  make(map[string]*cardState),
		keys:   keys.DefaultKeyMap(),
		help:   help.New(),
	}

	if opts.Measurer != nil {
		m.measurer = measure.Safe(opts.Measurer)
	} else {
		m.measurer = measure.NewCache(measure.Safe(zoneMeasurer(m.prefix)), opts.MeasureTTL)
	}

	m.engine = dnd.New(dnd.Options[Card]{
		DefaultCapacity: opts.DefaultCapacity,
		Tracer:          opts.Tracer,
	})
	m.listener = pubsub.NewContinuousListener[dnd.Notice[Card]](ctx, m.engine, dnd.EventHoverChanged, dnd.EventLayoutUpdated)

	m.applyBoard(opts.Board)
	return m
}

// zoneMeasurer reads rectangles recorded by the last zone.Scan.
func zoneMeasurer(prefix string) measure.Func {
	return func(id string) (geometry.Rect, bool) {
		z := zone.Get(prefix + id)
		if z == nil || z.IsZero() {
			return geometry.Rect{}, false
		}
		return geometry.NewRect(
			float64(z.StartX),
			float64(z.StartY),
			float64(z.EndX-z.StartX+1),
			float64(z.EndY-z.StartY+1),
		), true
	}
}

// Engine exposes the board's drop engine.
func (m Model) Engine() *dnd.Engine[Card] {
	return m.engine
}

// MeasureStats returns the measurement cache counters. ok is false when
// the board was given its own Measurer.
func (m Model) MeasureStats() (measure.CacheStats, bool) {
	c, ok := m.measurer.(*measure.Cache)
	if !ok {
		return measure.CacheStats{}, false
	}
	return c.Stats(), true
}

// Close unmounts every zone and stops event delivery.
func (m Model) Close() {
	for _, cs := range m.cards {
		cs.drag.Unmount()
	}
	for _, c := range m.columns {
		c.unmount()
	}
	m.cancel()
	m.engine.Close()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listener.Listen(), remeasureCmd(), WatchLayoutCmd(m.opts.LayoutChanges))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, remeasureCmd()

	case remeasureMsg:
		m.engine.RequestPositionUpdate()
		m.placePending()
		return m, nil

	case LayoutChangedMsg:
		m = m.reloadLayout()
		return m, tea.Batch(WatchLayoutCmd(m.opts.LayoutChanges), remeasureCmd())

	case pubsub.Event[dnd.Notice[Card]]:
		m = m.handleEvent(msg)
		return m, m.listener.Listen()

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleEvent(ev pubsub.Event[dnd.Notice[Card]]) Model {
	switch ev.Type {
	case dnd.EventHoverChanged:
		n := ev.Payload
		// Events are delivered asynchronously and may trail the drop.
		if m.drag == nil || n.ItemID != m.drag.id || !n.Active {
			return m
		}
		if c := m.column(n.ZoneID); c != nil {
			if m.accepts(c, n.ItemID) {
				m.setStatus(statusInfo, "over %s", c.cfg.DisplayTitle())
			} else {
				m.setStatus(statusWarning, "over %s (%s)", c.cfg.DisplayTitle(), m.refusal(c))
			}
		}
	case dnd.EventLayoutUpdated:
		log.Debug(log.CatUI, "layout updated", "zones", len(m.engine.Slots()))
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.drag != nil {
			m = m.cancelDrag()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.drag != nil {
		switch {
		case key.Matches(msg, m.keys.Left):
			m = m.retarget(-1)
		case key.Matches(msg, m.keys.Right):
			m = m.retarget(1)
		case key.Matches(msg, m.keys.Drop):
			m = m.release()
		case key.Matches(msg, m.keys.Cancel):
			m = m.cancelDrag()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		m.focused = max(m.focused-1, 0)
		m.selected = 0
	case key.Matches(msg, m.keys.Right):
		m.focused = min(m.focused+1, len(m.columns))
		m.selected = 0
	case key.Matches(msg, m.keys.Up):
		m.selected = max(m.selected-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.selected = min(m.selected+1, max(len(m.focusedCards())-1, 0))
	case key.Matches(msg, m.keys.Grab):
		m = m.grabSelected()
	case key.Matches(msg, m.keys.ToggleDisabled):
		if c := m.focusedColumn(); c != nil {
			c.toggleDisabled()
			state := "enabled"
			if c.cfg.Disabled {
				state = "disabled"
			}
			m.setStatus(statusInfo, "drops %s on %s", state, c.cfg.DisplayTitle())
		}
	case key.Matches(msg, m.keys.CapacityUp):
		m = m.adjustCapacity(1)
	case key.Matches(msg, m.keys.CapacityDown):
		m = m.adjustCapacity(-1)
	case key.Matches(msg, m.keys.Save):
		m = m.saveColumns()
	case key.Matches(msg, m.keys.Refresh):
		m.engine.RequestPositionUpdate()
		m.placePending()
		if st, ok := m.MeasureStats(); ok {
			m.setStatus(statusInfo, "re-measured %d zones (fresh %d, cached %d, missed %d)",
				len(m.engine.Slots()), st.Fresh, st.Stale, st.Miss)
		} else {
			m.setStatus(statusInfo, "re-measured %d zones", len(m.engine.Slots()))
		}
	}
	return m, nil
}

// --- Mouse dragging ---

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	x, y := float64(msg.X), float64(msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || m.drag != nil {
			return m
		}
		id, rect, ok := m.cardAt(x, y)
		if !ok {
			return m
		}
		cs := m.cards[id]
		cs.drag.SetSize(geometry.Size{Width: rect.Width, Height: rect.Height})
		if !cs.drag.Start() {
			return m
		}
		m.drag = &dragState{
			id:     id,
			mouse:  true,
			origin: geometry.Point{X: rect.X, Y: rect.Y},
			grab:   geometry.Point{X: x, Y: y},
		}
		cs.drag.Move(rect.X, rect.Y, 0, 0)
		m.setStatus(statusInfo, "dragging %s", cs.card.Title)

	case tea.MouseActionMotion:
		if m.drag == nil || !m.drag.mouse {
			return m
		}
		d := m.drag
		m.cards[d.id].drag.Move(d.origin.X, d.origin.Y, x-d.grab.X, y-d.grab.Y)

	case tea.MouseActionRelease:
		if m.drag == nil || !m.drag.mouse {
			return m
		}
		d := m.drag
		m.cards[d.id].drag.Move(d.origin.X, d.origin.Y, x-d.grab.X, y-d.grab.Y)
		m = m.release()
	}
	return m
}

// cardAt finds the card rendered under the cell (x, y).
func (m Model) cardAt(x, y float64) (string, geometry.Rect, bool) {
	for _, id := range m.order {
		rect, ok := m.measurer.Measure(cardZoneID(id))
		if !ok {
			continue
		}
		if rect.Contains(x, y) {
			return id, rect, true
		}
	}
	return "", geometry.Rect{}, false
}

// --- Keyboard dragging ---

func (m Model) grabSelected() Model {
	cards := m.focusedCards()
	if m.selected >= len(cards) {
		return m
	}
	if len(m.columns) == 0 {
		m.setStatus(statusWarning, "no columns to drop on")
		return m
	}
	card := cards[m.selected]
	cs := m.cards[card.ID]
	cs.drag.SetSize(geometry.Size{Width: 1, Height: 1})
	if !cs.drag.Start() {
		return m
	}
	m.drag = &dragState{id: card.ID, target: min(m.focused, len(m.columns)-1)}
	m.setStatus(statusInfo, "picked up %s", card.Title)
	return m.moveToTarget()
}

func (m Model) retarget(delta int) Model {
	m.drag.target = min(max(m.drag.target+delta, 0), len(m.columns)-1)
	return m.moveToTarget()
}

// moveToTarget places the keyboard drag's 1x1 pointer box at the centre of the
// target column.
func (m Model) moveToTarget() Model {
	m.focused = m.drag.target
	c := m.columns[m.drag.target]
	rect, ok := m.measurer.Measure(c.ID())
	if !ok {
		m.setStatus(statusWarning, "%s is not laid out yet", c.cfg.DisplayTitle())
		return m
	}
	center := rect.Center()
	m.cards[m.drag.id].drag.Move(0, 0, center.X, center.Y)
	return m
}

// --- Drop completion ---

func (m Model) release() Model {
	cs := m.cards[m.drag.id]
	m.drag = nil
	res := cs.drag.Release()
	return m.afterDrop(res)
}

func (m Model) cancelDrag() Model {
	cs := m.cards[m.drag.id]
	m.drag = nil
	res := cs.drag.Cancel()
	return m.afterDrop(res)
}

func (m Model) afterDrop(res dnd.DropResult[Card]) Model {
	title := res.Data.Title
	switch res.Outcome {
	case dnd.OutcomeCommitted:
		m.order = append(slices.DeleteFunc(m.order, func(id string) bool { return id == res.ItemID }), res.ItemID)
		if i := m.columnIndex(res.ZoneID); i >= 0 {
			m.focused = i
			m.selected = max(len(m.focusedCards())-1, 0)
		}
		m.setStatus(statusSuccess, "moved %s to %s", title, m.columnTitle(res.ZoneID))
	case dnd.OutcomeRejected:
		reason := "refused"
		switch {
		case errors.Is(res.Reason, dnd.ErrZoneFull):
			reason = "is full"
		case errors.Is(res.Reason, dnd.ErrDropDisabled):
			reason = "is not accepting drops"
		}
		m.setStatus(statusError, "%s %s, %s is unplaced", m.columnTitle(res.ZoneID), reason, title)
	case dnd.OutcomeNoTarget:
		m.setStatus(statusWarning, "dropped %s outside any column", title)
	case dnd.OutcomeCancelled:
		m.setStatus(statusWarning, "drag cancelled, %s is unplaced", title)
	}
	m.clampSelection()
	return m
}

// --- Column settings ---

func (m Model) adjustCapacity(delta int) Model {
	c := m.focusedColumn()
	if c == nil {
		return m
	}
	next := max(m.capacityOf(c)+delta, 1)
	c.setCapacity(next)
	m.setStatus(statusInfo, "%s capacity %d", c.cfg.DisplayTitle(), next)
	return m
}

func (m Model) saveColumns() Model {
	if m.opts.ConfigPath == "" {
		m.setStatus(statusWarning, "no config file to save to")
		return m
	}
	cols := make([]config.ColumnConfig, len(m.columns))
	for i, c := range m.columns {
		cols[i] = c.Config()
	}
	if err := config.SaveColumns(m.opts.ConfigPath, cols); err != nil {
		log.ErrorErr(log.CatConfig, "saving columns failed", err, "path", m.opts.ConfigPath)
		m.setStatus(statusError, "save failed: %v", err)
		return m
	}
	m.setStatus(statusSuccess, "saved %d columns", len(cols))
	return m
}

// --- Layout ---

func (m Model) reloadLayout() Model {
	if m.opts.LayoutPath == "" {
		return m
	}
	b, err := config.LoadBoard(m.opts.LayoutPath)
	if err != nil {
		log.ErrorErr(log.CatConfig, "layout reload failed", err, "path", m.opts.LayoutPath)
		m.setStatus(statusError, "layout reload failed: %v", err)
		return m
	}
	if m.drag != nil {
		m = m.cancelDrag()
	}
	m.applyBoard(b)
	m.setStatus(statusInfo, "layout reloaded")
	return m
}

// applyBoard reconciles mounted columns and cards with b. Cards that survive
// keep their current placement.
func (m *Model) applyBoard(b config.BoardConfig) {
	existing := make(map[string]*Column, len(m.columns))
	for _, c := range m.columns {
		existing[c.ID()] = c
	}
	columns := make([]*Column, 0, len(b.Columns))
	for _, cfg := range b.Columns {
		c, ok := existing[cfg.ID]
		delete(existing, cfg.ID)
		if ok && c.update(cfg) {
			columns = append(columns, c)
			continue
		}
		if ok {
			c.unmount()
		}
		columns = append(columns, newColumn(m.engine, m.measurer, cfg))
	}
	for _, c := range existing {
		c.unmount()
	}
	m.columns = columns

	keep := make(map[string]bool, len(b.Cards))
	m.pending = m.pending[:0]
	for _, cc := range b.Cards {
		keep[cc.ID] = true
		card := Card{ID: cc.ID, Title: cc.Title}
		if card.Title == "" {
			card.Title = cc.ID
		}
		if cs, ok := m.cards[cc.ID]; ok {
			cs.card = card
			cs.drag.SetData(card)
			continue
		}
		m.cards[cc.ID] = &cardState{
			card: card,
			drag: dnd.NewDraggable(m.engine, dnd.DraggableOptions[Card]{ID: cc.ID, Data: card}),
		}
		m.order = append(m.order, cc.ID)
		if cc.Column != "" {
			m.pending = append(m.pending, cc)
		}
	}
	for id, cs := range m.cards {
		if !keep[id] {
			cs.drag.Unmount()
			delete(m.cards, id)
		}
	}
	m.order = slices.DeleteFunc(m.order, func(id string) bool { return !keep[id] })

	m.placePending()
	m.focused = min(m.focused, len(m.columns))
	m.clampSelection()
}

// placePending assigns configured cards whose column is registered.
func (m *Model) placePending() {
	var waiting []config.CardConfig
	for _, cc := range m.pending {
		cs, ok := m.cards[cc.ID]
		if !ok {
			continue
		}
		err := m.engine.RegisterDroppedItem(cc.ID, cc.Column, cs.card)
		switch {
		case err == nil:
		case errors.Is(err, dnd.ErrZoneNotFound):
			waiting = append(waiting, cc)
		default:
			log.Warn(log.CatUI, "initial placement refused", "card", cc.ID, "column", cc.Column, "error", err)
			m.setStatus(statusWarning, "%s could not start in %s: %v", cs.card.Title, cc.Column, err)
		}
	}
	m.pending = waiting
}

// --- Queries ---

func (m Model) column(id string) *Column {
	if i := m.columnIndex(id); i >= 0 {
		return m.columns[i]
	}
	return nil
}

func (m Model) columnIndex(id string) int {
	return slices.IndexFunc(m.columns, func(c *Column) bool { return c.ID() == id })
}

func (m Model) columnTitle(id string) string {
	if c := m.column(id); c != nil {
		return c.cfg.DisplayTitle()
	}
	return id
}

func (m Model) focusedColumn() *Column {
	if m.focused < len(m.columns) {
		return m.columns[m.focused]
	}
	return nil
}

func (m Model) capacityOf(c *Column) int {
	switch {
	case c.cfg.Capacity > 0:
		return c.cfg.Capacity
	case m.opts.DefaultCapacity > 0:
		return m.opts.DefaultCapacity
	}
	return dnd.DefaultCapacity
}

// accepts mirrors the engine's admission check for itemID.
func (m Model) accepts(c *Column, itemID string) bool {
	if c.cfg.Disabled {
		return false
	}
	n := 0
	for id, a := range m.engine.DroppedItems() {
		if a.ZoneID == c.ID() && id != itemID {
			n++
		}
	}
	return n < m.capacityOf(c)
}

func (m Model) refusal(c *Column) string {
	if c.cfg.Disabled {
		return "disabled"
	}
	return "full"
}

// CardsIn returns the cards assigned to column id in display order. An empty
// id returns the unplaced cards.
func (m Model) CardsIn(id string) []Card {
	placed := m.engine.DroppedItems()
	var out []Card
	for _, cid := range m.order {
		if placed[cid].ZoneID == id {
			out = append(out, m.cards[cid].card)
		}
	}
	return out
}

func (m Model) focusedCards() []Card {
	if c := m.focusedColumn(); c != nil {
		return m.CardsIn(c.ID())
	}
	return m.CardsIn("")
}

func (m *Model) clampSelection() {
	m.selected = min(m.selected, max(len(m.focusedCards())-1, 0))
}

func (m *Model) setStatus(kind statusKind, format string, args ...any) {
	m.statusKind = kind
	m.status = fmt.Sprintf(format, args...)
}

// Status returns the current status line text.
func (m Model) Status() string {
	return m.status
}

// --- Rendering ---

// View implements tea.Model.
func (m Model) View() string {
	helpView := m.help.View(m.keys)
	tray := m.renderTray()
	status := m.renderStatus()

	height := max(m.height-lipgloss.Height(helpView)-lipgloss.Height(tray)-lipgloss.Height(status), 5)
	var cols []string
	if n := len(m.columns); n > 0 {
		width := max(m.width/n, 16)
		dragging := ""
		if m.drag != nil {
			dragging = m.drag.id
		}
		for i, c := range m.columns {
			cols = append(cols, c.render(columnView{
				cards:    m.CardsIn(c.ID()),
				capacity: m.capacityOf(c),
				width:    width,
				height:   height,
				focused:  i == m.focused,
				selected: m.selected,
				dragging: dragging,
				accepts:  dragging != "" && m.accepts(c, dragging),
				prefix:   m.prefix,
			}))
		}
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		tray,
		status,
		helpView,
	)
	return zone.Scan(view)
}

func (m Model) renderTray() string {
	cards := m.CardsIn("")
	label := styles.MutedStyle.Render("unplaced:")
	if m.focused == len(m.columns) {
		label = styles.SelectionIndicatorStyle.Render("unplaced:")
	}
	if len(cards) == 0 {
		return label + styles.MutedStyle.Render(" none")
	}
	parts := []string{label}
	for i, card := range cards {
		text := "[" + card.Title + "]"
		style := styles.CardStyle
		switch {
		case m.drag != nil && m.drag.id == card.ID:
			style = styles.DraggingStyle
		case m.focused == len(m.columns) && i == m.selected:
			style = styles.SelectionIndicatorStyle
		}
		parts = append(parts, zone.Mark(m.prefix+cardZoneID(card.ID), style.Render(text)))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderStatus() string {
	st := m.engine.Stats()
	counts := styles.MutedStyle.Render(fmt.Sprintf("committed %d  rejected %d  missed %d",
		st.Committed, st.Rejected, st.NoTarget+st.Cancelled))

	var style lipgloss.Style
	switch m.statusKind {
	case statusSuccess:
		style = styles.SuccessStyle
	case statusWarning:
		style = styles.WarningStyle
	case statusError:
		style = styles.ErrorStyle
	default:
		style = lipgloss.NewStyle()
	}
	line := style.Render(m.status) + "  " + counts
	if m.width > 2 {
		// StatusBarStyle pads one cell on each side.
		line = wordwrap.String(line, m.width-2)
	}
	return styles.StatusBarStyle.Render(line)
}
