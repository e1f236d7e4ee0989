package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/dropzone/internal/config"
	"github.com/zjrosen/dropzone/internal/dnd"
	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/log"
	"github.com/zjrosen/dropzone/internal/measure"
	"github.com/zjrosen/dropzone/internal/ui/styles"
)

// Column is one board column backed by a Droppable.
type Column struct {
	cfg   config.ColumnConfig
	drop  *dnd.Droppable[Card]
	color lipgloss.TerminalColor
}

func newColumn(engine *dnd.Engine[Card], m measure.Measurer, cfg config.ColumnConfig) *Column {
	align, err := geometry.ParseAlignment(cfg.Alignment)
	if err != nil {
		log.Warn(log.CatUI, "bad column alignment, using center", "column", cfg.ID, "alignment", cfg.Alignment)
		align = geometry.AlignCenter
	}
	c := &Column{cfg: cfg, color: columnColor(cfg)}
	c.drop = dnd.NewDroppable(engine, m, dnd.DroppableOptions[Card]{
		ID:        cfg.ID,
		Alignment: align,
		Capacity:  cfg.Capacity,
		Disabled:  cfg.Disabled,
	})
	return c
}

func columnColor(cfg config.ColumnConfig) lipgloss.TerminalColor {
	if cfg.Color == "" {
		return styles.TextPrimaryColor
	}
	return lipgloss.Color(cfg.Color)
}

// ID returns the column id, which is also its zone id.
func (c *Column) ID() string {
	return c.cfg.ID
}

// Config returns the column's current settings.
func (c *Column) Config() config.ColumnConfig {
	return c.cfg
}

// update applies cfg in place. It reports false when the change needs a
// fresh Droppable (the anchor moved).
func (c *Column) update(cfg config.ColumnConfig) bool {
	if cfg.Alignment != c.cfg.Alignment {
		return false
	}
	if cfg.Capacity != c.cfg.Capacity {
		c.drop.SetCapacity(cfg.Capacity)
	}
	if cfg.Disabled != c.cfg.Disabled {
		c.drop.SetDisabled(cfg.Disabled)
	}
	c.cfg = cfg
	c.color = columnColor(cfg)
	return true
}

func (c *Column) setCapacity(n int) {
	c.cfg.Capacity = n
	c.drop.SetCapacity(n)
}

func (c *Column) toggleDisabled() {
	c.cfg.Disabled = !c.cfg.Disabled
	c.drop.SetDisabled(c.cfg.Disabled)
}

func (c *Column) unmount() {
	c.drop.Unmount()
}

// columnView is everything render needs that lives outside the column.
type columnView struct {
	cards    []Card
	capacity int
	width    int
	height   int
	focused  bool
	selected int
	dragging string
	// accepts reports whether the dragged card would be admitted here.
	accepts bool
	prefix  string
}

func (c *Column) borderColor(v columnView) lipgloss.TerminalColor {
	switch {
	case c.drop.IsActive() && v.accepts:
		return styles.DropAcceptColor
	case c.drop.IsActive():
		return styles.DropRejectColor
	case c.cfg.Disabled:
		return styles.DropDisabledColor
	case v.focused:
		return c.color
	}
	return styles.BorderDefaultColor
}

func (c *Column) title(v columnView) string {
	t := fmt.Sprintf("%s %d/%d", c.cfg.DisplayTitle(), len(v.cards), v.capacity)
	if c.cfg.Disabled {
		t += " ⊘"
	}
	return t
}

func (c *Column) render(v columnView) string {
	inner := max(v.width-2, 1)

	var lines []string
	for i, card := range v.cards {
		prefix := "  "
		if v.focused && i == v.selected {
			prefix = styles.SelectionIndicatorStyle.Render(">") + " "
		}
		text := styles.TruncateString(card.Title, inner-2)
		style := styles.CardStyle
		if card.ID == v.dragging {
			style = styles.DraggingStyle
		}
		lines = append(lines, prefix+zone.Mark(v.prefix+cardZoneID(card.ID), style.Render(text)))
	}
	if len(lines) == 0 {
		hint := "empty"
		if c.cfg.Disabled {
			hint = "drops disabled"
		}
		lines = append(lines, styles.MutedStyle.Render("  "+hint))
	}

	out := styles.RenderWithTitleBorder(strings.Join(lines, "\n"), c.title(v), v.width, v.height, c.borderColor(v), c.color)
	return zone.Mark(v.prefix+c.cfg.ID, out)
}
