package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Tone colors shared by the terminal views.
var toneColors = map[Tone]lipgloss.Color{
	ToneSuccess: lipgloss.Color("#34C759"),
	ToneDanger:  lipgloss.Color("#FF3B30"),
	ToneWarning: lipgloss.Color("#FF9500"),
	ToneInfo:    lipgloss.Color("#0A84FF"),
	ToneNeutral: lipgloss.Color("#8E8E93"),
}

// Terminal draws node trees as styled text.
type Terminal struct {
	color bool
	width int

	title   lipgloss.Style
	section lipgloss.Style
	label   lipgloss.Style
	hint    lipgloss.Style
	card    lipgloss.Style
}

// NewTerminal creates a terminal backend. width <= 0 disables wrapping.
func NewTerminal(color bool, width int) *Terminal {
	t := &Terminal{color: color, width: width}
	t.title = lipgloss.NewStyle().Bold(true)
	t.section = lipgloss.NewStyle().Bold(true).Underline(true)
	t.label = lipgloss.NewStyle().Bold(true)
	t.hint = lipgloss.NewStyle().Italic(true)
	t.card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if color {
		t.hint = t.hint.Foreground(toneColors[ToneNeutral])
		t.card = t.card.BorderForeground(toneColors[ToneNeutral])
	}
	if width > 4 {
		t.card = t.card.Width(width - 2)
	}
	return t
}

// ToneStyle returns the foreground style for a tone.
func (t *Terminal) ToneStyle(tone Tone) lipgloss.Style {
	s := lipgloss.NewStyle()
	if !t.color {
		return s
	}
	if c, ok := toneColors[tone]; ok {
		s = s.Foreground(c)
	}
	return s
}

// Draw renders root as text.
func (t *Terminal) Draw(root *Node) string {
	var b strings.Builder
	t.draw(&b, root, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (t *Terminal) draw(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)

	switch n.Kind {
	case KindPage, KindFeed:
		for _, c := range n.Children {
			t.draw(b, c, depth)
		}

	case KindCard:
		var inner strings.Builder
		for _, c := range n.Children {
			t.draw(&inner, c, 0)
		}
		style := t.card
		if t.color && n.Find(KindBadge) != nil {
			style = style.BorderForeground(toneColors[ToneSuccess])
		}
		b.WriteString(style.Render(strings.TrimRight(inner.String(), "\n")))
		b.WriteString("\n\n")

	case KindHeader:
		b.WriteString(t.title.Render(n.Text) + "\n")
		for _, c := range n.Children {
			t.draw(b, c, depth)
		}
		b.WriteString("\n")

	case KindSection:
		b.WriteString(indent + t.ToneStyle(n.Tone).Inherit(t.section).Render(n.Label) + "\n")
		for _, c := range n.Children {
			t.draw(b, c, depth+1)
		}

	case KindList:
		if n.Label != "" {
			b.WriteString(indent + t.label.Render(n.Label) + "\n")
		}
		for _, c := range n.Children {
			if c.Kind == KindHint {
				t.draw(b, c, depth+1)
				continue
			}
			b.WriteString(indent + "  • " + c.Text + "\n")
			for _, cc := range c.Children {
				t.draw(b, cc, depth+2)
			}
		}

	case KindPre:
		for _, line := range strings.Split(n.Text, "\n") {
			b.WriteString(indent + line + "\n")
		}

	case KindHint:
		b.WriteString(indent + t.hint.Render(n.Text) + "\n")

	case KindBadge, KindChip:
		b.WriteString(indent + t.ToneStyle(n.Tone).Bold(true).Render(t.line(n)) + "\n")

	case KindItem:
		b.WriteString(indent + t.ToneStyle(n.Tone).Bold(true).Render(t.line(n)) + "\n")
		for _, c := range n.Children {
			t.draw(b, c, depth+1)
		}

	case KindMeta:
		parts := []string{n.Text}
		for _, c := range n.Children {
			parts = append(parts, t.line(c))
		}
		b.WriteString(indent + t.hint.Render(strings.Join(parts, " | ")) + "\n")

	case KindTitle:
		b.WriteString(indent + t.title.Render(n.Text) + "\n")

	default:
		b.WriteString(indent + t.ToneStyle(n.Tone).Render(t.line(n)) + "\n")
		for _, c := range n.Children {
			t.draw(b, c, depth+1)
		}
	}
}

// line joins the icon, label and text of a node.
func (t *Terminal) line(n *Node) string {
	var parts []string
	if n.Icon != "" {
		parts = append(parts, n.Icon)
	}
	if n.Label != "" {
		parts = append(parts, n.Label+":")
	}
	if n.Text != "" {
		parts = append(parts, n.Text)
	}
	return strings.Join(parts, " ")
}
