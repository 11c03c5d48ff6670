package notify

import (
	"fmt"
	"strings"
)

// FormatPopup formats an open popup for terminal display. Closed popups
// format as the empty string.
func FormatPopup(p Popup, colorEnabled bool) string {
	if !p.Open {
		return ""
	}

	var color, resetColor string
	if colorEnabled {
		resetColor = "\033[0m"
		switch p.Category {
		case CategorySuccess:
			color = "\033[32m" // Green
		case CategoryWarning:
			color = "\033[33m" // Yellow
		case CategoryDanger:
			color = "\033[31m" // Red
		default:
			color = "\033[36m" // Cyan
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s%s %s%s", color, p.Category.Icon(), p.Title, resetColor))
	if p.Message != "" {
		for _, line := range strings.Split(p.Message, "\n") {
			sb.WriteString("\n  " + line)
		}
	}
	if p.Confirm {
		sb.WriteString(fmt.Sprintf("\n  [y] %s   [n] %s", p.ConfirmText, p.CancelText))
	}
	return sb.String()
}

// Overlay frames an open popup in a box. It returns "" when nothing is open.
func Overlay(p Popup, colorEnabled bool, width int) string {
	body := FormatPopup(p, colorEnabled)
	if body == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	rule := strings.Repeat("─", width-2)

	var sb strings.Builder
	sb.WriteString("┌" + rule + "┐\n")
	for _, line := range strings.Split(body, "\n") {
		sb.WriteString("│ " + line + "\n")
	}
	sb.WriteString("└" + rule + "┘")
	return sb.String()
}
