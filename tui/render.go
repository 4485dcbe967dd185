package tui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/honganh1206/tgterm/telegram"
)

const (
	minDialogWindow = 3

	olderMarker = "[grey]↑ older ↑[-]"
	newerMarker = "[grey]↓ newer ↓[-]"

	selectedStyle = "[white:#3a6ea5:b]"
	resetStyle    = "[-:-:-]"
)

// renderDialogs produces the dialog-list text: a contiguous window of the
// list sized to the last measured height, with scroll markers when the
// window clips the list and the selected entry highlighted.
func renderDialogs(dialogs []telegram.Dialog, current, scroll, height int) string {
	if len(dialogs) == 0 {
		return "[grey]No dialogs. Ctrl+R to reload.[-]"
	}

	if height < 1 {
		height = 1
	}
	total := len(dialogs)
	start := scroll
	if start > total-height {
		start = total - height
	}
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > total {
		end = total
	}

	var lines []string
	if start > 0 {
		lines = append(lines, olderMarker)
	}
	for i := start; i < end; i++ {
		title := tview.Escape(dialogs[i].Title)
		if i == current {
			lines = append(lines, fmt.Sprintf("%s▶ %s%s", selectedStyle, title, resetStyle))
		} else {
			lines = append(lines, "  "+title)
		}
	}
	if end < total {
		lines = append(lines, newerMarker)
	}
	return strings.Join(lines, "\n")
}

// composeMessages renders history as plain text, one line per message plus
// indented continuation lines for multi-line bodies.
func composeMessages(messages []telegram.Message) string {
	if len(messages) == 0 {
		return "No messages yet. Type to start the conversation."
	}

	var rendered []string
	for _, message := range messages {
		direction := "<-"
		if message.Outgoing {
			direction = "->"
		}
		content := message.Text
		if content == "" {
			if message.HasMedia {
				content = "<media>"
			} else {
				content = "<empty>"
			}
		}
		lines := strings.Split(content, "\n")
		rendered = append(rendered, fmt.Sprintf("%s [%s] %s: %s",
			direction, message.Time.Format("2006-01-02 15:04"), message.Sender, lines[0]))
		for _, continuation := range lines[1:] {
			rendered = append(rendered, "    "+continuation)
		}
	}
	return strings.Join(rendered, "\n")
}
