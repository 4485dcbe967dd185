// Package repl implements the legacy line-oriented chat loop.
package repl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/honganh1206/tgterm/search"
	"github.com/honganh1206/tgterm/telegram"
	"github.com/honganh1206/tgterm/termio"
)

const (
	prompt           = "msg (:help for commands)> "
	dialogFetchLimit = 20
	historyIncrement = 25
)

// Controller drives the terminal chat experience: one blocking loop,
// suspended only on reads and network calls.
type Controller struct {
	service telegram.Service
	io      termio.IO
	limit   int

	dialogs []telegram.Dialog
	current int // -1 when nothing is selected
	running bool
}

func New(service telegram.Service, io termio.IO, messageFetchLimit int) *Controller {
	return &Controller{
		service: service,
		io:      io,
		limit:   messageFetchLimit,
		current: -1,
	}
}

// Start connects, shows the dialog list and consumes input until a quit
// command or end of input. Disconnect runs exactly once on the way out,
// whatever ended the loop.
func (c *Controller) Start(ctx context.Context) error {
	c.running = true
	if err := c.service.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		c.service.Disconnect(ctx)
		c.io.Write("Disconnected.")
	}()

	c.io.Write("Connected to Telegram.")
	if err := c.refreshDialogs(ctx); err != nil {
		return err
	}
	if len(c.dialogs) > 0 {
		if err := c.openDialog(ctx, 0); err != nil {
			return err
		}
	} else {
		c.io.Write("No dialogs found. Start a conversation from another client.")
	}
	c.io.Write("Type messages to send them. Commands start with ':'. Type :help for guidance.")

	for c.running {
		line, err := c.io.Read(prompt)
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			err = c.handleCommand(ctx, line[1:])
		} else {
			err = c.sendMessage(ctx, line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) handleCommand(ctx context.Context, command string) error {
	normalized := strings.TrimSpace(command)
	switch normalized {
	case "":
		return nil
	case "q", "quit", "exit":
		c.running = false
		return nil
	case "h", "help":
		c.showHelp()
		return nil
	case "d", "dialogs":
		c.displayDialogList()
		return nil
	case "r", "reload":
		return c.refreshDialogs(ctx)
	case "m", "more":
		return c.loadMoreMessages(ctx)
	}
	if arg, ok := strings.CutPrefix(normalized, "open "); ok {
		if index, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil {
			return c.openDialog(ctx, index)
		}
	}
	if term, ok := strings.CutPrefix(normalized, "find "); ok {
		c.findDialogs(strings.TrimSpace(term))
		return nil
	}
	if index, err := strconv.Atoi(normalized); err == nil {
		return c.openDialog(ctx, index)
	}
	c.io.Write(fmt.Sprintf("Unknown command: :%s", command))
	return nil
}

func (c *Controller) refreshDialogs(ctx context.Context) error {
	var previousID int64
	hadSelection := false
	if dialog, ok := c.currentDialog(); ok {
		previousID = dialog.ID
		hadSelection = true
	}

	dialogs, err := c.service.FetchDialogs(ctx, dialogFetchLimit)
	if err != nil {
		return err
	}
	c.dialogs = dialogs
	c.current = telegram.RelocateSelection(dialogs, previousID, hadSelection)
	c.displayDialogList()
	return nil
}

func (c *Controller) openDialog(ctx context.Context, index int) error {
	if index < 0 || index >= len(c.dialogs) {
		c.io.Write(fmt.Sprintf("Invalid dialog index: %d", index))
		return nil
	}
	c.current = index
	dialog := c.dialogs[index]
	c.io.Write(fmt.Sprintf("--- %s ---", dialog.Title))
	return c.displayMessages(ctx, dialog)
}

func (c *Controller) displayMessages(ctx context.Context, dialog telegram.Dialog) error {
	messages, err := c.service.FetchMessages(ctx, dialog, c.limit)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		c.io.Write("No messages yet.")
		return nil
	}
	for _, message := range messages {
		c.io.Write(formatMessage(message))
	}
	return nil
}

func (c *Controller) sendMessage(ctx context.Context, text string) error {
	dialog, ok := c.currentDialog()
	if !ok {
		c.io.Write("Choose a dialog before sending messages (:dialogs).")
		return nil
	}
	if err := c.service.SendMessage(ctx, dialog, text); err != nil {
		return err
	}
	return c.displayMessages(ctx, dialog)
}

func (c *Controller) loadMoreMessages(ctx context.Context) error {
	c.limit += historyIncrement
	dialog, ok := c.currentDialog()
	if !ok {
		c.io.Write("No active dialog to load more messages from.")
		return nil
	}
	return c.displayMessages(ctx, dialog)
}

func (c *Controller) findDialogs(term string) {
	titles := make([]string, len(c.dialogs))
	for i, dialog := range c.dialogs {
		titles[i] = dialog.Title
	}
	matches := search.New(titles).Search(term)
	if len(matches) == 0 {
		c.io.Write(fmt.Sprintf("No dialogs match: %s", term))
		return
	}
	c.io.Write("Matching dialogs:")
	for _, index := range matches {
		marker := " "
		if index == c.current {
			marker = "*"
		}
		c.io.Write(fmt.Sprintf(" %s %d: %s", marker, index, c.dialogs[index].Title))
	}
}

func (c *Controller) displayDialogList() {
	if len(c.dialogs) == 0 {
		c.io.Write("No dialogs available.")
		return
	}
	c.io.Write("Dialogs:")
	for index, dialog := range c.dialogs {
		marker := " "
		if index == c.current {
			marker = "*"
		}
		c.io.Write(fmt.Sprintf(" %s %d: %s", marker, index, dialog.Title))
	}
}

func (c *Controller) showHelp() {
	c.io.Write("Commands:\n" +
		"  :<number>        Switch to dialog by index\n" +
		"  :open <number>   Same as :<number>\n" +
		"  :dialogs         Show dialog list\n" +
		"  :find <term>     Filter dialogs by title\n" +
		"  :more            Load more history\n" +
		"  :reload          Reload dialogs\n" +
		"  :help            Show this help\n" +
		"  :quit            Exit the client")
}

func (c *Controller) currentDialog() (telegram.Dialog, bool) {
	if c.current < 0 || c.current >= len(c.dialogs) {
		return telegram.Dialog{}, false
	}
	return c.dialogs[c.current], true
}

func formatMessage(message telegram.Message) string {
	direction := "<-"
	if message.Outgoing {
		direction = "->"
	}
	text := message.Text
	if text == "" {
		if message.HasMedia {
			text = "<media>"
		} else {
			text = "<empty>"
		}
	}
	return fmt.Sprintf("%s [%s] %s: %s", direction, message.Time.Format("2006-01-02 15:04"), message.Sender, text)
}
