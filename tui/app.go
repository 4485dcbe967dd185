// Package tui implements the full-screen interactive interface: a windowed
// dialog list, a message pane, a one-line input box and a status line.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/honganh1206/tgterm/telegram"
)

const (
	dialogFetchLimit = 20
	historyIncrement = 25

	statusHintSuffix = "  •  Ctrl+R reload  •  Ctrl+Y more history  •  Ctrl+C to quit"
)

// App owns the tview widgets and the shared UI state. Handlers triggered by
// key presses run as goroutines and hold mu for their full duration,
// network call included, so independently triggered actions apply in input
// order. The tview event loop itself never takes mu.
type App struct {
	service telegram.Service
	limit   int

	app        *tview.Application
	dialogView *tview.TextView
	msgView    *tview.TextView
	input      *tview.InputField
	statusView *tview.TextView

	mu       sync.Mutex
	dialogs  []telegram.Dialog
	messages []telegram.Message
	current  int // -1 when nothing is selected
	status   string
	scroll   int

	measured atomic.Int32 // dialog-list height from the last draw
	started  atomic.Bool  // true once the event loop consumes queued updates
}

func New(service telegram.Service, messageFetchLimit int) *App {
	a := &App{
		service: service,
		limit:   messageFetchLimit,
		current: -1,
	}
	a.measured.Store(10)
	return a
}

// Run connects, builds the interface and blocks inside the tview event
// loop until quit. The session is closed on the way out.
func (a *App) Run(ctx context.Context) error {
	if err := a.service.Connect(ctx); err != nil {
		return err
	}
	defer a.service.Disconnect(ctx)

	a.build(ctx)
	a.initState(ctx)
	a.started.Store(true)
	return a.app.Run()
}

func (a *App) build(ctx context.Context) {
	a.app = tview.NewApplication()

	a.dialogView = tview.NewTextView().SetDynamicColors(true)
	a.dialogView.SetBorder(true).SetTitle("Dialogs (Enter/Tab to compose, → to view messages)")
	a.dialogView.SetDrawFunc(func(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
		ix, iy, iw, ih := a.dialogView.GetInnerRect()
		if ih >= minDialogWindow {
			a.measured.Store(int32(ih))
		}
		return ix, iy, iw, ih
	})
	a.dialogView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp:
			go a.changeSelection(ctx, -1)
			return nil
		case tcell.KeyDown:
			go a.changeSelection(ctx, 1)
			return nil
		case tcell.KeyEnter, tcell.KeyTab:
			a.focusInput()
			return nil
		case tcell.KeyRight:
			a.focusMessages()
			return nil
		}
		return event
	})

	a.msgView = tview.NewTextView()
	a.msgView.SetBorder(true).SetTitle("Messages (Ctrl+Y for history, ← back to dialogs)")
	a.msgView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyLeft {
			a.focusDialogs()
			return nil
		}
		return event
	})

	a.input = tview.NewInputField().SetLabel("Message> ")
	a.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(a.input.GetText())
		a.input.SetText("")
		go a.sendCurrent(ctx, text)
	})

	a.statusView = tview.NewTextView().SetDynamicColors(true)
	a.statusView.SetTextStyle(tcell.StyleDefault.Reverse(true))

	columns := tview.NewFlex().
		AddItem(a.dialogView, 0, 1, true).
		AddItem(a.msgView, 0, 2, false)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(columns, 0, 1, true).
		AddItem(a.input, 1, 0, false).
		AddItem(a.statusView, 1, 0, false)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlQ:
			a.app.Stop()
			return nil
		case tcell.KeyCtrlR:
			go a.refreshDialogs(ctx, false)
			return nil
		case tcell.KeyCtrlY:
			go a.loadMoreHistory(ctx)
			return nil
		case tcell.KeyESC:
			a.focusDialogs()
			return nil
		}
		return event
	})

	a.app.SetRoot(root, true).SetFocus(a.dialogView)
}

func (a *App) initState(ctx context.Context) {
	a.refreshDialogs(ctx, true)

	a.mu.Lock()
	defer a.mu.Unlock()
	if dialog, ok := a.currentDialogLocked(); ok {
		a.loadMessagesLocked(ctx, dialog)
		a.setStatusLocked("Connected. Arrows pick chats, Enter to chat, Esc to go back.")
	} else if a.status == "" {
		a.setStatusLocked("Connected, but no dialogs found. Ctrl+R to retry.")
	}
	a.redrawLocked()
}

// changeSelection moves the dialog selection by offset, clamped to the
// list, and reloads that dialog's history.
func (a *App) changeSelection(ctx context.Context, offset int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.dialogs) == 0 {
		return
	}
	current := a.current
	if current < 0 {
		current = 0
	}
	next := current + offset
	if next < 0 {
		next = 0
	}
	if next > len(a.dialogs)-1 {
		next = len(a.dialogs) - 1
	}
	if next == a.current {
		return
	}
	a.current = next
	dialog := a.dialogs[next]
	if err := a.loadMessagesLocked(ctx, dialog); err != nil {
		return
	}
	a.setStatusLocked("Switched to " + dialog.Title)
	a.ensureVisibleLocked()
	a.redrawLocked()
}

// refreshDialogs refetches the dialog list and re-locates the previous
// selection by id. Message history is reloaded except on the very first
// load, where initState takes care of it.
func (a *App) refreshDialogs(ctx context.Context, initial bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var previousID int64
	hadSelection := false
	if dialog, ok := a.currentDialogLocked(); ok {
		previousID = dialog.ID
		hadSelection = true
	}

	dialogs, err := a.service.FetchDialogs(ctx, dialogFetchLimit)
	if err != nil {
		a.setStatusLocked("Error: " + err.Error())
		a.redrawLocked()
		return
	}
	a.dialogs = dialogs
	a.current = telegram.RelocateSelection(dialogs, previousID, hadSelection)

	if len(dialogs) == 0 {
		a.messages = nil
		a.setStatusLocked("No dialogs available. Start a chat elsewhere and reload with Ctrl+R.")
		a.redrawLocked()
		return
	}

	if !initial {
		if dialog, ok := a.currentDialogLocked(); ok {
			if err := a.loadMessagesLocked(ctx, dialog); err != nil {
				return
			}
			a.setStatusLocked(fmt.Sprintf("Reloaded dialogs. %d available.", len(dialogs)))
		}
	}
	a.ensureVisibleLocked()
	a.redrawLocked()
}

// loadMoreHistory grows the fetch limit and reloads the current dialog.
func (a *App) loadMoreHistory(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	dialog, ok := a.currentDialogLocked()
	if !ok {
		a.setStatusLocked("Nothing selected. Use arrows to choose a chat.")
		a.redrawLocked()
		return
	}
	a.limit += historyIncrement
	if err := a.loadMessagesLocked(ctx, dialog); err != nil {
		return
	}
	a.setStatusLocked(fmt.Sprintf("Loaded %d messages.", len(a.messages)))
	a.ensureVisibleLocked()
	a.redrawLocked()
}

// sendCurrent transmits text to the selected dialog and reloads its
// history. Empty input is discarded without a network call.
func (a *App) sendCurrent(ctx context.Context, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if text == "" {
		a.setStatusLocked("Empty message ignored.")
		a.redrawLocked()
		return
	}
	dialog, ok := a.currentDialogLocked()
	if !ok {
		a.setStatusLocked("No dialog selected. Message discarded.")
		a.redrawLocked()
		return
	}
	if err := a.service.SendMessage(ctx, dialog, text); err != nil {
		a.setStatusLocked("Error: " + err.Error())
		a.redrawLocked()
		return
	}
	if err := a.loadMessagesLocked(ctx, dialog); err != nil {
		return
	}
	a.setStatusLocked("Message sent.")
	a.redrawLocked()
}

// report runs a status-only update as its own serialized action.
func (a *App) report(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setStatusLocked(text)
	a.redrawLocked()
}

func (a *App) loadMessagesLocked(ctx context.Context, dialog telegram.Dialog) error {
	messages, err := a.service.FetchMessages(ctx, dialog, a.limit)
	if err != nil {
		a.setStatusLocked("Error: " + err.Error())
		a.redrawLocked()
		return err
	}
	a.messages = messages
	return nil
}

func (a *App) currentDialogLocked() (telegram.Dialog, bool) {
	if a.current < 0 || a.current >= len(a.dialogs) {
		return telegram.Dialog{}, false
	}
	return a.dialogs[a.current], true
}

func (a *App) setStatusLocked(text string) {
	a.status = text + statusHintSuffix
}

// ensureVisibleLocked scrolls the dialog window so the selection stays
// inside the visible slice.
func (a *App) ensureVisibleLocked() {
	if a.current < 0 {
		return
	}
	height := a.visibleHeight()
	if a.current < a.scroll {
		a.scroll = a.current
	} else if a.current >= a.scroll+height {
		a.scroll = a.current - height + 1
	}
	if limit := len(a.dialogs) - height; a.scroll > limit {
		a.scroll = limit
	}
	if a.scroll < 0 {
		a.scroll = 0
	}
}

func (a *App) visibleHeight() int {
	height := int(a.measured.Load())
	if height < minDialogWindow {
		height = minDialogWindow
	}
	return height
}

// redrawLocked snapshots the rendered text under the lock and pushes it to
// the widgets. Before the event loop starts the widgets are written
// directly; afterwards updates go through the draw queue.
func (a *App) redrawLocked() {
	if a.app == nil {
		return
	}
	dialogText := renderDialogs(a.dialogs, a.current, a.scroll, a.visibleHeight())
	messageText := composeMessages(a.messages)
	status := tview.Escape(a.status)
	apply := func() {
		a.dialogView.SetText(dialogText)
		a.msgView.SetText(messageText)
		a.msgView.ScrollToEnd()
		a.statusView.SetText(status)
	}
	if a.started.Load() {
		a.app.QueueUpdateDraw(apply)
	} else {
		apply()
	}
}

func (a *App) focusInput() {
	a.app.SetFocus(a.input)
	go a.report("Typing mode. Esc to go back to dialogs.")
}

func (a *App) focusMessages() {
	a.app.SetFocus(a.msgView)
	go a.report("Messages focused. Use ↑/↓ to scroll, ← to return.")
}

func (a *App) focusDialogs() {
	a.app.SetFocus(a.dialogView)
	go a.report("Dialog picker active. Use arrows to navigate.")
}
