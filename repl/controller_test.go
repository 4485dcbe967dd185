package repl

import (
	"context"
	"testing"
	"time"

	"github.com/honganh1206/tgterm/telegram"
	"github.com/honganh1206/tgterm/termio"
)

type sentMessage struct {
	dialogID int64
	text     string
}

type fakeService struct {
	dialogs   []telegram.Dialog
	messages  map[int64][]telegram.Message
	snapshots [][]telegram.Dialog

	connected   bool
	disconnects int
	sent        []sentMessage
	dialogCalls int
	fetchLimits []int
	nextID      int
}

func newFakeService(dialogs []telegram.Dialog, messages map[int64][]telegram.Message) *fakeService {
	copied := make(map[int64][]telegram.Message, len(messages))
	for id, history := range messages {
		copied[id] = append([]telegram.Message(nil), history...)
	}
	return &fakeService{dialogs: dialogs, messages: copied, nextID: 1000}
}

func (f *fakeService) Connect(ctx context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeService) Disconnect(ctx context.Context) error {
	f.disconnects++
	return nil
}

func (f *fakeService) FetchDialogs(ctx context.Context, limit int) ([]telegram.Dialog, error) {
	f.dialogCalls++
	if len(f.snapshots) > 0 {
		index := f.dialogCalls - 1
		if index >= len(f.snapshots) {
			index = len(f.snapshots) - 1
		}
		f.dialogs = append([]telegram.Dialog(nil), f.snapshots[index]...)
	}
	if limit < len(f.dialogs) {
		return f.dialogs[:limit], nil
	}
	return f.dialogs, nil
}

func (f *fakeService) FetchMessages(ctx context.Context, dialog telegram.Dialog, limit int) ([]telegram.Message, error) {
	f.fetchLimits = append(f.fetchLimits, limit)
	history := f.messages[dialog.ID]
	if limit < len(history) {
		return history[len(history)-limit:], nil
	}
	return history, nil
}

func (f *fakeService) SendMessage(ctx context.Context, dialog telegram.Dialog, text string) error {
	f.sent = append(f.sent, sentMessage{dialogID: dialog.ID, text: text})
	f.messages[dialog.ID] = append(f.messages[dialog.ID], telegram.Message{
		ID:       f.nextID,
		Sender:   "You",
		Text:     text,
		Outgoing: true,
		Time:     time.Now().UTC(),
	})
	f.nextID++
	return nil
}

func buildMessage(id int, sender, text string, outgoing bool) telegram.Message {
	return telegram.Message{
		ID:       id,
		Sender:   sender,
		Text:     text,
		Outgoing: outgoing,
		Time:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func defaultDialogs() []telegram.Dialog {
	return []telegram.Dialog{
		{Title: "Saved Messages", ID: 1},
		{Title: "Friend", ID: 2},
	}
}

func defaultMessages() map[int64][]telegram.Message {
	return map[int64][]telegram.Message{
		1: {buildMessage(1, "You", "First note", true)},
	}
}

func runController(t *testing.T, service *fakeService, io *termio.BufferedIO) {
	t.Helper()

	controller := New(service, io, 5)
	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
}

func TestStart_ShowsDialogsAndExits(t *testing.T) {
	io := termio.NewBufferedIO(":q")
	service := newFakeService(defaultDialogs(), defaultMessages())

	runController(t, service, io)

	if !service.connected {
		t.Error("Expected Connect to be called")
	}
	if service.disconnects != 1 {
		t.Errorf("Expected exactly one Disconnect, got %d", service.disconnects)
	}
	if service.dialogCalls != 1 {
		t.Errorf("Expected 1 dialog fetch, got %d", service.dialogCalls)
	}
	if len(service.fetchLimits) != 1 || service.fetchLimits[0] != 5 {
		t.Errorf("Expected fetch limits [5], got %v", service.fetchLimits)
	}
	if !io.Contains("Dialogs:") || !io.Contains("Saved Messages") {
		t.Errorf("Expected dialog list in output, got %v", io.Outputs)
	}
}

func TestEndOfInput_TerminatesAndDisconnectsOnce(t *testing.T) {
	io := termio.NewBufferedIO()
	service := newFakeService(defaultDialogs(), defaultMessages())

	runController(t, service, io)

	if service.disconnects != 1 {
		t.Errorf("Expected exactly one Disconnect after EOF, got %d", service.disconnects)
	}
	if !io.Contains("Disconnected.") {
		t.Error("Expected shutdown notice in output")
	}
}

func TestHelpCommand_ListsAvailableActions(t *testing.T) {
	io := termio.NewBufferedIO(":help", ":q")
	service := newFakeService(defaultDialogs(), defaultMessages())

	runController(t, service, io)

	if !io.Contains("Commands:") || !io.Contains(":quit") {
		t.Errorf("Expected help text in output, got %v", io.Outputs)
	}
}

func TestDialogsCommand_MarksActiveDialog(t *testing.T) {
	io := termio.NewBufferedIO(":dialogs", ":q")
	service := newFakeService(defaultDialogs(), defaultMessages())

	runController(t, service, io)

	if !io.Contains("* 0: Saved Messages") {
		t.Errorf("Expected active dialog marker, got %v", io.Outputs)
	}
}

func TestSwitchAndSendMessage(t *testing.T) {
	dialogs := []telegram.Dialog{
		{Title: "Saved Messages", ID: 1},
		{Title: "@tima_tima", ID: 2},
	}
	messages := map[int64][]telegram.Message{
		1: {buildMessage(1, "You", "Pinned note", true)},
		2: {buildMessage(10, "tima", "Hello!", false)},
	}
	io := termio.NewBufferedIO(":1", "Hi there", ":q")
	service := newFakeService(dialogs, messages)

	runController(t, service, io)

	if len(service.sent) != 1 || service.sent[0] != (sentMessage{dialogID: 2, text: "Hi there"}) {
		t.Errorf("Expected one sent message (2, Hi there), got %v", service.sent)
	}
	limitFives := 0
	for _, limit := range service.fetchLimits {
		if limit == 5 {
			limitFives++
		}
	}
	if limitFives < 2 {
		t.Errorf("Expected at least two fetches with limit 5, got %v", service.fetchLimits)
	}
	if !io.Contains("Hi there") {
		t.Errorf("Expected sent text in output, got %v", io.Outputs)
	}
}

func TestMoreCommand_IncreasesLimit(t *testing.T) {
	io := termio.NewBufferedIO(":more", ":q")
	service := newFakeService(defaultDialogs(), defaultMessages())

	runController(t, service, io)

	if len(service.fetchLimits) != 2 || service.fetchLimits[0] != 5 || service.fetchLimits[1] != 30 {
		t.Errorf("Expected fetch limits [5 30], got %v", service.fetchLimits)
	}
}

func TestReload_FetchesDialogsAgain(t *testing.T) {
	newDialogs := append(defaultDialogs(), telegram.Dialog{Title: "New chat", ID: 3})
	io := termio.NewBufferedIO(":reload", ":q")
	service := newFakeService(defaultDialogs(), defaultMessages())
	service.snapshots = [][]telegram.Dialog{defaultDialogs(), newDialogs}

	runController(t, service, io)

	if service.dialogCalls != 2 {
		t.Errorf("Expected 2 dialog fetches, got %d", service.dialogCalls)
	}
	if !io.Contains("New chat") {
		t.Errorf("Expected new dialog in output, got %v", io.Outputs)
	}
}

func TestReload_PreservesSelectionByID(t *testing.T) {
	reordered := []telegram.Dialog{
		{Title: "Friend", ID: 2},
		{Title: "Saved Messages", ID: 1},
	}
	io := termio.NewBufferedIO(":reload", ":dialogs", ":q")
	service := newFakeService(defaultDialogs(), defaultMessages())
	service.snapshots = [][]telegram.Dialog{defaultDialogs(), reordered}

	runController(t, service, io)

	if !io.Contains("* 1: Saved Messages") {
		t.Errorf("Expected selection to follow the dialog id, got %v", io.Outputs)
	}
}

func TestReload_SelectionFallsBackWhenDialogVanishes(t *testing.T) {
	replaced := []telegram.Dialog{
		{Title: "Brand new", ID: 9},
	}
	io := termio.NewBufferedIO(":reload", ":dialogs", ":q")
	service := newFakeService(defaultDialogs(), defaultMessages())
	service.snapshots = [][]telegram.Dialog{defaultDialogs(), replaced}

	runController(t, service, io)

	if !io.Contains("* 0: Brand new") {
		t.Errorf("Expected selection to fall back to index 0, got %v", io.Outputs)
	}
}

func TestUnknownCommand_ReportsError(t *testing.T) {
	io := termio.NewBufferedIO(":bogus", ":q")
	service := newFakeService(defaultDialogs(), defaultMessages())

	runController(t, service, io)

	if !io.Contains("Unknown command: :bogus") {
		t.Errorf("Expected unknown command notice, got %v", io.Outputs)
	}
}

func TestOpenInvalidIndex_Reports(t *testing.T) {
	io := termio.NewBufferedIO(":open 42", ":q")
	service := newFakeService(defaultDialogs(), defaultMessages())

	runController(t, service, io)

	if !io.Contains("Invalid dialog index: 42") {
		t.Errorf("Expected invalid index notice, got %v", io.Outputs)
	}
	if len(service.sent) != 0 {
		t.Errorf("Expected no sends, got %v", service.sent)
	}
}

func TestSendWhenNoDialogSelected_WarnsUser(t *testing.T) {
	io := termio.NewBufferedIO("Hello there", ":q")
	service := newFakeService(nil, nil)

	runController(t, service, io)

	if !io.Contains("Choose a dialog") {
		t.Errorf("Expected warning about missing selection, got %v", io.Outputs)
	}
	if len(service.sent) != 0 {
		t.Errorf("Expected no sends, got %v", service.sent)
	}
}

func TestFindCommand_FiltersByTitle(t *testing.T) {
	io := termio.NewBufferedIO(":find friend", ":find nomatch", ":q")
	service := newFakeService(defaultDialogs(), defaultMessages())

	runController(t, service, io)

	if !io.Contains("  1: Friend") {
		t.Errorf("Expected matching dialog with its index, got %v", io.Outputs)
	}
	if !io.Contains("No dialogs match: nomatch") {
		t.Errorf("Expected no-match notice, got %v", io.Outputs)
	}
}

func TestFormatMessage_Placeholders(t *testing.T) {
	media := telegram.Message{Sender: "Tima", HasMedia: true, Time: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	empty := telegram.Message{Sender: "Tima", Time: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}

	if got := formatMessage(media); got != "<- [2024-01-01 12:00] Tima: <media>" {
		t.Errorf("Unexpected media rendering: %q", got)
	}
	if got := formatMessage(empty); got != "<- [2024-01-01 12:00] Tima: <empty>" {
		t.Errorf("Unexpected empty rendering: %q", got)
	}
}
