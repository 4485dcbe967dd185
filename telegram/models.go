package telegram

import (
	"time"

	"github.com/gotd/td/tg"
)

// Dialog is a lightweight conversation summary for the terminal UIs.
// Peer is the handle the service layer needs to address the chat; the UIs
// never touch it.
type Dialog struct {
	Title string
	Peer  tg.InputPeerClass
	ID    int64
}

// RelocateSelection re-finds a previously selected dialog by id after a
// refetch. A vanished or absent selection falls back to index 0, or to -1
// when the list is empty. Both frontends share this policy.
func RelocateSelection(dialogs []Dialog, previousID int64, hadSelection bool) int {
	if len(dialogs) == 0 {
		return -1
	}
	if hadSelection {
		for index, dialog := range dialogs {
			if dialog.ID == previousID {
				return index
			}
		}
	}
	return 0
}

// Message is a single chat message reduced to display-relevant fields.
// Instances are immutable once constructed.
type Message struct {
	ID       int
	Sender   string
	Text     string
	Outgoing bool
	Time     time.Time
	HasMedia bool
}
