package telegram

import (
	"time"

	"github.com/gotd/td/tg"
)

const placeholderTitle = "Unknown chat"

// mapDialogs converts a getDialogs result page into display records. Users
// and chats arrive as flat side tables keyed by id; dialog order is
// preserved as the server sent it.
func mapDialogs(dialogs []tg.DialogClass, users []tg.UserClass, chats []tg.ChatClass) []Dialog {
	userByID := make(map[int64]*tg.User, len(users))
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			userByID[user.ID] = user
		}
	}
	chatByID := make(map[int64]*tg.Chat, len(chats))
	channelByID := make(map[int64]*tg.Channel, len(chats))
	for _, ch := range chats {
		switch chat := ch.(type) {
		case *tg.Chat:
			chatByID[chat.ID] = chat
		case *tg.Channel:
			channelByID[chat.ID] = chat
		}
	}

	result := make([]Dialog, 0, len(dialogs))
	for _, dc := range dialogs {
		d, ok := dc.(*tg.Dialog)
		if !ok {
			continue
		}
		switch peer := d.Peer.(type) {
		case *tg.PeerUser:
			user := userByID[peer.UserID]
			if user == nil {
				continue
			}
			result = append(result, Dialog{
				Title: orPlaceholder(userDisplayName(user)),
				Peer:  &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash},
				ID:    user.ID,
			})
		case *tg.PeerChat:
			chat := chatByID[peer.ChatID]
			if chat == nil {
				continue
			}
			result = append(result, Dialog{
				Title: orPlaceholder(chat.Title),
				Peer:  &tg.InputPeerChat{ChatID: chat.ID},
				ID:    chat.ID,
			})
		case *tg.PeerChannel:
			channel := channelByID[peer.ChannelID]
			if channel == nil {
				continue
			}
			result = append(result, Dialog{
				Title: orPlaceholder(channel.Title),
				Peer:  &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash},
				ID:    channel.ID,
			})
		}
	}
	return result
}

// mapMessages converts a history page into chronological display records.
// The wire order is newest first; service and empty entries carry no
// displayable body and are skipped.
func mapMessages(raw []tg.MessageClass, users []tg.UserClass, dialog Dialog, selfName string) []Message {
	userByID := make(map[int64]*tg.User, len(users))
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			userByID[user.ID] = user
		}
	}

	result := make([]Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		m, ok := raw[i].(*tg.Message)
		if !ok {
			continue
		}
		_, hasMedia := m.GetMedia()
		result = append(result, Message{
			ID:       m.ID,
			Sender:   senderName(m, userByID, dialog.Title, selfName),
			Text:     m.Message,
			Outgoing: m.Out,
			Time:     time.Unix(int64(m.Date), 0),
			HasMedia: hasMedia,
		})
	}
	return result
}

// senderName resolves who to attribute a message to. Outgoing messages are
// always the authenticated user; incoming ones fall back through the
// sender's names down to the dialog title.
func senderName(m *tg.Message, users map[int64]*tg.User, dialogTitle, selfName string) string {
	if m.Out {
		return selfName
	}
	if from, ok := m.GetFromID(); ok {
		if peer, ok := from.(*tg.PeerUser); ok {
			if user := users[peer.UserID]; user != nil {
				for _, name := range []string{user.FirstName, user.LastName, user.Username} {
					if name != "" {
						return name
					}
				}
			}
		}
	}
	return dialogTitle
}

func selfDisplayName(self *tg.User) string {
	if self.FirstName != "" {
		return self.FirstName
	}
	if self.Username != "" {
		return self.Username
	}
	return fallbackSelfName
}

func userDisplayName(user *tg.User) string {
	name := user.FirstName
	if user.LastName != "" {
		if name != "" {
			name += " "
		}
		name += user.LastName
	}
	if name == "" {
		name = user.Username
	}
	return name
}

func orPlaceholder(title string) string {
	if title == "" {
		return placeholderTitle
	}
	return title
}
