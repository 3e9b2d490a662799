package domain

import "time"

type MessageID int64

// Message is one persisted chat message. Sender is the subject name of the
// author and is immutable once set: only the original sender may edit or
// delete the message, and edits touch Content alone.
type Message struct {
	ID        MessageID
	Room      RoomID
	Sender    string
	Content   string
	CreatedAt time.Time
}

// MessageView is the shape broadcast to topic subscribers and returned by
// the history endpoint.
type MessageView struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m Message) View() MessageView {
	return MessageView{
		ID:        int64(m.ID),
		Content:   m.Content,
		Sender:    m.Sender,
		CreatedAt: m.CreatedAt,
	}
}
