package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chatter-box/domain"
)

func Test_Topic_Naming(t *testing.T) {
	req := require.New(t)

	req.Equal("/topic/chat.7", CreateTopic(7))
	req.Equal("/topic/chat.7.edit", EditTopic(7))
	req.Equal("/topic/chat.7.delete", DeleteTopic(7))
	req.Equal([]string{"/topic/chat.7", "/topic/chat.7.edit", "/topic/chat.7.delete"}, RoomTopics(7))
}

func Test_Parse_Topic(t *testing.T) {
	tests := []struct {
		topic    string
		wantRoom domain.RoomID
		wantKind Kind
		wantErr  bool
	}{
		{"/topic/chat.7", 7, KindCreate, false},
		{"/topic/chat.7.edit", 7, KindEdit, false},
		{"/topic/chat.7.delete", 7, KindDelete, false},
		{"/topic/chat.abc", 0, "", true},
		{"/topic/other.7", 0, "", true},
		{"chat.7", 0, "", true},
		{"", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			req := require.New(t)
			room, kind, err := ParseTopic(tt.topic)
			if tt.wantErr {
				req.Error(err)
				return
			}
			req.NoError(err)
			req.Equal(tt.wantRoom, room)
			req.Equal(tt.wantKind, kind)
		})
	}
}

func Test_Event_Bodies(t *testing.T) {
	req := require.New(t)

	view := domain.MessageView{ID: 1, Content: "hello", Sender: "alice"}
	created := MessageCreated{Room: 7, Message: view}
	req.Equal(CreateTopic(7), created.Topic())
	req.Equal(view, created.Body())

	// Deletion broadcasts only the bare message id.
	deleted := MessageDeleted{Room: 7, MessageID: 1}
	req.Equal(DeleteTopic(7), deleted.Topic())
	req.Equal(int64(1), deleted.Body())
}
