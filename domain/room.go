// Package domain contains core concepts of the chat system:
// rooms, messages, and the identity bound to a live connection.
package domain

import "time"

type RoomID int64

// Room is a durable chat room. Membership is tracked separately as
// membership facts keyed by (room, subject); Creator records the subject
// name that created the room and keeps its privileges (delete room,
// remove members) even after leaving the member set.
type Room struct {
	ID        RoomID
	Name      string
	Creator   string
	CreatedAt time.Time
}

// Member is one entry of a room's member set.
type Member struct {
	SubjectID   string
	SubjectName string
}

// RoomView is the external representation of a room,
// including its member list and message history.
type RoomView struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name,omitempty"`
	Creator  string        `json:"creator"`
	Members  []MemberView  `json:"members"`
	Messages []MessageView `json:"messages"`
}

type MemberView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
