package entity

import "time"

type ChatSession struct {
	Id        string
	ProfileId *int64
	Title     string
	CreatedAt time.Time
	EndedAt   *time.Time
}

type ChatMessage struct {
	Id        int64
	SessionId string
	Role      string
	Content   string
	CreatedAt time.Time
}
