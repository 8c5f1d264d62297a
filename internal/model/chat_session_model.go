package model

import "time"

type ChatSession struct {
	Id        string    `gorm:"type:text;primaryKey"`
	ProfileId *int64    `gorm:"index"`
	Title     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	EndedAt   *time.Time
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
